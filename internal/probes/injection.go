package probes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/su1ph3r/vigil/internal/executor"
	"github.com/su1ph3r/vigil/pkg/types"
)

// InjectionProbe sends SQL-like payloads as a body field value and as a path
// segment, one finding per payload and location
type InjectionProbe struct {
	Method     string
	Endpoint   string
	Field      string
	PathPrefix string
	Payloads   []string
}

func (p *InjectionProbe) Name() string    { return types.ProbeInjection }
func (p *InjectionProbe) NeedsAuth() bool { return false }

func (p *InjectionProbe) Run(ctx context.Context, env Env) []types.ProbeFinding {
	var findings []types.ProbeFinding

	for _, payload := range p.Payloads {
		if p.Endpoint != "" && p.Field != "" {
			findings = append(findings, p.inBody(ctx, env, payload))
		}
		if p.PathPrefix != "" {
			findings = append(findings, p.inPath(ctx, env, payload))
		}
		if ctx.Err() != nil {
			break
		}
	}

	return findings
}

func (p *InjectionProbe) inBody(ctx context.Context, env Env, payload string) types.ProbeFinding {
	method := strings.ToUpper(p.Method)
	if method == "" {
		method = "POST"
	}

	body, err := json.Marshal(map[string]string{p.Field: payload})
	if err != nil {
		return newFinding(p.Name(), types.SeverityFail, fmt.Sprintf("could not encode payload: %v", err), method, p.Endpoint)
	}

	resp, err := env.Exec.Execute(ctx, executor.Request{
		Method:  method,
		Path:    p.Endpoint,
		Body:    body,
		Headers: optionalAuth(env),
	})
	if err != nil {
		return transportFinding(p.Name(), method, p.Endpoint, err)
	}

	return p.grade(fmt.Sprintf("field %q", p.Field), payload, method, p.Endpoint, resp.StatusCode)
}

func (p *InjectionProbe) inPath(ctx context.Context, env Env, payload string) types.ProbeFinding {
	path := p.PathPrefix + url.PathEscape(payload)

	resp, err := env.Exec.Execute(ctx, executor.Request{
		Method:  "GET",
		Path:    path,
		Headers: optionalAuth(env),
	})
	if err != nil {
		return transportFinding(p.Name(), "GET", path, err)
	}

	return p.grade("path segment", payload, "GET", path, resp.StatusCode)
}

func (p *InjectionProbe) grade(location, payload, method, endpoint string, status int) types.ProbeFinding {
	severity, unhandled := ClassifyInjection(status)

	var msg string
	switch {
	case severity == types.SeverityOK:
		msg = fmt.Sprintf("payload %q in %s rejected with %d", payload, location, status)
	case unhandled:
		msg = fmt.Sprintf("payload %q in %s caused %d, input may be unhandled", payload, location, status)
	default:
		msg = fmt.Sprintf("payload %q in %s accepted with %d", payload, location, status)
	}

	return newFinding(p.Name(), severity, msg, method, endpoint, status)
}
