package probes

import (
	"context"
	"fmt"
	"strings"

	"github.com/su1ph3r/vigil/internal/executor"
	"github.com/su1ph3r/vigil/pkg/types"
)

// IDORProbe mutates a resource the logged-in user does not own
type IDORProbe struct {
	Method   string
	Endpoint string
	Body     string
}

func (p *IDORProbe) Name() string    { return types.ProbeIDOR }
func (p *IDORProbe) NeedsAuth() bool { return true }

func (p *IDORProbe) Run(ctx context.Context, env Env) []types.ProbeFinding {
	method := strings.ToUpper(p.Method)
	if method == "" {
		method = "PUT"
	}
	if env.Session == nil || !env.Session.HasToken() {
		return []types.ProbeFinding{noTokenFinding(p.Name(), method, p.Endpoint)}
	}

	resp, err := env.Exec.Execute(ctx, executor.Request{
		Method:  method,
		Path:    p.Endpoint,
		Body:    bodyBytes(p.Body),
		Headers: env.Session.AuthHeader(),
	})
	if err != nil {
		return []types.ProbeFinding{transportFinding(p.Name(), method, p.Endpoint, err)}
	}

	severity := ClassifyIDOR(resp.StatusCode)

	var msg string
	switch {
	case severity == types.SeverityOK:
		msg = fmt.Sprintf("access to foreign resource denied with %d", resp.StatusCode)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		msg = fmt.Sprintf("foreign resource modified, server answered %d", resp.StatusCode)
	default:
		msg = fmt.Sprintf("unexpected status %d for foreign resource", resp.StatusCode)
	}

	return []types.ProbeFinding{newFinding(p.Name(), severity, msg, method, p.Endpoint, resp.StatusCode)}
}
