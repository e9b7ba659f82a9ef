package probes

import (
	"context"
	"fmt"
	"strings"

	"github.com/su1ph3r/vigil/internal/executor"
	"github.com/su1ph3r/vigil/pkg/types"
)

// SecurityHeadersProbe checks a response for common security headers
type SecurityHeadersProbe struct {
	Endpoint string
}

func (p *SecurityHeadersProbe) Name() string    { return types.ProbeSecurityHeaders }
func (p *SecurityHeadersProbe) NeedsAuth() bool { return false }

func (p *SecurityHeadersProbe) Run(ctx context.Context, env Env) []types.ProbeFinding {
	endpoint := p.Endpoint
	if endpoint == "" {
		endpoint = "/"
	}

	resp, err := env.Exec.Execute(ctx, executor.Request{
		Method:  "GET",
		Path:    endpoint,
		Headers: optionalAuth(env),
	})
	if err != nil {
		return []types.ProbeFinding{transportFinding(p.Name(), "GET", endpoint, err)}
	}

	missing := MissingSecurityHeaders(resp, endpoint)
	severity := ClassifySecurityHeaders(missing)

	msg := "all expected security headers present"
	if severity != types.SeverityOK {
		msg = fmt.Sprintf("missing %s", strings.Join(missing, ", "))
	}
	return []types.ProbeFinding{newFinding(p.Name(), severity, msg, "GET", endpoint, resp.StatusCode)}
}
