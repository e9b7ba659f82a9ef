package probes

import (
	"context"
	"fmt"

	"github.com/su1ph3r/vigil/internal/executor"
	"github.com/su1ph3r/vigil/pkg/types"
)

// UnauthProbe calls a protected endpoint without credentials
type UnauthProbe struct {
	Endpoint string
}

func (p *UnauthProbe) Name() string    { return types.ProbeUnauth }
func (p *UnauthProbe) NeedsAuth() bool { return false }

func (p *UnauthProbe) Run(ctx context.Context, env Env) []types.ProbeFinding {
	resp, err := env.Exec.Execute(ctx, executor.Request{Method: "GET", Path: p.Endpoint})
	if err != nil {
		return []types.ProbeFinding{transportFinding(p.Name(), "GET", p.Endpoint, err)}
	}

	severity := ClassifyUnauth(resp.StatusCode)
	msg := fmt.Sprintf("request without credentials rejected with %d", resp.StatusCode)
	if severity != types.SeverityOK {
		msg = fmt.Sprintf("protected endpoint answered %d without credentials", resp.StatusCode)
	}
	return []types.ProbeFinding{newFinding(p.Name(), severity, msg, "GET", p.Endpoint, resp.StatusCode)}
}
