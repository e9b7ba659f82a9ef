package probes

import (
	"context"
	"fmt"

	"github.com/su1ph3r/vigil/internal/executor"
	"github.com/su1ph3r/vigil/pkg/types"
)

// TamperedTokenProbe replays the session token with one character changed
type TamperedTokenProbe struct {
	Endpoint string
}

func (p *TamperedTokenProbe) Name() string    { return types.ProbeTamperedToken }
func (p *TamperedTokenProbe) NeedsAuth() bool { return true }

func (p *TamperedTokenProbe) Run(ctx context.Context, env Env) []types.ProbeFinding {
	if env.Session == nil || !env.Session.HasToken() {
		return []types.ProbeFinding{noTokenFinding(p.Name(), "GET", p.Endpoint)}
	}

	tampered := TamperToken(env.Session.Token())
	resp, err := env.Exec.Execute(ctx, executor.Request{
		Method:  "GET",
		Path:    p.Endpoint,
		Headers: map[string]string{"Authorization": "Bearer " + tampered},
	})
	if err != nil {
		return []types.ProbeFinding{transportFinding(p.Name(), "GET", p.Endpoint, err)}
	}

	severity := ClassifyTamperedToken(resp.StatusCode)
	msg := fmt.Sprintf("tampered token rejected with %d", resp.StatusCode)
	if severity != types.SeverityOK {
		msg = fmt.Sprintf("tampered token accepted, server answered %d", resp.StatusCode)
	}
	return []types.ProbeFinding{newFinding(p.Name(), severity, msg, "GET", p.Endpoint, resp.StatusCode)}
}
