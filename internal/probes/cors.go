package probes

import (
	"context"
	"fmt"
	"strings"

	"github.com/su1ph3r/vigil/internal/executor"
	"github.com/su1ph3r/vigil/pkg/types"
)

// CORSProbe sends a preflight request and expects the allow headers back
type CORSProbe struct {
	Endpoint       string
	Origin         string
	RequestMethod  string
	RequestHeaders string
}

func (p *CORSProbe) Name() string    { return types.ProbeCORS }
func (p *CORSProbe) NeedsAuth() bool { return false }

func (p *CORSProbe) Run(ctx context.Context, env Env) []types.ProbeFinding {
	headers := map[string]string{
		"Origin":                        p.Origin,
		"Access-Control-Request-Method": p.RequestMethod,
	}
	if p.RequestHeaders != "" {
		headers["Access-Control-Request-Headers"] = p.RequestHeaders
	}

	resp, err := env.Exec.Execute(ctx, executor.Request{
		Method:  "OPTIONS",
		Path:    p.Endpoint,
		Headers: headers,
	})
	if err != nil {
		return []types.ProbeFinding{transportFinding(p.Name(), "OPTIONS", p.Endpoint, err)}
	}

	acao := resp.Header("Access-Control-Allow-Origin")
	acam := resp.Header("Access-Control-Allow-Methods")

	var msg string
	severity := ClassifyCORS(resp)
	if severity == types.SeverityOK {
		msg = fmt.Sprintf("preflight answered with Allow-Origin %q and Allow-Methods %q", acao, acam)
		if acao == "*" || strings.EqualFold(acao, p.Origin) {
			msg += fmt.Sprintf(", origin %s is allowed", p.Origin)
		}
	} else {
		var absent []string
		if acao == "" {
			absent = append(absent, "Access-Control-Allow-Origin")
		}
		if acam == "" {
			absent = append(absent, "Access-Control-Allow-Methods")
		}
		msg = fmt.Sprintf("preflight (%d) missing %s", resp.StatusCode, strings.Join(absent, ", "))
	}

	return []types.ProbeFinding{newFinding(p.Name(), severity, msg, "OPTIONS", p.Endpoint, resp.StatusCode)}
}
