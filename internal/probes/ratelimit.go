package probes

import (
	"context"
	"fmt"
	"strings"

	"github.com/su1ph3r/vigil/internal/executor"
	"github.com/su1ph3r/vigil/pkg/types"
)

// RateLimitProbe sends paced bursts and looks for a 429. Requests within a
// burst are sequential; the burst stops at the first 429.
type RateLimitProbe struct {
	Bursts []types.BurstSettings
}

func (p *RateLimitProbe) Name() string    { return types.ProbeRateLimit }
func (p *RateLimitProbe) NeedsAuth() bool { return false }

func (p *RateLimitProbe) Run(ctx context.Context, env Env) []types.ProbeFinding {
	var findings []types.ProbeFinding
	for _, burst := range p.Bursts {
		if ctx.Err() != nil {
			break
		}
		findings = append(findings, p.runBurst(ctx, env, burst))
	}
	return findings
}

func (p *RateLimitProbe) runBurst(ctx context.Context, env Env, burst types.BurstSettings) types.ProbeFinding {
	method := strings.ToUpper(burst.Method)
	if method == "" {
		method = "GET"
	}
	name := burst.Name
	if name == "" {
		name = burst.Endpoint
	}

	pacer := executor.NewPacer(burst.Delay)
	headers := optionalAuth(env)

	var statuses []int
	var lastErr error
	transportErrors := 0
	sent := 0

	for i := 0; i < burst.Count; i++ {
		if err := pacer.Wait(ctx); err != nil {
			lastErr = err
			break
		}

		sent++
		resp, err := env.Exec.Execute(ctx, executor.Request{
			Method:  method,
			Path:    burst.Endpoint,
			Body:    bodyBytes(burst.Body),
			Headers: headers,
		})
		if err != nil {
			transportErrors++
			lastErr = err
			continue
		}

		statuses = append(statuses, resp.StatusCode)
		if resp.StatusCode == 429 {
			break
		}
	}

	severity := ClassifyRateLimit(statuses, transportErrors)

	var msg string
	switch severity {
	case types.SeverityOK:
		msg = fmt.Sprintf("burst %q: rate limited after %d of %d requests", name, sent, burst.Count)
	case types.SeverityFail:
		msg = fmt.Sprintf("burst %q: no responses received: %v", name, lastErr)
	default:
		msg = fmt.Sprintf("burst %q: %d requests at %s intervals without a 429", name, sent, burst.Delay)
		if transportErrors > 0 {
			msg += fmt.Sprintf(" (%d without a response)", transportErrors)
		}
	}

	return newFinding(p.Name(), severity, msg, method, burst.Endpoint, statuses...)
}
