// Package probes provides scripted security and robustness scenarios built on
// the HTTP executor
package probes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/su1ph3r/vigil/internal/executor"
	"github.com/su1ph3r/vigil/pkg/types"
)

// Env is what a probe runs against
type Env struct {
	Exec    executor.Executor
	Session *executor.Session
}

// Probe is one scenario. Run never fails: problems are reported as findings
// with severity fail.
type Probe interface {
	// Name returns the probe name used for selection and reporting
	Name() string
	// NeedsAuth reports whether the probe depends on a captured token
	NeedsAuth() bool
	// Run executes the scenario
	Run(ctx context.Context, env Env) []types.ProbeFinding
}

func newFinding(scenario, severity, message, method, endpoint string, statuses ...int) types.ProbeFinding {
	return types.ProbeFinding{
		Scenario:  scenario,
		Severity:  severity,
		Message:   message,
		Method:    method,
		Endpoint:  endpoint,
		Statuses:  statuses,
		Timestamp: time.Now(),
	}
}

func transportFinding(scenario, method, endpoint string, err error) types.ProbeFinding {
	return newFinding(scenario, types.SeverityFail, fmt.Sprintf("no response: %v", err), method, endpoint)
}

func noTokenFinding(scenario, method, endpoint string) types.ProbeFinding {
	return newFinding(scenario, types.SeverityFail, "no session token available, login did not succeed", method, endpoint)
}

// optionalAuth returns the session's auth header, or nil without a token
func optionalAuth(env Env) map[string]string {
	if env.Session == nil || !env.Session.HasToken() {
		return nil
	}
	return env.Session.AuthHeader()
}

// bodyBytes returns nil for an empty body so no Content-Type is implied
func bodyBytes(body string) []byte {
	if body == "" {
		return nil
	}
	return []byte(body)
}

// Registry builds probes from configuration
type Registry struct {
	constructors map[string]func() Probe
}

// NewRegistry creates a registry of every known probe configured from cfg
func NewRegistry(cfg *types.Config) *Registry {
	p := cfg.Probes
	protected := p.ProtectedEndpoint

	return &Registry{
		constructors: map[string]func() Probe{
			types.ProbeUnauth: func() Probe {
				return &UnauthProbe{Endpoint: protected}
			},
			types.ProbeIDOR: func() Probe {
				return &IDORProbe{Method: p.IDOR.Method, Endpoint: p.IDOR.Endpoint, Body: p.IDOR.Body}
			},
			types.ProbeInjection: func() Probe {
				return &InjectionProbe{
					Method:     p.Injection.Method,
					Endpoint:   p.Injection.Endpoint,
					Field:      p.Injection.Field,
					PathPrefix: p.Injection.PathPrefix,
					Payloads:   p.Injection.Payloads,
				}
			},
			types.ProbeTamperedToken: func() Probe {
				return &TamperedTokenProbe{Endpoint: protected}
			},
			types.ProbeRateLimit: func() Probe {
				return &RateLimitProbe{Bursts: p.RateLimit.Bursts}
			},
			types.ProbeContentType: func() Probe {
				return &ContentTypeProbe{
					Method:    p.ContentType.Method,
					Endpoint:  p.ContentType.Endpoint,
					Body:      p.ContentType.Body,
					WrongType: p.ContentType.WrongType,
				}
			},
			types.ProbeCORS: func() Probe {
				return &CORSProbe{
					Endpoint:       p.CORS.Endpoint,
					Origin:         p.CORS.Origin,
					RequestMethod:  p.CORS.RequestMethod,
					RequestHeaders: p.CORS.RequestHeaders,
				}
			},
			types.ProbeSecurityHeaders: func() Probe {
				return &SecurityHeadersProbe{Endpoint: p.Headers.Endpoint}
			},
		},
	}
}

// Select returns the enabled probes in canonical order. An empty enabled
// list selects every probe; disabled wins over enabled.
func (r *Registry) Select(enabled, disabled []string) ([]Probe, error) {
	for _, name := range append(append([]string{}, enabled...), disabled...) {
		if _, ok := r.constructors[name]; !ok {
			return nil, fmt.Errorf("%w: unknown probe %q", types.ErrConfiguration, name)
		}
	}

	want := make(map[string]bool)
	for _, name := range enabled {
		want[name] = true
	}
	skip := make(map[string]bool)
	for _, name := range disabled {
		skip[name] = true
	}

	var selected []Probe
	for _, name := range types.AllProbes {
		if skip[name] || (len(want) > 0 && !want[name]) {
			continue
		}
		selected = append(selected, r.constructors[name]())
	}
	return selected, nil
}

// Driver runs a selection of probes
type Driver struct {
	Probes []Probe
	// Parallel runs probes that need no session concurrently
	Parallel bool
	// OnFinding is called as findings arrive; calls are serialized
	OnFinding func(types.ProbeFinding)

	mu sync.Mutex
}

// NeedsAuth reports whether any selected probe depends on a token
func (d *Driver) NeedsAuth() bool {
	for _, p := range d.Probes {
		if p.NeedsAuth() {
			return true
		}
	}
	return false
}

// Run executes the probes. Independent probes run first (concurrently when
// Parallel is set), then session-dependent probes one at a time. Findings are
// returned in selection order. If ctx is cancelled the findings gathered so
// far are returned with ctx.Err().
func (d *Driver) Run(ctx context.Context, env Env) ([]types.ProbeFinding, error) {
	slots := make([][]types.ProbeFinding, len(d.Probes))

	var independent, dependent []int
	for i, p := range d.Probes {
		if p.NeedsAuth() {
			dependent = append(dependent, i)
		} else {
			independent = append(independent, i)
		}
	}

	if d.Parallel && len(independent) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		for _, i := range independent {
			i := i
			g.Go(func() error {
				slots[i] = d.runOne(gctx, d.Probes[i], env)
				return gctx.Err()
			})
		}
		// A non-nil result is always a cancellation; session probes are skipped
		if err := g.Wait(); err != nil {
			return flatten(slots), err
		}
	} else {
		for _, i := range independent {
			if ctx.Err() != nil {
				break
			}
			slots[i] = d.runOne(ctx, d.Probes[i], env)
		}
	}

	for _, i := range dependent {
		if ctx.Err() != nil {
			break
		}
		slots[i] = d.runOne(ctx, d.Probes[i], env)
	}

	return flatten(slots), ctx.Err()
}

func flatten(slots [][]types.ProbeFinding) []types.ProbeFinding {
	var findings []types.ProbeFinding
	for _, s := range slots {
		findings = append(findings, s...)
	}
	return findings
}

func (d *Driver) runOne(ctx context.Context, p Probe, env Env) []types.ProbeFinding {
	findings := p.Run(ctx, env)
	if d.OnFinding != nil {
		d.mu.Lock()
		for _, f := range findings {
			d.OnFinding(f)
		}
		d.mu.Unlock()
	}
	return findings
}
