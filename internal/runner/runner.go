// Package runner executes declarative test cases in order against a target
package runner

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/su1ph3r/vigil/internal/executor"
	"github.com/su1ph3r/vigil/pkg/types"
)

// ErrUnreachable is returned by callers when the first case of a run could
// not reach the target at all
var ErrUnreachable = errors.New("target unreachable")

// Options configures a Runner
type Options struct {
	// LoginEndpoint is the path whose successful response yields the token
	LoginEndpoint string
	// TokenField is the (dotted) JSON field holding the token
	TokenField string
	// Delay spaces consecutive cases; zero disables pacing
	Delay time.Duration

	// OnResult is called after each case completes
	OnResult func(index int, result types.TestResult)
	// OnDiagnostic receives non-fatal problems such as a failed token capture
	OnDiagnostic func(message string)
}

// Runner executes test cases strictly one after another
type Runner struct {
	exec  executor.Executor
	opts  Options
	pacer *executor.Pacer
}

// New creates a runner
func New(exec executor.Executor, opts Options) *Runner {
	if opts.TokenField == "" {
		opts.TokenField = "token"
	}
	return &Runner{
		exec:  exec,
		opts:  opts,
		pacer: executor.NewPacer(opts.Delay),
	}
}

// Run executes cases in order and returns one result per case, in the same
// order. Assertion mismatches and transport failures are recorded in the
// results and never stop the run. If ctx is cancelled between cases, the
// results collected so far are returned with ctx.Err().
func (r *Runner) Run(ctx context.Context, cases []types.TestCase, session *executor.Session) ([]types.TestResult, error) {
	if session == nil {
		session = executor.NewSession()
	}

	results := make([]types.TestResult, 0, len(cases))
	for i, tc := range cases {
		if err := r.pacer.Wait(ctx); err != nil {
			return results, err
		}

		result := r.runCase(ctx, tc, session)
		results = append(results, result)

		if r.opts.OnResult != nil {
			r.opts.OnResult(i, result)
		}
	}

	return results, nil
}

func (r *Runner) runCase(ctx context.Context, tc types.TestCase, session *executor.Session) types.TestResult {
	headers := r.headersFor(tc, session)

	req := executor.Request{
		Method:  tc.Method,
		Path:    tc.Endpoint,
		Headers: headers,
	}
	if tc.HasBody() {
		req.Body = []byte(tc.Body)
	}

	result := types.TestResult{
		Name:           tc.Name,
		Method:         strings.ToUpper(tc.Method),
		Endpoint:       tc.Endpoint,
		ExpectedStatus: tc.ExpectedStatus,
		Request: &types.HTTPRequest{
			Method:  strings.ToUpper(tc.Method),
			URL:     tc.Endpoint,
			Headers: headers,
			Body:    string(req.Body),
		},
	}

	start := time.Now()
	resp, err := r.exec.Execute(ctx, req)
	result.Duration = time.Since(start)

	if err != nil {
		result.ActualStatus = 0
		result.Passed = false
		result.Error = err.Error()
		return result
	}

	result.ActualStatus = resp.StatusCode
	result.ResponseBody = resp.Body
	result.Passed = resp.StatusCode == tc.ExpectedStatus

	if r.isLogin(tc) && resp.StatusCode == 200 {
		r.captureToken(tc, resp.Body, session)
	}

	return result
}

// headersFor builds the request headers. Authorization is only ever sent for
// cases that require auth.
func (r *Runner) headersFor(tc types.TestCase, session *executor.Session) map[string]string {
	headers := make(map[string]string, len(tc.Headers)+1)
	for k, v := range tc.Headers {
		if strings.EqualFold(k, "Authorization") {
			if !tc.RequiresAuth || session.HasToken() {
				continue
			}
		}
		headers[k] = v
	}

	if tc.RequiresAuth {
		for k, v := range session.AuthHeader() {
			headers[k] = v
		}
	}

	return headers
}

func (r *Runner) isLogin(tc types.TestCase) bool {
	if r.opts.LoginEndpoint == "" {
		return false
	}
	return normalizePath(tc.Endpoint) == normalizePath(r.opts.LoginEndpoint)
}

func (r *Runner) captureToken(tc types.TestCase, body string, session *executor.Session) {
	token, err := executor.ExtractToken(body, r.opts.TokenField)
	if err != nil {
		r.diagnose(fmt.Sprintf("login %q: could not extract token: %v", tc.Name, err))
		return
	}
	if !session.Capture(token) {
		r.diagnose(fmt.Sprintf("login %q: token already captured, keeping the first one", tc.Name))
	}
}

func (r *Runner) diagnose(msg string) {
	if r.opts.OnDiagnostic != nil {
		r.opts.OnDiagnostic(msg)
	}
}

// normalizePath reduces an endpoint to its path, without query string or
// trailing slash
func normalizePath(endpoint string) string {
	path := endpoint
	if u, err := url.Parse(endpoint); err == nil {
		path = u.Path
	} else if i := strings.IndexAny(endpoint, "?#"); i >= 0 {
		path = endpoint[:i]
	}
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	if path == "" {
		path = "/"
	}
	return path
}

// Unreachable reports whether the first case of a run failed in transport,
// meaning the target could not be reached at all
func Unreachable(results []types.TestResult) bool {
	return len(results) > 0 && results[0].TransportFailed()
}

// Summarize counts outcomes
func Summarize(results []types.TestResult) types.RunSummary {
	summary := types.RunSummary{Total: len(results)}
	for _, r := range results {
		summary.Duration += r.Duration
		switch {
		case r.Passed:
			summary.Passed++
		case r.TransportFailed():
			summary.Failed++
			summary.TransportErrors++
		default:
			summary.Failed++
		}
	}
	return summary
}
