package probes

import (
	"context"
	"fmt"
	"strings"

	"github.com/su1ph3r/vigil/internal/executor"
	"github.com/su1ph3r/vigil/pkg/types"
)

// ContentTypeProbe sends a JSON body first without a Content-Type header and
// then with a wrong one. Both should be rejected.
type ContentTypeProbe struct {
	Method    string
	Endpoint  string
	Body      string
	WrongType string
}

func (p *ContentTypeProbe) Name() string    { return types.ProbeContentType }
func (p *ContentTypeProbe) NeedsAuth() bool { return false }

func (p *ContentTypeProbe) Run(ctx context.Context, env Env) []types.ProbeFinding {
	method := strings.ToUpper(p.Method)
	if method == "" {
		method = "POST"
	}
	wrongType := p.WrongType
	if wrongType == "" {
		wrongType = "text/plain"
	}
	body := []byte(p.Body)
	if len(body) == 0 {
		body = []byte("{}")
	}

	missing, err := env.Exec.Execute(ctx, executor.Request{
		Method:          method,
		Path:            p.Endpoint,
		Body:            body,
		OmitContentType: true,
	})
	if err != nil {
		return []types.ProbeFinding{transportFinding(p.Name(), method, p.Endpoint, err)}
	}

	wrong, err := env.Exec.Execute(ctx, executor.Request{
		Method:  method,
		Path:    p.Endpoint,
		Body:    body,
		Headers: map[string]string{"Content-Type": wrongType},
	})
	if err != nil {
		return []types.ProbeFinding{transportFinding(p.Name(), method, p.Endpoint, err)}
	}

	severity := ClassifyContentType(missing.StatusCode, wrong.StatusCode)
	msg := fmt.Sprintf("missing Content-Type got %d, %s got %d", missing.StatusCode, wrongType, wrong.StatusCode)
	if severity == types.SeverityOK {
		msg = "rejected " + msg
	} else {
		msg = "accepted non-JSON request: " + msg
	}

	return []types.ProbeFinding{newFinding(p.Name(), severity, msg, method, p.Endpoint, missing.StatusCode, wrong.StatusCode)}
}
