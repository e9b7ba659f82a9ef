package types

import (
	"strings"
	"time"
)

// ProbeFinding is the outcome of one probe scenario
type ProbeFinding struct {
	Scenario  string    `json:"scenario" yaml:"scenario"`
	Severity  string    `json:"severity" yaml:"severity"` // ok, warn, fail
	Message   string    `json:"message" yaml:"message"`
	Method    string    `json:"method,omitempty" yaml:"method,omitempty"`
	Endpoint  string    `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Statuses  []int     `json:"statuses,omitempty" yaml:"statuses,omitempty"` // Observed status codes, in order
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Severity constants
const (
	SeverityOK   = "ok"
	SeverityWarn = "warn"
	SeverityFail = "fail"
)

// Probe names
const (
	ProbeUnauth          = "unauth"
	ProbeIDOR            = "idor"
	ProbeInjection       = "injection"
	ProbeTamperedToken   = "tampered-token"
	ProbeRateLimit       = "rate-limit"
	ProbeContentType     = "content-type"
	ProbeCORS            = "cors"
	ProbeSecurityHeaders = "security-headers"
)

// AllProbes lists every probe in canonical execution order
var AllProbes = []string{
	ProbeUnauth,
	ProbeIDOR,
	ProbeInjection,
	ProbeTamperedToken,
	ProbeRateLimit,
	ProbeContentType,
	ProbeCORS,
	ProbeSecurityHeaders,
}

// ProbeNeedsAuth reports whether a probe depends on a captured session token
func ProbeNeedsAuth(name string) bool {
	return name == ProbeIDOR || name == ProbeTamperedToken
}

// IsKnownProbe reports whether name is a registered probe
func IsKnownProbe(name string) bool {
	for _, p := range AllProbes {
		if p == name {
			return true
		}
	}
	return false
}

// HTTPRequest represents an HTTP request as it was sent
type HTTPRequest struct {
	Method  string            `json:"method" yaml:"method"`
	URL     string            `json:"url" yaml:"url"`
	Headers map[string]string `json:"headers" yaml:"headers"`
	Body    string            `json:"body,omitempty" yaml:"body,omitempty"`
}

// HTTPResponse represents an HTTP response
type HTTPResponse struct {
	StatusCode    int               `json:"status_code" yaml:"status_code"`
	Status        string            `json:"status" yaml:"status"`
	Headers       map[string]string `json:"headers" yaml:"headers"`
	Body          string            `json:"body" yaml:"body"`
	ContentLength int64             `json:"content_length" yaml:"content_length"`
	ResponseTime  time.Duration     `json:"response_time" yaml:"response_time"`
}

// Header returns a response header value, matching the name case-insensitively
func (r *HTTPResponse) Header(name string) string {
	if r == nil {
		return ""
	}
	if v, ok := r.Headers[name]; ok {
		return v
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// ProbeReport contains the complete probe run
type ProbeReport struct {
	RunID     string         `json:"run_id" yaml:"run_id"`
	Target    string         `json:"target" yaml:"target"`
	StartTime time.Time      `json:"start_time" yaml:"start_time"`
	EndTime   time.Time      `json:"end_time" yaml:"end_time"`
	Duration  time.Duration  `json:"duration" yaml:"duration"`
	Findings  []ProbeFinding `json:"findings" yaml:"findings"`
	Summary   *ProbeSummary  `json:"summary" yaml:"summary"`
}

// ProbeSummary provides counts by severity
type ProbeSummary struct {
	Total int `json:"total" yaml:"total"`
	OK    int `json:"ok" yaml:"ok"`
	Warn  int `json:"warn" yaml:"warn"`
	Fail  int `json:"fail" yaml:"fail"`
}

// NewProbeSummary creates a summary from findings
func NewProbeSummary(findings []ProbeFinding) *ProbeSummary {
	summary := &ProbeSummary{Total: len(findings)}

	for _, f := range findings {
		switch f.Severity {
		case SeverityOK:
			summary.OK++
		case SeverityWarn:
			summary.Warn++
		case SeverityFail:
			summary.Fail++
		}
	}

	return summary
}
