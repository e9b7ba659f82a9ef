// Package types provides core data structures for vigil
package types

import (
	"encoding/json"
	"strings"
	"time"
)

// TestCase is one declarative request/expected-status check
type TestCase struct {
	Name           string            `json:"name" yaml:"name"`
	Method         string            `json:"method" yaml:"method"`
	Endpoint       string            `json:"endpoint" yaml:"endpoint"`
	Body           json.RawMessage   `json:"body,omitempty" yaml:"-"` // nil means no request body
	Headers        map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	ExpectedStatus int               `json:"expected_status" yaml:"expected_status"`
	RequiresAuth   bool              `json:"auth,omitempty" yaml:"auth,omitempty"`
}

// HasBody reports whether the case sends a request body
func (tc TestCase) HasBody() bool {
	return len(tc.Body) > 0
}

// TestResult is the outcome of executing one TestCase
type TestResult struct {
	Name           string
	Method         string
	Endpoint       string
	ExpectedStatus int
	ActualStatus   int // 0 when no response was received
	ResponseBody   string
	Passed         bool

	Error    string        // Transport error, if any
	Duration time.Duration
	Request  *HTTPRequest // As sent, URL relative to the base URL
}

// TransportFailed reports whether no HTTP response was obtained
func (r TestResult) TransportFailed() bool {
	return r.ActualStatus == 0
}

// RunSummary provides statistics about a declarative run
type RunSummary struct {
	Total           int           `json:"total"`
	Passed          int           `json:"passed"`
	Failed          int           `json:"failed"`
	TransportErrors int           `json:"transport_errors"`
	Duration        time.Duration `json:"duration"`
}

// HTTP methods accepted in test cases
var testCaseMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"PATCH":   true,
	"OPTIONS": true,
	"HEAD":    true,
}

// IsValidMethod validates that a method string is a recognized HTTP verb
func IsValidMethod(method string) bool {
	return testCaseMethods[strings.ToUpper(method)]
}

// IsValidStatus reports whether code is a three-digit HTTP status
func IsValidStatus(code int) bool {
	return code >= 100 && code <= 599
}
