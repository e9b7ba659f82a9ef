// Package loader parses declarative test-case documents
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/su1ph3r/vigil/pkg/types"
)

// Format is the encoding of a tests document
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Errors
var (
	ErrMalformedInput = errors.New("malformed test case input")
	ErrFileNotFound   = errors.New("file not found")
)

// MalformedInputError identifies the offending entry of a tests document.
// Index is -1 for document-level problems.
type MalformedInputError struct {
	Index  int
	Name   string
	Fields []string // Missing required fields
	Reason string
}

func (e *MalformedInputError) Error() string {
	var where string
	switch {
	case e.Index < 0:
		where = "document"
	case e.Name != "":
		where = fmt.Sprintf("test #%d (%q)", e.Index+1, e.Name)
	default:
		where = fmt.Sprintf("test #%d", e.Index+1)
	}

	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: missing required field(s): %s", where, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("%s: %s", where, e.Reason)
}

func (e *MalformedInputError) Unwrap() error {
	return ErrMalformedInput
}

// document is the on-disk shape: {"tests": [...]}
type document struct {
	Tests *[]json.RawMessage `json:"tests"`
}

// entry mirrors one test object. Pointers distinguish absent from zero.
type entry struct {
	Name           *string           `json:"name"`
	Method         *string           `json:"method"`
	Endpoint       *string           `json:"endpoint"`
	Body           json.RawMessage   `json:"body"`
	Headers        map[string]string `json:"headers"`
	ExpectedStatus *int              `json:"expected_status"`
	Auth           *bool             `json:"auth"`
}

// DetectFormat picks the format from the file extension
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads and parses a tests document
func Load(path string) ([]types.TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read tests file: %w", err)
	}
	return Parse(data, DetectFormat(path))
}

// Parse parses a tests document. Cases are returned in declaration order.
func Parse(data []byte, format Format) ([]types.TestCase, error) {
	if format == FormatYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, &MalformedInputError{Index: -1, Reason: err.Error()}
		}
		data = converted
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &MalformedInputError{Index: -1, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if doc.Tests == nil {
		return nil, &MalformedInputError{Index: -1, Reason: `missing "tests" list`}
	}

	cases := make([]types.TestCase, 0, len(*doc.Tests))
	for i, raw := range *doc.Tests {
		tc, err := parseEntry(i, raw)
		if err != nil {
			return nil, err
		}
		cases = append(cases, tc)
	}

	return cases, nil
}

func parseEntry(index int, raw json.RawMessage) (types.TestCase, error) {
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return types.TestCase{}, &MalformedInputError{
			Index:  index,
			Name:   peekName(raw),
			Reason: fmt.Sprintf("invalid test entry: %v", err),
		}
	}

	var name string
	if e.Name != nil {
		name = *e.Name
	}

	var missing []string
	if e.Method == nil || *e.Method == "" {
		missing = append(missing, "method")
	}
	if e.Endpoint == nil || *e.Endpoint == "" {
		missing = append(missing, "endpoint")
	}
	if e.ExpectedStatus == nil {
		missing = append(missing, "expected_status")
	}
	if len(missing) > 0 {
		return types.TestCase{}, &MalformedInputError{Index: index, Name: name, Fields: missing}
	}

	if !types.IsValidMethod(*e.Method) {
		return types.TestCase{}, &MalformedInputError{
			Index:  index,
			Name:   name,
			Reason: fmt.Sprintf("unrecognized HTTP method %q", *e.Method),
		}
	}
	if !types.IsValidStatus(*e.ExpectedStatus) {
		return types.TestCase{}, &MalformedInputError{
			Index:  index,
			Name:   name,
			Reason: fmt.Sprintf("expected_status %d is not a valid HTTP status", *e.ExpectedStatus),
		}
	}

	tc := types.TestCase{
		Name:           name,
		Method:         strings.ToUpper(*e.Method),
		Endpoint:       *e.Endpoint,
		Headers:        e.Headers,
		ExpectedStatus: *e.ExpectedStatus,
	}
	if e.Auth != nil {
		tc.RequiresAuth = *e.Auth
	}
	if body := bytes.TrimSpace(e.Body); len(body) > 0 && !bytes.Equal(body, []byte("null")) {
		tc.Body = compact(body)
	}

	return tc, nil
}

// peekName recovers the name of an entry that failed to decode
func peekName(raw json.RawMessage) string {
	var probe struct {
		Name string `json:"name"`
	}
	json.Unmarshal(raw, &probe)
	return probe.Name
}

func compact(body []byte) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return json.RawMessage(body)
	}
	return json.RawMessage(buf.Bytes())
}

// yamlToJSON re-encodes a YAML document as JSON so both formats share one
// validation path
func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %v", err)
	}
	normalized, err := normalizeYAML(doc)
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalized)
}

// normalizeYAML converts map[interface{}]interface{} nodes, which
// encoding/json cannot marshal, into map[string]interface{}
func normalizeYAML(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			n, err := normalizeYAML(item)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			n, err := normalizeYAML(item)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = n
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			n, err := normalizeYAML(item)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	default:
		return val, nil
	}
}

// Encode renders cases as a tests document
func Encode(cases []types.TestCase, format Format) ([]byte, error) {
	type outEntry struct {
		Name           string            `json:"name" yaml:"name"`
		Method         string            `json:"method" yaml:"method"`
		Endpoint       string            `json:"endpoint" yaml:"endpoint"`
		Body           interface{}       `json:"body,omitempty" yaml:"body,omitempty"`
		Headers        map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
		ExpectedStatus int               `json:"expected_status" yaml:"expected_status"`
		Auth           bool              `json:"auth,omitempty" yaml:"auth,omitempty"`
	}
	type outDoc struct {
		Tests []outEntry `json:"tests" yaml:"tests"`
	}

	doc := outDoc{Tests: make([]outEntry, 0, len(cases))}
	for _, tc := range cases {
		e := outEntry{
			Name:           tc.Name,
			Method:         tc.Method,
			Endpoint:       tc.Endpoint,
			Headers:        tc.Headers,
			ExpectedStatus: tc.ExpectedStatus,
			Auth:           tc.RequiresAuth,
		}
		if tc.HasBody() {
			var body interface{}
			if err := json.Unmarshal(tc.Body, &body); err != nil {
				return nil, fmt.Errorf("test %q: invalid body: %w", tc.Name, err)
			}
			e.Body = body
		}
		doc.Tests = append(doc.Tests, e)
	}

	if format == FormatYAML {
		return yaml.Marshal(doc)
	}
	return json.MarshalIndent(doc, "", "  ")
}
