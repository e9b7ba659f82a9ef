// Package reporter persists run results and probe findings and prints them
// to the terminal
package reporter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/su1ph3r/vigil/pkg/types"
)

// Format is an output file format
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXLSX Format = "xlsx"
	FormatMD   Format = "md"
)

// FormatFor picks the output format from the destination extension.
// Unknown extensions fall back to JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".xlsx":
		return FormatXLSX
	case ".md", ".markdown":
		return FormatMD
	default:
		return FormatJSON
	}
}

// Sink accumulates results in insertion order and writes them on Flush
type Sink struct {
	mu       sync.Mutex
	path     string
	results  []types.TestResult
	findings []types.ProbeFinding
}

// NewSink creates a sink writing to path
func NewSink(path string) *Sink {
	return &Sink{path: path}
}

// Path returns the destination of Flush
func (s *Sink) Path() string {
	return s.path
}

// Record appends a test result
func (s *Sink) Record(result types.TestResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
}

// RecordFinding appends a probe finding
func (s *Sink) RecordFinding(finding types.ProbeFinding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findings = append(s.findings, finding)
}

// Results returns a copy of the recorded results
func (s *Sink) Results() []types.TestResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.TestResult, len(s.results))
	copy(out, s.results)
	return out
}

// Findings returns a copy of the recorded findings
func (s *Sink) Findings() []types.ProbeFinding {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.ProbeFinding, len(s.findings))
	copy(out, s.findings)
	return out
}

// Flush writes all recorded results to the sink's path, replacing any
// previous content
func (s *Sink) Flush() error {
	results := s.Results()

	if err := ensureDir(s.path); err != nil {
		return err
	}

	switch FormatFor(s.path) {
	case FormatXLSX:
		return writeResultsWorkbook(s.path, results)
	case FormatMD:
		var buf bytes.Buffer
		if err := WriteResultsMarkdown(&buf, results); err != nil {
			return err
		}
		return writeFile(s.path, buf.Bytes())
	case FormatYAML:
		data, err := EncodeResultsYAML(results)
		if err != nil {
			return err
		}
		return writeFile(s.path, data)
	default:
		data, err := EncodeResultsJSON(results)
		if err != nil {
			return err
		}
		return writeFile(s.path, data)
	}
}

// FlushFindings writes a probe report to path. Findings recorded on the sink
// replace report.Findings and the summary is recomputed.
func (s *Sink) FlushFindings(report *types.ProbeReport, path string) error {
	if report == nil {
		report = &types.ProbeReport{}
	}
	if findings := s.Findings(); len(findings) > 0 {
		report.Findings = findings
	}
	report.Summary = types.NewProbeSummary(report.Findings)

	if err := ensureDir(path); err != nil {
		return err
	}

	switch FormatFor(path) {
	case FormatXLSX:
		return writeFindingsWorkbook(path, report)
	case FormatMD:
		var buf bytes.Buffer
		if err := WriteReportMarkdown(&buf, report); err != nil {
			return err
		}
		return writeFile(path, buf.Bytes())
	case FormatYAML:
		data, err := EncodeReportYAML(report)
		if err != nil {
			return err
		}
		return writeFile(path, data)
	default:
		data, err := EncodeReportJSON(report)
		if err != nil {
			return err
		}
		return writeFile(path, data)
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// TruncateString truncates a string to max length
func TruncateString(s string, maxLen int) string {
	if maxLen <= 3 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
