package reporter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/su1ph3r/vigil/pkg/types"
)

// ConsoleOptions controls terminal output
type ConsoleOptions struct {
	Verbose bool   // Show response bodies and curl commands
	NoColor bool   // Disable ANSI colors
	BaseURL string // Used to render absolute curl commands
}

// Console prints results and findings as they arrive
type Console struct {
	w    io.Writer
	opts ConsoleOptions

	pass *color.Color
	fail *color.Color
	warn *color.Color
	info *color.Color
	bold *color.Color
}

// NewConsole creates a console printer writing to w
func NewConsole(w io.Writer, opts ConsoleOptions) *Console {
	c := &Console{
		w:    w,
		opts: opts,
		pass: color.New(color.FgGreen),
		fail: color.New(color.FgRed),
		warn: color.New(color.FgYellow),
		info: color.New(color.FgCyan),
		bold: color.New(color.Bold),
	}
	if opts.NoColor {
		for _, col := range []*color.Color{c.pass, c.fail, c.warn, c.info, c.bold} {
			col.DisableColor()
		}
	}
	return c
}

// Result prints one completed test case
func (c *Console) Result(index, total int, r types.TestResult) {
	label, col := "PASS", c.pass
	if !r.Passed {
		label, col = "FAIL", c.fail
	}

	col.Fprintf(c.w, "[%s]", label)
	fmt.Fprintf(c.w, " %d/%d %s %s %s", index+1, total, r.Method, r.Endpoint, r.Name)

	switch {
	case r.TransportFailed():
		fmt.Fprintf(c.w, " (expected %d, no response: %s)\n", r.ExpectedStatus, r.Error)
	case r.Passed:
		fmt.Fprintf(c.w, " (%d)\n", r.ActualStatus)
	default:
		fmt.Fprintf(c.w, " (expected %d, got %d)\n", r.ExpectedStatus, r.ActualStatus)
	}

	if !c.opts.Verbose {
		return
	}
	if r.ResponseBody != "" {
		fmt.Fprintf(c.w, "    Body: %s\n", TruncateString(oneLine(r.ResponseBody), 500))
	}
	if r.Request != nil {
		c.info.Fprintf(c.w, "    %s\n", GenerateCurlCommand(c.opts.BaseURL, r.Request))
	}
}

// Summary prints the run totals
func (c *Console) Summary(s types.RunSummary) {
	rule := strings.Repeat("=", 50)
	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, rule)
	c.bold.Fprintln(c.w, "RUN SUMMARY")
	fmt.Fprintln(c.w, rule)
	fmt.Fprintf(c.w, "Total:   %d\n", s.Total)
	c.pass.Fprintf(c.w, "Passed:  %d\n", s.Passed)
	if s.Failed > 0 {
		c.fail.Fprintf(c.w, "Failed:  %d\n", s.Failed)
	} else {
		fmt.Fprintf(c.w, "Failed:  %d\n", s.Failed)
	}
	if s.TransportErrors > 0 {
		c.warn.Fprintf(c.w, "  (%d without a response)\n", s.TransportErrors)
	}
	fmt.Fprintf(c.w, "Time:    %s\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintln(c.w, rule)
}

// Finding prints one probe finding
func (c *Console) Finding(f types.ProbeFinding) {
	var col *color.Color
	switch f.Severity {
	case types.SeverityOK:
		col = c.pass
	case types.SeverityWarn:
		col = c.warn
	default:
		col = c.fail
	}

	col.Fprintf(c.w, "[%s]", strings.ToUpper(f.Severity))
	fmt.Fprintf(c.w, " %s: %s\n", f.Scenario, f.Message)

	if c.opts.Verbose && f.Endpoint != "" {
		fmt.Fprintf(c.w, "    %s %s", f.Method, f.Endpoint)
		if len(f.Statuses) > 0 {
			fmt.Fprintf(c.w, " -> %v", f.Statuses)
		}
		fmt.Fprintln(c.w)
	}
}

// FindingSummary prints finding counts by severity
func (c *Console) FindingSummary(s *types.ProbeSummary) {
	if s == nil {
		return
	}
	rule := strings.Repeat("=", 50)
	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, rule)
	c.bold.Fprintln(c.w, "PROBE SUMMARY")
	fmt.Fprintln(c.w, rule)
	fmt.Fprintf(c.w, "Findings: %d\n", s.Total)
	c.pass.Fprintf(c.w, "  ok:   %d\n", s.OK)
	c.warn.Fprintf(c.w, "  warn: %d\n", s.Warn)
	c.fail.Fprintf(c.w, "  fail: %d\n", s.Fail)
	fmt.Fprintln(c.w, rule)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
