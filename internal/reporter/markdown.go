package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/su1ph3r/vigil/pkg/types"
)

// WriteResultsMarkdown writes results as a Markdown table followed by totals
func WriteResultsMarkdown(w io.Writer, results []types.TestResult) error {
	fmt.Fprintf(w, "# Test Run\n\n")

	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}

	fmt.Fprintf(w, "| Metric | Value |\n")
	fmt.Fprintf(w, "|--------|-------|\n")
	fmt.Fprintf(w, "| Total | %d |\n", len(results))
	fmt.Fprintf(w, "| Passed | %d |\n", passed)
	fmt.Fprintf(w, "| Failed | %d |\n", len(results)-passed)
	fmt.Fprintf(w, "\n")

	if len(results) == 0 {
		fmt.Fprintf(w, "_No test cases were run._\n")
		return nil
	}

	fmt.Fprintf(w, "## Results\n\n")
	fmt.Fprintf(w, "| # | Test | Request | Expected | Actual | Result |\n")
	fmt.Fprintf(w, "|---|------|---------|----------|--------|--------|\n")
	for i, r := range results {
		outcome := "PASS"
		if !r.Passed {
			outcome = "**FAIL**"
		}
		actual := fmt.Sprintf("%d", r.ActualStatus)
		if r.TransportFailed() {
			actual = "no response"
		}
		fmt.Fprintf(w, "| %d | %s | `%s %s` | %d | %s | %s |\n",
			i+1, escapeCell(r.Name), r.Method, escapeCell(r.Endpoint), r.ExpectedStatus, actual, outcome)
	}
	fmt.Fprintf(w, "\n")

	return nil
}

// WriteReportMarkdown writes a probe report grouped by severity, most severe
// first
func WriteReportMarkdown(w io.Writer, report *types.ProbeReport) error {
	summary := report.Summary
	if summary == nil {
		summary = types.NewProbeSummary(report.Findings)
	}

	fmt.Fprintf(w, "# Probe Report\n\n")
	fmt.Fprintf(w, "| Metric | Value |\n")
	fmt.Fprintf(w, "|--------|-------|\n")
	fmt.Fprintf(w, "| Target | `%s` |\n", report.Target)
	fmt.Fprintf(w, "| Run ID | `%s` |\n", report.RunID)
	fmt.Fprintf(w, "| Start Time | %s |\n", report.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "| Duration | %s |\n", report.Duration)
	fmt.Fprintf(w, "| ok / warn / fail | %d / %d / %d |\n", summary.OK, summary.Warn, summary.Fail)
	fmt.Fprintf(w, "\n")

	if len(report.Findings) == 0 {
		fmt.Fprintf(w, "_No probes were run._\n")
		return nil
	}

	for _, severity := range []string{types.SeverityFail, types.SeverityWarn, types.SeverityOK} {
		var group []types.ProbeFinding
		for _, f := range report.Findings {
			if f.Severity == severity {
				group = append(group, f)
			}
		}
		if len(group) == 0 {
			continue
		}

		fmt.Fprintf(w, "## %s (%d)\n\n", strings.ToUpper(severity), len(group))
		fmt.Fprintf(w, "| Scenario | Request | Statuses | Message |\n")
		fmt.Fprintf(w, "|----------|---------|----------|---------|\n")
		for _, f := range group {
			request := ""
			if f.Endpoint != "" {
				request = fmt.Sprintf("`%s %s`", f.Method, escapeCell(f.Endpoint))
			}
			fmt.Fprintf(w, "| %s | %s | %s | %s |\n",
				f.Scenario, request, formatStatuses(f.Statuses), escapeCell(TruncateString(f.Message, 300)))
		}
		fmt.Fprintf(w, "\n")
	}

	return nil
}

func formatStatuses(statuses []int) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = fmt.Sprintf("%d", s)
	}
	return strings.Join(parts, ", ")
}

// escapeCell keeps table cells on one line and out of the column syntax
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return oneLine(s)
}
