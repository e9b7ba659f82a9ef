package reporter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/su1ph3r/vigil/pkg/types"
)

const (
	resultsSheet  = "Results"
	findingsSheet = "Findings"

	failFillColor = "FFC7CE"
	warnFillColor = "FFEB9C"

	// Excel rejects longer cell strings
	maxCellChars = 32767
)

var resultHeaders = []string{"test_name", "method", "endpoint", "expected_status", "actual_status", "passed", "response_body"}

var findingHeaders = []string{"scenario", "severity", "method", "endpoint", "statuses", "message"}

// writeResultsWorkbook writes results to a new workbook. Failed rows are
// filled red and a summary block follows the table.
func writeResultsWorkbook(path string, results []types.TestResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := writeHeaderRow(f, resultsSheet, resultHeaders); err != nil {
		return err
	}
	f.SetColWidth(resultsSheet, "A", "A", 32)
	f.SetColWidth(resultsSheet, "C", "C", 28)
	f.SetColWidth(resultsSheet, "G", "G", 60)

	failStyle, err := fillStyle(f, failFillColor)
	if err != nil {
		return err
	}

	for i, r := range results {
		row := i + 2
		cells := []interface{}{
			r.Name,
			r.Method,
			r.Endpoint,
			r.ExpectedStatus,
			r.ActualStatus,
			r.Passed,
			TruncateString(r.ResponseBody, maxCellChars),
		}
		style := 0
		if !r.Passed {
			style = failStyle
		}
		if err := writeRow(f, resultsSheet, row, cells, style); err != nil {
			return err
		}
	}

	passed := 0
	transport := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
		if r.TransportFailed() {
			transport++
		}
	}

	start := len(results) + 3
	summary := []string{
		"Summary",
		fmt.Sprintf("Total: %d", len(results)),
		fmt.Sprintf("Passed: %d", passed),
		fmt.Sprintf("Failed: %d", len(results)-passed),
		fmt.Sprintf("Transport errors: %d", transport),
	}
	for i, line := range summary {
		f.SetCellValue(resultsSheet, fmt.Sprintf("A%d", start+i), line)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// writeFindingsWorkbook writes a probe report to a new workbook. warn rows
// are filled yellow and fail rows red.
func writeFindingsWorkbook(path string, report *types.ProbeReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", findingsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := writeHeaderRow(f, findingsSheet, findingHeaders); err != nil {
		return err
	}
	f.SetColWidth(findingsSheet, "A", "A", 28)
	f.SetColWidth(findingsSheet, "D", "D", 28)
	f.SetColWidth(findingsSheet, "F", "F", 80)

	warnStyle, err := fillStyle(f, warnFillColor)
	if err != nil {
		return err
	}
	failStyle, err := fillStyle(f, failFillColor)
	if err != nil {
		return err
	}

	for i, finding := range report.Findings {
		statuses := make([]string, len(finding.Statuses))
		for j, s := range finding.Statuses {
			statuses[j] = strconv.Itoa(s)
		}
		cells := []interface{}{
			finding.Scenario,
			finding.Severity,
			finding.Method,
			finding.Endpoint,
			strings.Join(statuses, ","),
			TruncateString(finding.Message, maxCellChars),
		}

		style := 0
		switch finding.Severity {
		case types.SeverityWarn:
			style = warnStyle
		case types.SeverityFail:
			style = failStyle
		}
		if err := writeRow(f, findingsSheet, i+2, cells, style); err != nil {
			return err
		}
	}

	summary := report.Summary
	if summary == nil {
		summary = types.NewProbeSummary(report.Findings)
	}
	start := len(report.Findings) + 3
	lines := []string{
		fmt.Sprintf("Run: %s", report.RunID),
		fmt.Sprintf("Target: %s", report.Target),
		fmt.Sprintf("ok: %d  warn: %d  fail: %d", summary.OK, summary.Warn, summary.Fail),
	}
	for i, line := range lines {
		f.SetCellValue(findingsSheet, fmt.Sprintf("A%d", start+i), line)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	cells := make([]interface{}, len(headers))
	for i, h := range headers {
		cells[i] = h
	}
	return writeRow(f, sheet, 1, cells, bold)
}

func writeRow(f *excelize.File, sheet string, row int, cells []interface{}, style int) error {
	for i, value := range cells {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
		if style != 0 {
			f.SetCellStyle(sheet, cell, cell, style)
		}
	}
	return nil
}

func fillStyle(f *excelize.File, color string) (int, error) {
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{color},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create style: %w", err)
	}
	return style, nil
}
