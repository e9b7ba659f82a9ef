package reporter

import (
	"encoding/json"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/su1ph3r/vigil/pkg/types"
)

// ResultRecord is the persisted shape of one test result
type ResultRecord struct {
	TestName       string `json:"test_name" yaml:"test_name"`
	Method         string `json:"method" yaml:"method"`
	Endpoint       string `json:"endpoint" yaml:"endpoint"`
	ExpectedStatus int    `json:"expected_status" yaml:"expected_status"`
	ActualStatus   int    `json:"actual_status" yaml:"actual_status"`
	ResponseBody   string `json:"response_body" yaml:"response_body"`
}

// NewResultRecord converts a result to its persisted shape
func NewResultRecord(r types.TestResult) ResultRecord {
	return ResultRecord{
		TestName:       r.Name,
		Method:         r.Method,
		Endpoint:       r.Endpoint,
		ExpectedStatus: r.ExpectedStatus,
		ActualStatus:   r.ActualStatus,
		ResponseBody:   r.ResponseBody,
	}
}

func records(results []types.TestResult) []ResultRecord {
	out := make([]ResultRecord, 0, len(results))
	for _, r := range results {
		out = append(out, NewResultRecord(r))
	}
	return out
}

// EncodeResultsJSON renders results as an indented JSON array. An empty run
// encodes as [].
func EncodeResultsJSON(results []types.TestResult) ([]byte, error) {
	data, err := json.MarshalIndent(records(results), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// EncodeResultsYAML renders results as a YAML sequence
func EncodeResultsYAML(results []types.TestResult) ([]byte, error) {
	return yaml.Marshal(records(results))
}

// reportOutput formats times for humans and keeps field order stable
type reportOutput struct {
	RunID     string               `json:"run_id" yaml:"run_id"`
	Target    string               `json:"target" yaml:"target"`
	StartTime string               `json:"start_time" yaml:"start_time"`
	EndTime   string               `json:"end_time" yaml:"end_time"`
	Duration  string               `json:"duration" yaml:"duration"`
	Summary   *types.ProbeSummary  `json:"summary" yaml:"summary"`
	Findings  []types.ProbeFinding `json:"findings" yaml:"findings"`
}

func prepareReport(report *types.ProbeReport) reportOutput {
	findings := report.Findings
	if findings == nil {
		findings = []types.ProbeFinding{}
	}
	summary := report.Summary
	if summary == nil {
		summary = types.NewProbeSummary(findings)
	}
	return reportOutput{
		RunID:     report.RunID,
		Target:    report.Target,
		StartTime: report.StartTime.Format(time.RFC3339),
		EndTime:   report.EndTime.Format(time.RFC3339),
		Duration:  report.Duration.String(),
		Summary:   summary,
		Findings:  findings,
	}
}

// EncodeReportJSON renders a probe report as indented JSON
func EncodeReportJSON(report *types.ProbeReport) ([]byte, error) {
	data, err := json.MarshalIndent(prepareReport(report), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// EncodeReportYAML renders a probe report as YAML
func EncodeReportYAML(report *types.ProbeReport) ([]byte, error) {
	return yaml.Marshal(prepareReport(report))
}
