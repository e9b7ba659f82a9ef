package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/su1ph3r/vigil/internal/executor"
	"github.com/su1ph3r/vigil/internal/probes"
	"github.com/su1ph3r/vigil/internal/reporter"
	"github.com/su1ph3r/vigil/pkg/types"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Run security and robustness probes against an API",
	Long: `Probe runs the configured security scenarios and grades each outcome as
ok, warn or fail. fail means the scenario could not be evaluated, for example
because the target did not answer or no session token was available.

Available probes: unauth, idor, injection, tampered-token, rate-limit,
content-type, cors, security-headers`,
	RunE: runProbes,
}

func init() {
	probeCmd.Flags().StringSlice("enable", []string{}, "Probes to run (empty = all)")
	probeCmd.Flags().StringSlice("disable", []string{}, "Probes to skip")
	probeCmd.Flags().Bool("parallel", false, "Run probes that need no session concurrently")
	probeCmd.Flags().StringP("output", "o", "", "Findings file (.json, .yaml, .xlsx, .md)")
	probeCmd.Flags().String("request-log", "", "Write a JSON log of every request/response pair")
}

func applyProbeFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	if flags.Changed("enable") {
		config.Probes.Enabled, _ = flags.GetStringSlice("enable")
	}
	if flags.Changed("disable") {
		config.Probes.Disabled, _ = flags.GetStringSlice("disable")
	}
	if flags.Changed("parallel") {
		config.Probes.Parallel, _ = flags.GetBool("parallel")
	}
	if flags.Changed("output") {
		config.Probes.OutputFile, _ = flags.GetString("output")
	}
	if flags.Changed("request-log") {
		config.Run.RequestLog, _ = flags.GetString("request-log")
	}
}

func runProbes(cmd *cobra.Command, args []string) error {
	applyGlobalFlags(cmd)
	applyProbeFlags(cmd)

	selected, err := probes.NewRegistry(config).Select(config.Probes.Enabled, config.Probes.Disabled)
	if err != nil {
		return err
	}
	names := make([]string, len(selected))
	for i, p := range selected {
		names[i] = p.Name()
	}

	if errs := types.NewConfigValidator().ValidateProbe(config, names); errs.HasErrors() {
		return errs
	}
	if config.Probes.OutputFile == "" {
		return fmt.Errorf("%w: probes.output_file is required", types.ErrConfiguration)
	}

	printBanner()
	printInfo("Target: %s", config.Target.BaseURL)
	printInfo("Probes: %v", names)

	exec, err := executor.New(config.Target.BaseURL, config.HTTP)
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	closeLog, err := attachRequestLog(exec, config.Run.RequestLog, runID)
	if err != nil {
		return err
	}
	defer closeLog()

	sink := reporter.NewSink(config.Probes.OutputFile)
	console := reporter.NewConsole(os.Stdout, reporter.ConsoleOptions{
		Verbose: config.Output.Verbose,
		NoColor: !config.Output.Color,
		BaseURL: config.Target.BaseURL,
	})

	driver := &probes.Driver{
		Probes:   selected,
		Parallel: config.Probes.Parallel,
		OnFinding: func(f types.ProbeFinding) {
			sink.RecordFinding(f)
			console.Finding(f)
		},
	}

	ctx, cancel := signalContext()
	defer cancel()

	session := executor.NewSession()
	if driver.NeedsAuth() {
		printInfo("Logging in at %s", config.Auth.LoginEndpoint)
		if err := probes.Authenticate(ctx, exec, session, config.Auth); err != nil {
			printWarning("Login failed, session probes will report fail: %v", err)
		} else {
			printSuccess("Session token captured")
		}
	}

	startTime := time.Now()
	_, runErr := driver.Run(ctx, probes.Env{Exec: exec, Session: session})
	endTime := time.Now()

	report := &types.ProbeReport{
		RunID:     runID,
		Target:    config.Target.BaseURL,
		StartTime: startTime,
		EndTime:   endTime,
		Duration:  endTime.Sub(startTime),
	}
	if err := sink.FlushFindings(report, sink.Path()); err != nil {
		return fmt.Errorf("failed to write findings: %w", err)
	}

	console.FindingSummary(report.Summary)
	printSuccess("Findings saved to: %s", sink.Path())

	if runErr != nil {
		return fmt.Errorf("probe run interrupted: %w", runErr)
	}
	return nil
}
