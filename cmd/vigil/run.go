package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/su1ph3r/vigil/internal/executor"
	"github.com/su1ph3r/vigil/internal/loader"
	"github.com/su1ph3r/vigil/internal/reporter"
	"github.com/su1ph3r/vigil/internal/runner"
	"github.com/su1ph3r/vigil/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run declarative test cases against an API",
	Long: `Run executes the test cases of a JSON or YAML document in order, one
request at a time, and records the actual status of every response next to
the expected one. A successful login response populates the session token
used by later cases that require auth.`,
	RunE: runTests,
}

func init() {
	runCmd.Flags().StringP("tests", "t", "", "Test case file (.json, .yaml)")
	runCmd.Flags().StringP("output", "o", "", "Results file (.json, .yaml, .xlsx, .md)")
	runCmd.Flags().Duration("delay", 0, "Pause between test cases")
	runCmd.Flags().String("request-log", "", "Write a JSON log of every request/response pair")
}

func applyRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	if flags.Changed("tests") {
		config.Run.TestsFile, _ = flags.GetString("tests")
	}
	if flags.Changed("output") {
		config.Run.OutputFile, _ = flags.GetString("output")
	}
	if flags.Changed("delay") {
		config.Run.Delay, _ = flags.GetDuration("delay")
	}
	if flags.Changed("request-log") {
		config.Run.RequestLog, _ = flags.GetString("request-log")
	}
}

func runTests(cmd *cobra.Command, args []string) error {
	applyGlobalFlags(cmd)
	applyRunFlags(cmd)

	if errs := types.NewConfigValidator().ValidateRun(config); errs.HasErrors() {
		return errs
	}

	cases, err := loader.Load(config.Run.TestsFile)
	if err != nil {
		return err
	}

	printBanner()
	printInfo("Target: %s", config.Target.BaseURL)
	printInfo("Loaded %d test cases from %s", len(cases), config.Run.TestsFile)

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

	sink := reporter.NewSink(config.Run.OutputFile)
	console := reporter.NewConsole(os.Stdout, reporter.ConsoleOptions{
		Verbose: config.Output.Verbose,
		NoColor: !config.Output.Color,
		BaseURL: config.Target.BaseURL,
	})

	r := runner.New(exec, runner.Options{
		LoginEndpoint: config.Auth.LoginEndpoint,
		TokenField:    config.Auth.TokenField,
		Delay:         config.Run.Delay,
		OnResult: func(index int, result types.TestResult) {
			sink.Record(result)
			console.Result(index, len(cases), result)
		},
		OnDiagnostic: func(message string) {
			printWarning("%s", message)
		},
	})

	ctx, cancel := signalContext()
	defer cancel()

	results, runErr := r.Run(ctx, cases, executor.NewSession())

	console.Summary(runner.Summarize(results))

	if err := sink.Flush(); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	printSuccess("Results saved to: %s", sink.Path())

	if runner.Unreachable(results) {
		return fmt.Errorf("%w: %s: %s", runner.ErrUnreachable, config.Target.BaseURL, results[0].Error)
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("run interrupted after %d of %d cases: %w", len(results), len(cases), runErr)
		}
		return runErr
	}

	return nil
}
