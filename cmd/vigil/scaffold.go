package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/su1ph3r/vigil/internal/loader"
	"github.com/su1ph3r/vigil/pkg/types"
)

var scaffoldCmd = &cobra.Command{
	Use:   "scaffold",
	Short: "Generate a test case document from an OpenAPI specification",
	Long: `Scaffold writes one test case per OpenAPI operation, using the first 2xx
response as the expected status and request examples as bodies. The login
operation, if present, is placed first so later cases can use its token.`,
	RunE: runScaffold,
}

func init() {
	scaffoldCmd.Flags().StringP("openapi", "s", "", "OpenAPI 3 document (.yaml, .json)")
	scaffoldCmd.Flags().StringP("output", "o", "", "Output file (.json, .yaml); stdout if empty")
	scaffoldCmd.Flags().String("path-value", "1", "Value for path parameters without an example")
	scaffoldCmd.MarkFlagRequired("openapi")
}

func runScaffold(cmd *cobra.Command, args []string) error {
	applyGlobalFlags(cmd)

	specFile, _ := cmd.Flags().GetString("openapi")
	outputFile, _ := cmd.Flags().GetString("output")
	pathValue, _ := cmd.Flags().GetString("path-value")

	if _, err := os.Stat(specFile); err != nil {
		return fmt.Errorf("%w: openapi document %s: %v", types.ErrConfiguration, specFile, err)
	}

	cases, err := loader.FromOpenAPI(specFile, loader.ScaffoldOptions{
		DefaultPathValue: pathValue,
		LoginEndpoint:    config.Auth.LoginEndpoint,
	})
	if err != nil {
		return err
	}

	format := loader.FormatJSON
	if outputFile != "" {
		format = loader.DetectFormat(outputFile)
	}

	data, err := loader.Encode(cases, format)
	if err != nil {
		return fmt.Errorf("failed to encode test cases: %w", err)
	}

	if outputFile == "" {
		_, err := os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputFile, err)
	}
	printSuccess("Wrote %d test cases to %s", len(cases), outputFile)
	return nil
}
