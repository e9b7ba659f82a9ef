package main

import (
	"fmt"
	"io"

	"github.com/su1ph3r/vigil/internal/executor"
)

// attachRequestLog opens the request log at path and attaches it to exec.
// The returned func closes the log; call it once the run is over. An empty
// path attaches nothing.
func attachRequestLog(exec *executor.HTTPExecutor, path, runID string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}

	logger, err := executor.NewRequestLogger(path, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to open request log: %w", err)
	}
	exec.SetLogger(logger)
	printInfo("Logging requests to %s", path)

	return func() { closeWithWarning(logger, "request log") }, nil
}

// closeWithWarning closes c and reports a failure without aborting the run
func closeWithWarning(c io.Closer, what string) {
	if err := c.Close(); err != nil {
		printWarning("Failed to write %s: %v", what, err)
	}
}
