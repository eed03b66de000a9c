package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-import-api/internal/bootstrap"
	"github.com/noah-isme/sma-import-api/pkg/config"
	appErrors "github.com/noah-isme/sma-import-api/pkg/errors"
	"github.com/noah-isme/sma-import-api/pkg/logger"
)

const (
	exitOK      = 0
	exitPartial = 2
	exitUsage   = 3
	exitBackend = 4
)

// cliError carries the process exit code alongside the cause.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *cliError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &cliError{code: exitUsage, err: fmt.Errorf(format, args...)}
}

// classify maps a service error onto an exit code.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce
	}
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		return &cliError{code: exitBackend, err: err}
	}
	return &cliError{code: exitUsage, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	// cobra flag parsing failures
	return exitUsage
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "importctl",
		Short:         "Bulk teacher, student and historical-mark imports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newImportCmd("teachers", "Import teachers from an xlsx workbook"))
	cmd.AddCommand(newImportCmd("students", "Import students and their parents from an xlsx workbook"))
	cmd.AddCommand(newHistoricalMarksCmd())
	cmd.AddCommand(newTemplateCmd())
	cmd.AddCommand(newTokenCmd())
	return cmd
}

func execute() {
	err := newRootCmd().Execute()
	code := exitCode(err)
	if err != nil && code != exitPartial {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}

// withContainer loads configuration, opens the database and hands the wired
// services to fn.
func withContainer(fn func(c *bootstrap.Container) error) error {
	cfg, err := config.Load()
	if err != nil {
		return usageError("load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return usageError("init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	c, err := bootstrap.New(cfg, logr)
	if err != nil {
		logr.Error("failed to initialise dependencies", zap.Error(err))
		return &cliError{code: exitBackend, err: err}
	}
	defer c.Close()
	return fn(c)
}
