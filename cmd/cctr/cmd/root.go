// Package cmd wires cctr's urfave/cli command surface, grounded on the
// teacher's cmd/tally/cmd package structure (root command + one flag-heavy
// leaf command delegating to the internal packages that do the real work).
package cmd

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/cctr-dev/cctr/internal/version"
)

// Exit codes, mirroring the teacher's documented exit-code constants.
const (
	ExitSuccess     = 0 // every test passed or was skipped
	ExitFailure     = 1 // a test failed, or a suite hit a setup/fixture error
	ExitParseError  = 1 // a corpus or config file failed to parse (same code as ExitFailure)
	ExitInterrupted = 130 // the run was interrupted (a second interrupt exits at once)
)

// NewApp builds the cctr CLI application.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:    "cctr",
		Usage:   "Run a corpus of plain-text command tests",
		Version: version.Version(),
		Description: `cctr runs declarative command tests written as plain text: a command to
run, and the output and exit code it should produce.

Examples:
  cctr ./testdata
  cctr --pattern json ./testdata
  cctr --update ./testdata
  cat mytest.txt | cctr -`,
		ArgsUsage: "[TEST_ROOT]",
		Flags:     runFlags(),
		Action:    runAction,
	}
}

// Execute runs the CLI application against os.Args.
func Execute() error {
	return NewApp().Run(context.Background(), os.Args)
}
