// Package cmd provides shared command-line plumbing used by the hashtrail
// CLI's subcommands: warning/error/fatal output and a Cobra entry-point
// adapter. Grounded on the teacher's cmd/error.go and cmd/cobra.go.
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Warning prints a warning message to standard error.
func Warning(message string) {
	fmt.Fprintln(color.Error, color.YellowString("Warning:"), message)
}

// Error prints an error message to standard error.
func Error(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
}

// Fatal prints an error message to standard error and terminates the
// process with a non-zero exit code.
func Fatal(err error) {
	Error(err)
	os.Exit(1)
}

// Mainify wraps a Cobra entry point that returns an error into the standard
// Cobra entry-point signature, so that the entry point can rely on
// defer-based cleanup before the process exits on failure.
func Mainify(entry func(*cobra.Command, []string) error) func(*cobra.Command, []string) {
	return func(command *cobra.Command, arguments []string) {
		if err := entry(command, arguments); err != nil {
			Fatal(err)
		}
	}
}
