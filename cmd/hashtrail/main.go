package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hashtrail/hashtrail/pkg/hashtrail"
)

// rootCommand is the root command.
var rootCommand = &cobra.Command{
	Use:     "hashtrail",
	Version: hashtrail.Version,
	Short:   "hashtrail tracks large files and directories by content hash",
	Run: func(command *cobra.Command, arguments []string) {
		command.Help()
	},
}

func init() {
	// Disable Cobra's command sorting behavior. By default, it sorts commands
	// alphabetically in the help output.
	cobra.EnableCommandSorting = false

	rootCommand.SetVersionTemplate("hashtrail version {{ .Version }}\n")

	flags := rootCommand.Flags()
	flags.SortFlags = false

	rootCommand.AddCommand(
		initCommand,
		addCommand,
		checkoutCommand,
		gcCommand,
		versionCommand,
	)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
