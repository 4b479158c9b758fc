package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hashtrail/hashtrail/pkg/hashtrail"
)

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(command *cobra.Command, arguments []string) {
		fmt.Println(hashtrail.Version)
	},
}
