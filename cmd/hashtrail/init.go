package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hashtrail/hashtrail/cmd"
	"github.com/hashtrail/hashtrail/pkg/filesystem"
)

func initMain(command *cobra.Command, arguments []string) error {
	root := "."
	if len(arguments) == 1 {
		root = arguments[0]
	} else if len(arguments) > 1 {
		return fmt.Errorf("too many arguments")
	}

	dataDir, err := filesystem.RepoDataDirectory(root, true)
	if err != nil {
		return fmt.Errorf("unable to create repository data directory: %w", err)
	}

	configPath := filepath.Join(dataDir, filesystem.RepoConfigurationName)
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("repository already initialized at %s", root)
	}
	if err := os.WriteFile(configPath, nil, 0600); err != nil {
		return fmt.Errorf("unable to write default configuration: %w", err)
	}

	fmt.Printf("Initialized empty repository in %s\n", dataDir)
	return nil
}

var initCommand = &cobra.Command{
	Use:   "init [<path>]",
	Short: "Initialize a repository's metadata directory",
	Args:  cobra.MaximumNArgs(1),
	Run:   cmd.Mainify(initMain),
}

func init() {
	initCommand.Flags().SortFlags = false
}
