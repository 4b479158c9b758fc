package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hashtrail/hashtrail/cmd"
	"github.com/hashtrail/hashtrail/pkg/gc"
	"github.com/hashtrail/hashtrail/pkg/hashinfo"
)

func gcMain(command *cobra.Command, arguments []string) error {
	repo, err := openRepository("")
	if err != nil {
		return err
	}
	defer repo.Close()

	live := make(map[hashinfo.HashInfo]bool, len(gcConfiguration.keep))
	for _, digest := range gcConfiguration.keep {
		live[hashinfo.ForFile(repo.algorithm.String(), digest, 0)] = true
		live[hashinfo.ForDirectory(repo.algorithm.String(), digest, 0, 0)] = true
	}

	result, err := gc.Collect(repo.root, repo.objectsDir, repo.algorithm, live)
	if err != nil {
		return fmt.Errorf("garbage collection failed: %w", err)
	}

	fmt.Printf("Removed %d object(s), kept %d\n", result.Removed, result.Kept)
	return nil
}

var gcCommand = &cobra.Command{
	Use:   "gc",
	Short: "Remove objects not reachable from a set of kept digests",
	Args:  cobra.NoArgs,
	Run:   cmd.Mainify(gcMain),
}

var gcConfiguration struct {
	keep []string
}

func init() {
	flags := gcCommand.Flags()
	flags.SortFlags = false
	flags.StringSliceVar(&gcConfiguration.keep, "keep", nil, "Digest to keep (may be specified multiple times)")
}
