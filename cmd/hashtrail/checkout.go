package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hashtrail/hashtrail/cmd"
	"github.com/hashtrail/hashtrail/pkg/checkout"
	"github.com/hashtrail/hashtrail/pkg/hashinfo"
	"github.com/hashtrail/hashtrail/pkg/ignore"
	"github.com/hashtrail/hashtrail/pkg/prompt"
)

func checkoutMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 2 {
		return fmt.Errorf("usage: checkout <path> <digest>")
	}
	path, digest := arguments[0], arguments[1]

	repo, err := openRepository("")
	if err != nil {
		return err
	}
	defer repo.Close()

	hash := hashinfo.ForFile(repo.algorithm.String(), digest, 0)

	var confirmer prompt.Confirmer
	if checkoutConfiguration.force {
		confirmer = prompt.Always(true)
	} else {
		confirmer = prompt.CommandLine(os.Stdin, os.Stdout)
	}

	engine := &checkout.Engine{
		Store:          repo.store,
		Cache:          repo.cache,
		Policy:         repo.policy,
		Algorithm:      repo.algorithm,
		MarkerFileName: ignore.IgnoreFileName,
		Confirm:        confirmer,
	}

	progress := func(p string, completed, total int) {
		fmt.Printf("[%d/%d] %s\n", completed, total, p)
	}

	err = engine.Checkout(context.Background(), []checkout.Output{{Path: path, Hash: hash}}, checkoutConfiguration.force, checkoutConfiguration.relink, progress)
	if err != nil {
		return fmt.Errorf("checkout failed: %w", err)
	}

	return nil
}

var checkoutCommand = &cobra.Command{
	Use:   "checkout <path> <digest>",
	Short: "Materialize a recorded object into the working tree",
	Args:  cobra.ExactArgs(2),
	Run:   cmd.Mainify(checkoutMain),
}

var checkoutConfiguration struct {
	force  bool
	relink bool
}

func init() {
	flags := checkoutCommand.Flags()
	flags.SortFlags = false
	flags.BoolVarP(&checkoutConfiguration.force, "force", "f", false, "Remove conflicting content without confirmation")
	flags.BoolVar(&checkoutConfiguration.relink, "relink", false, "Re-materialize even if unchanged")
}
