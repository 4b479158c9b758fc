package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hashtrail/hashtrail/cmd"
	"github.com/hashtrail/hashtrail/pkg/filesystem"
	"github.com/hashtrail/hashtrail/pkg/hashinfo"
	"github.com/hashtrail/hashtrail/pkg/hashing"
	"github.com/hashtrail/hashtrail/pkg/ignore"
)

func addMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return fmt.Errorf("exactly one path is required")
	}
	path := arguments[0]

	repo, err := openRepository("")
	if err != nil {
		return err
	}
	defer repo.Close()

	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("unable to stat %s: %w", path, err)
	}

	matcher, err := ignore.NewMatcher(filepath.Dir(path), filesystem.RepoDataDirectoryName)
	if err != nil {
		return fmt.Errorf("unable to construct ignore matcher: %w", err)
	}
	ignorePredicate := func(relPath string, isDir bool) bool {
		ignored, err := matcher.Ignored(relPath, isDir)
		return err == nil && ignored
	}

	var hash hashinfo.HashInfo
	if info.IsDir() {
		hash, err = hashing.HashDirectory(context.Background(), path, repo.store, ignorePredicate, ignore.IgnoreFileName, repo.config.Core.ChecksumJobs)
		if err != nil {
			return fmt.Errorf("unable to hash directory: %w", err)
		}
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("unable to open %s: %w", path, err)
		}
		hash, err = repo.store.Put(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("unable to store %s: %w", path, err)
		}
	}

	fmt.Printf("%s  %s\n", hash.Digest, path)
	return nil
}

var addCommand = &cobra.Command{
	Use:   "add <path>",
	Short: "Hash a file or directory and store it in the object store",
	Args:  cobra.ExactArgs(1),
	Run:   cmd.Mainify(addMain),
}
