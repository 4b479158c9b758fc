package hashing

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/hashtrail/hashtrail/pkg/hashinfo"
)

// ErrIgnoreFileInCollectedDir is returned when the walk encounters the
// ignore filter's marker file nested inside a directory already being
// collected for hashing, which would make the collected snapshot dependent
// on a file whose entire purpose is to be excluded from snapshots.
var ErrIgnoreFileInCollectedDir = fmt.Errorf("ignore file found in collected directory")

// DirEntry is a single file discovered while walking a directory for
// hashing, paired with its computed identity. It is the unit Store.
// implementations serialize into a tree object.
type DirEntry struct {
	RelPath string
	Hash    hashinfo.HashInfo
}

// Store is the subset of object store behavior the hashing pipeline needs:
// storing raw file content and storing a directory's entry list as a tree
// object. It is satisfied by *objectstore.Store.
type Store interface {
	Put(r io.Reader) (hashinfo.HashInfo, error)
	PutTreeEntries(entries []DirEntry) (hashinfo.HashInfo, error)
}

// IgnorePredicate reports whether relPath (relative to the directory being
// hashed) should be excluded from the snapshot.
type IgnorePredicate func(relPath string, isDir bool) bool

// Jobs bounds the number of files hashed concurrently. It defaults to
// max(1, min(4, NumCPU/2)) when zero, matching the teacher's modest default
// worker pool sizing for local disk I/O bound work.
func defaultJobs(jobs int) int {
	if jobs > 0 {
		return jobs
	}
	n := runtime.NumCPU() / 2
	if n < 1 {
		n = 1
	}
	if n > 4 {
		n = 4
	}
	return n
}

// HashDirectory walks root, hashing every non-ignored file concurrently and
// assembling the result into a directory HashInfo stored via store. It
// returns ErrIgnoreFileInCollectedDir if the ignore filter's marker file
// name is encountered anywhere beneath root.
func HashDirectory(ctx context.Context, root string, store Store, ignore IgnorePredicate, markerFileName string, jobs int) (hashinfo.HashInfo, error) {
	type walkedFile struct {
		relPath string
		absPath string
	}

	var files []walkedFile
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if ignore != nil && ignore(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if markerFileName != "" && info.Name() == markerFileName {
			return ErrIgnoreFileInCollectedDir
		}
		if ignore != nil && ignore(relPath, false) {
			return nil
		}

		files = append(files, walkedFile{relPath: relPath, absPath: path})
		return nil
	})
	if err != nil {
		return hashinfo.HashInfo{}, err
	}

	entries := make([]DirEntry, len(files))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(defaultJobs(jobs))

	for i, file := range files {
		i, file := i, file
		group.Go(func() error {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			default:
			}

			f, err := os.Open(file.absPath)
			if err != nil {
				return fmt.Errorf("unable to open %s: %w", file.relPath, err)
			}
			defer f.Close()

			hashInfo, err := store.Put(f)
			if err != nil {
				return fmt.Errorf("unable to store %s: %w", file.relPath, err)
			}

			entries[i] = DirEntry{RelPath: file.relPath, Hash: hashInfo}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return hashinfo.HashInfo{}, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RelPath < entries[j].RelPath
	})

	treeInfo, err := store.PutTreeEntries(entries)
	if err != nil {
		return hashinfo.HashInfo{}, fmt.Errorf("unable to store directory tree: %w", err)
	}

	return treeInfo, nil
}
