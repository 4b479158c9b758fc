// Package checkout materializes recorded outputs into the working tree: it
// diffs a working-tree path against its recorded identity, removes stale
// content (safely, with confirmation when content would otherwise be lost),
// materializes objects back out of the store under a link policy, and
// aggregates per-output failures into a single error. Grounded directly on
// DVC's dvc/checkout.py.
package checkout

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hashtrail/hashtrail/pkg/change"
	"github.com/hashtrail/hashtrail/pkg/contextutil"
	"github.com/hashtrail/hashtrail/pkg/hashing"
	"github.com/hashtrail/hashtrail/pkg/hashinfo"
	"github.com/hashtrail/hashtrail/pkg/hashtrailerr"
	"github.com/hashtrail/hashtrail/pkg/linkpolicy"
	"github.com/hashtrail/hashtrail/pkg/objectstore"
	"github.com/hashtrail/hashtrail/pkg/prompt"
	"github.com/hashtrail/hashtrail/pkg/statecache"
)

// Output is a single stage output to reconcile against the working tree. A
// zero-value Hash (empty Digest) means the output is not (or no longer)
// tracked, and any existing path should simply be removed.
type Output struct {
	Path string
	Hash hashinfo.HashInfo
}

// ProgressFunc is invoked once per output passed to Checkout, after that
// output has been processed, with its path and the running/total output
// counts, grounded on the teacher's stream.Auditor callback pattern. Files
// inside a directory output are not reported individually, and outputs
// skipped after cancellation are not reported at all.
type ProgressFunc func(path string, completed, total int)

// Engine wires together the collaborators a checkout needs: the object
// store to materialize from, the state cache to record post-checkout
// identity, the link policy to choose how files are materialized, and an
// optional confirmer for destructive removals of untracked content.
type Engine struct {
	Store          *objectstore.Store
	Cache          *statecache.Cache
	Policy         *linkpolicy.Policy
	Algorithm      hashing.Algorithm
	Ignore         hashing.IgnorePredicate
	MarkerFileName string
	Confirm        prompt.Confirmer

	// Jobs bounds the worker pool used to materialize a directory's
	// entries concurrently; zero selects a small default.
	Jobs int
}

func (e *Engine) jobs() int {
	if e.Jobs > 0 {
		return e.Jobs
	}
	if n := runtime.NumCPU() / 2; n > 1 {
		if n > 4 {
			return 4
		}
		return n
	}
	return 1
}

// Checkout reconciles every output against the working tree. force skips
// the confirm-before-removing-unrecognized-content safeguard; relink
// bypasses the unchanged-skip check and re-materializes every output
// regardless of its current state. Partial failures do not abort the run:
// every output is attempted, and failures are aggregated into a single
// CheckoutError returned at the end. Once ctx is cancelled, the outputs not
// yet reached are recorded as failed without being attempted.
func (e *Engine) Checkout(ctx context.Context, outputs []Output, force, relink bool, progress ProgressFunc) error {
	var failed []string
	total := len(outputs)

	for i, output := range outputs {
		if contextutil.IsCancelled(ctx) {
			failed = append(failed, output.Path)
			continue
		}
		if err := e.checkoutOutput(ctx, output, force, relink); err != nil {
			failed = append(failed, output.Path)
		}
		if progress != nil {
			progress(output.Path, i+1, total)
		}
	}

	if len(failed) > 0 {
		return &hashtrailerr.CheckoutError{Paths: failed}
	}
	return nil
}

func (e *Engine) checkoutOutput(ctx context.Context, output Output, force, relink bool) error {
	if output.Hash.Digest == "" {
		if _, err := os.Lstat(output.Path); err == nil {
			return e.removeSafely(ctx, output.Path, hashinfo.HashInfo{}, force)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("unable to stat %s: %w", output.Path, err)
		}
		return nil
	}

	if !relink {
		changed, err := change.Changed(ctx, output.Path, output.Hash, e.Store, e.Algorithm, e.Ignore, e.MarkerFileName)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
	}

	fullyPresent, err := e.objectFullyExists(output.Hash)
	if err != nil {
		return err
	}
	if !fullyPresent {
		if err := e.removeSafely(ctx, output.Path, output.Hash, force); err != nil {
			return err
		}
		return fmt.Errorf("object for %s: %w", output.Path, hashtrailerr.NotFound)
	}

	if output.Hash.IsDir() {
		if err := e.checkoutDirectory(ctx, output.Path, output.Hash, force); err != nil {
			return err
		}
	} else {
		if err := e.checkoutFile(ctx, output.Path, output.Hash, force); err != nil {
			return err
		}
	}

	return e.saveLink(output.Path)
}

// objectFullyExists reports whether info, and (recursively, for a
// directory) every object it references, is present in the store. A
// directory whose tree object exists but references a missing file-object
// is treated the same as an entirely missing object, per spec.
func (e *Engine) objectFullyExists(info hashinfo.HashInfo) (bool, error) {
	exists, err := e.Store.Exists(info)
	if err != nil {
		return false, err
	}
	if !exists || !info.IsDir() {
		return exists, nil
	}

	entries, err := e.Store.LoadTree(info)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		ok, err := e.objectFullyExists(entry.Hash)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (e *Engine) checkoutFile(ctx context.Context, path string, info hashinfo.HashInfo, force bool) error {
	_, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return e.materialize(path, info)
	} else if err != nil {
		return fmt.Errorf("unable to stat %s: %w", path, err)
	}

	changed, err := change.Changed(ctx, path, info, e.Store, e.Algorithm, e.Ignore, e.MarkerFileName)
	if err != nil {
		return err
	}
	if !changed {
		// Present-matches: nothing to do. A copy-type policy that is also
		// already a plain copy on disk needs no rewrite either way.
		return nil
	}

	if err := e.removeSafely(ctx, path, info, force); err != nil {
		return err
	}
	return e.materialize(path, info)
}

func (e *Engine) materialize(path string, info hashinfo.HashInfo) error {
	source, err := e.Store.Path(info)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("unable to create parent directory for %s: %w", path, err)
	}
	if _, err := e.Policy.Link(source, path); err != nil {
		return fmt.Errorf("unable to materialize %s: %w", path, err)
	}
	return e.saveEntry(path, info)
}

func (e *Engine) saveEntry(path string, info hashinfo.HashInfo) error {
	if e.Cache == nil {
		return nil
	}
	stat, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("unable to stat %s after materialization: %w", path, err)
	}
	inode, modTime, err := statIdentity(path)
	if err != nil {
		return fmt.Errorf("unable to read identity of %s: %w", path, err)
	}
	return e.Cache.Save(inode, uint64(stat.Size()), modTime, info)
}

func (e *Engine) saveLink(path string) error {
	if e.Cache == nil {
		return nil
	}
	inode, modTime, err := statIdentity(path)
	if err != nil {
		return fmt.Errorf("unable to read identity of %s: %w", path, err)
	}
	return e.Cache.SaveLink(path, inode, modTime)
}

// checkoutDirectory materializes every entry of the tree object identified
// by info under path, creating path if absent, then removes any file under
// path that the tree object no longer references.
func (e *Engine) checkoutDirectory(ctx context.Context, path string, info hashinfo.HashInfo, force bool) error {
	if _, err := os.Lstat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("unable to create directory %s: %w", path, err)
		}
	} else if err != nil {
		return fmt.Errorf("unable to stat %s: %w", path, err)
	}

	entries, err := e.Store.LoadTree(info)
	if err != nil {
		return err
	}

	needed := make(map[string]bool, len(entries))
	for _, entry := range entries {
		needed[filepath.Join(path, filepath.FromSlash(string(entry.RelPath)))] = true
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.jobs())
	for _, entry := range entries {
		entry := entry
		entryPath := filepath.Join(path, filepath.FromSlash(string(entry.RelPath)))
		group.Go(func() error {
			if entry.Hash.IsDir() {
				return e.checkoutDirectory(groupCtx, entryPath, entry.Hash, force)
			}
			return e.checkoutFile(groupCtx, entryPath, entry.Hash, force)
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	return e.removeRedundantFiles(ctx, path, needed, force)
}

// removeRedundantFiles removes every file beneath root not present in
// needed, then prunes directories left empty by those removals. Grounded
// on DVC's _remove_redundant_files.
func (e *Engine) removeRedundantFiles(ctx context.Context, root string, needed map[string]bool, force bool) error {
	var redundant []string
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p == root || info.IsDir() {
			return nil
		}
		if !needed[p] {
			redundant = append(redundant, p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("unable to walk %s: %w", root, err)
	}

	for _, p := range redundant {
		if err := e.removeSafely(ctx, p, hashinfo.HashInfo{}, force); err != nil {
			return err
		}
	}

	return pruneEmptyDirectories(root)
}

func pruneEmptyDirectories(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("unable to list %s: %w", root, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sub := filepath.Join(root, entry.Name())
		if err := pruneEmptyDirectories(sub); err != nil {
			return err
		}
		remaining, err := os.ReadDir(sub)
		if err != nil {
			return fmt.Errorf("unable to list %s: %w", sub, err)
		}
		if len(remaining) == 0 {
			if err := os.Remove(sub); err != nil {
				return fmt.Errorf("unable to remove empty directory %s: %w", sub, err)
			}
		}
	}
	return nil
}

// removeSafely removes path. With force, removal is unconditional. Without
// it, an existing path whose current content matches neither any stored
// object nor the recorded hash is treated as locally modified, unrecognized
// content: removal requires confirmation through the injected prompt, and
// declining raises ConfirmRemoveError.
func (e *Engine) removeSafely(ctx context.Context, path string, recorded hashinfo.HashInfo, force bool) error {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("unable to stat %s: %w", path, err)
	}

	if force {
		return os.RemoveAll(path)
	}

	var current hashinfo.HashInfo
	if info.IsDir() {
		current, err = hashing.HashDirectory(ctx, path, e.Store, e.Ignore, e.MarkerFileName, 0)
	} else {
		current, err = hashing.HashFile(path, e.Algorithm)
	}
	if err != nil {
		return fmt.Errorf("unable to compute current hash for %s: %w", path, err)
	}

	matchesStore, err := e.Store.Exists(current)
	if err != nil {
		return err
	}
	matchesRecorded := recorded.Digest != "" && current.Equal(recorded)

	if !matchesStore && !matchesRecorded {
		if e.Confirm == nil {
			return os.RemoveAll(path)
		}
		ok, err := e.Confirm(fmt.Sprintf("%s contains changes that are not cached; remove it?", path))
		if err != nil {
			return fmt.Errorf("unable to confirm removal of %s: %w", path, err)
		}
		if !ok {
			return &hashtrailerr.ConfirmRemoveError{Path: path}
		}
	}

	return os.RemoveAll(path)
}
