// Package change implements content-hash-based change detection for single
// outputs and whole stage records, consulting the object store (and, for
// directories, the hashing pipeline) to determine whether a path's current
// content still matches a previously recorded identity.
package change

import (
	"context"
	"fmt"
	"os"

	"github.com/hashtrail/hashtrail/pkg/hashing"
	"github.com/hashtrail/hashtrail/pkg/hashinfo"
	"github.com/hashtrail/hashtrail/pkg/objectstore"
)

// Changed implements the four-step algorithm: a missing path, a corrupt
// cache entry, or a differing current hash all report changed; otherwise
// the path is unchanged. Grounded on DVC's checkout._changed.
func Changed(ctx context.Context, path string, recorded hashinfo.HashInfo, store *objectstore.Store, algorithm hashing.Algorithm, ignore hashing.IgnorePredicate, markerFileName string) (bool, error) {
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("unable to stat %s: %w", path, err)
	}

	if err := store.Verify(recorded); err != nil {
		return true, nil
	}

	var current hashinfo.HashInfo
	var err error
	if recorded.IsDir() {
		current, err = hashing.HashDirectory(ctx, path, store, ignore, markerFileName, 0)
	} else {
		current, err = hashing.HashFile(path, algorithm)
	}
	if err != nil {
		return false, fmt.Errorf("unable to compute current hash for %s: %w", path, err)
	}

	return !current.Equal(recorded), nil
}

// Entry is a single output or dependency record within a stage.
type Entry struct {
	Path string
	Hash hashinfo.HashInfo
}

// StageView is the minimal view of an external stage record the change
// detector needs: its outputs, dependencies, always-changed flag, and
// metadata hash. The core does not define the stage record's file layout,
// so callers adapt their own stage type to this interface.
type StageView interface {
	Outputs() []Entry
	Dependencies() []Entry
	AlwaysChanged() bool
	StoredMetadataHash() hashinfo.HashInfo
	CurrentMetadataHash() (hashinfo.HashInfo, error)
}

// StageChanged reports whether any output or dependency of stage has
// changed, the stage is marked always-changed, or the stage's own
// normalized metadata hash no longer matches what was recorded.
func StageChanged(ctx context.Context, stage StageView, store *objectstore.Store, algorithm hashing.Algorithm, ignore hashing.IgnorePredicate, markerFileName string) (bool, error) {
	if stage.AlwaysChanged() {
		return true, nil
	}

	entries := append(append([]Entry{}, stage.Outputs()...), stage.Dependencies()...)
	for _, entry := range entries {
		changed, err := Changed(ctx, entry.Path, entry.Hash, store, algorithm, ignore, markerFileName)
		if err != nil {
			return false, err
		}
		if changed {
			return true, nil
		}
	}

	current, err := stage.CurrentMetadataHash()
	if err != nil {
		return false, fmt.Errorf("unable to compute current stage metadata hash: %w", err)
	}

	return !current.Equal(stage.StoredMetadataHash()), nil
}
