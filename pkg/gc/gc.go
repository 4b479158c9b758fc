// Package gc implements garbage collection over the object store: given the
// set of hashes still referenced by any stage record the caller cares
// about, every unreferenced object on disk is removed. Grounded on spec's
// description of C10 and on DVC's gc.py enumerate-then-prune structure.
package gc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashtrail/hashtrail/pkg/filesystem"
	"github.com/hashtrail/hashtrail/pkg/hashing"
	"github.com/hashtrail/hashtrail/pkg/hashinfo"
)

// Result summarizes a completed collection run.
type Result struct {
	// Removed is the number of object files deleted.
	Removed int
	// Kept is the number of object files found live and left in place.
	Kept int
}

// Collect removes every object beneath storeRoot (laid out as
// storeRoot/<digest[:2]>/<digest[2:]>, with directory objects carrying the
// hashing.DirSuffix suffix on their bare digest for enumeration purposes)
// whose reconstructed HashInfo is absent from live. It acquires the
// repository's process lock for the duration of the sweep, so that no
// concurrent writer can be staging a new reference to an object this pass
// is about to delete.
//
// live should be built by the caller from every stage record across every
// revision the caller wants to retain; a HashInfo absent from the store
// that live still names is not an error here — only a failed enumeration
// (a directory we cannot read) aborts the sweep before anything is
// deleted.
func Collect(repoRoot, storeRoot string, algorithm hashing.Algorithm, live map[hashinfo.HashInfo]bool) (Result, error) {
	locker, err := filesystem.AcquireRepoLock(repoRoot, true)
	if err != nil {
		return Result{}, fmt.Errorf("unable to acquire repository lock: %w", err)
	}
	defer locker.Unlock()
	defer locker.Close()

	candidates, err := enumerate(storeRoot, algorithm)
	if err != nil {
		return Result{}, fmt.Errorf("unable to enumerate object store: %w", err)
	}

	// Match on identity (algorithm and bare digest) rather than on the
	// HashInfo value itself, whose Size/EntryCount pointers differ between
	// otherwise identical values.
	liveKeys := make(map[string]bool, len(live))
	for info, keep := range live {
		if keep {
			liveKeys[info.Algorithm+":"+info.BareDigest()] = true
		}
	}

	var result Result
	for _, candidate := range candidates {
		if liveKeys[candidate.info.Algorithm+":"+candidate.info.BareDigest()] {
			result.Kept++
			continue
		}
		if err := os.Remove(candidate.path); err != nil && !os.IsNotExist(err) {
			return result, fmt.Errorf("unable to remove object %s: %w", candidate.path, err)
		}
		result.Removed++
	}

	return result, nil
}

type candidate struct {
	info hashinfo.HashInfo
	path string
}

// enumerate walks the two-character fan-out directories of the store and
// reconstructs a candidate HashInfo for every regular file found, without
// attempting to distinguish file objects from directory (tree) objects by
// content — only the on-disk digest layout determines that, via the
// .dir-suffixed companion entries a directory checkout may have produced.
func enumerate(storeRoot string, algorithm hashing.Algorithm) ([]candidate, error) {
	prefixes, err := os.ReadDir(storeRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var candidates []candidate
	for _, prefixEntry := range prefixes {
		if !prefixEntry.IsDir() || len(prefixEntry.Name()) != 2 {
			continue
		}
		prefix := prefixEntry.Name()
		prefixDir := filepath.Join(storeRoot, prefix)

		entries, err := os.ReadDir(prefixDir)
		if err != nil {
			return nil, fmt.Errorf("unable to read %s: %w", prefixDir, err)
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			bareDigest := prefix + strings.TrimSuffix(name, hashing.DirSuffix)
			info := hashinfo.ForFile(algorithm.String(), bareDigest, 0)
			if strings.HasSuffix(name, hashing.DirSuffix) {
				info = hashinfo.ForDirectory(algorithm.String(), bareDigest, 0, 0)
			}
			candidates = append(candidates, candidate{info: info, path: filepath.Join(prefixDir, name)})
		}
	}

	return candidates, nil
}
