package filesystem

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/hashtrail/hashtrail/pkg/filesystem/locking"
)

const (
	// RepoDataDirectoryName is the name of the per-repository metadata
	// directory, created directly inside the repository root.
	RepoDataDirectoryName = ".hashtrail"

	// RepoLockFileName is the name of the lock file coordinating access to
	// a repository's metadata directory.
	RepoLockFileName = "lock"

	// RepoObjectsDirectoryName is the name of the object store subdirectory
	// within the repository metadata directory.
	RepoObjectsDirectoryName = "objects"

	// RepoStateDirectoryName is the name of the state cache subdirectory
	// within the repository metadata directory.
	RepoStateDirectoryName = "state"

	// RepoConfigurationName is the name of the repository configuration file
	// within the repository metadata directory.
	RepoConfigurationName = "config"
)

// RepoDataDirectory computes (and optionally creates) a subdirectory inside a
// repository's metadata directory, rooted at repoRoot.
func RepoDataDirectory(repoRoot string, create bool, pathComponents ...string) (string, error) {
	base := filepath.Join(repoRoot, RepoDataDirectoryName)
	result := filepath.Join(base, filepath.Join(pathComponents...))

	if create {
		if err := os.MkdirAll(result, 0700); err != nil {
			return "", errors.Wrap(err, "unable to create subpath")
		} else if err := MarkHidden(base); err != nil {
			return "", errors.Wrap(err, "unable to hide repository data directory")
		}
	}

	return result, nil
}

// AcquireRepoLock attempts to acquire the advisory lock coordinating writers
// to a repository's metadata directory, returning a locked file locker.
func AcquireRepoLock(repoRoot string, block bool) (*locking.Locker, error) {
	lockPath, err := RepoDataDirectory(repoRoot, true)
	if err != nil {
		return nil, errors.Wrap(err, "unable to compute repository data directory")
	}
	lockPath = filepath.Join(lockPath, RepoLockFileName)

	locker, err := locking.NewLocker(lockPath, 0600)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create file locker")
	} else if err = locker.Lock(block); err != nil {
		locker.Close()
		return nil, err
	}

	return locker, nil
}
