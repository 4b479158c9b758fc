package housekeeping

import (
	"os"
	"path/filepath"
	"time"

	"github.com/hashtrail/hashtrail/pkg/filesystem"
	"github.com/hashtrail/hashtrail/pkg/logging"
	"github.com/hashtrail/hashtrail/pkg/must"
)

const (
	// maximumStagingAge is the maximum allowed age for a leftover staging
	// temporary file in the object store before it is considered abandoned by
	// a crashed writer and removed.
	maximumStagingAge = 24 * time.Hour

	// stagingDirectoryName is the name of the object store's staging
	// subdirectory, in which objects are written before being renamed into
	// their content-addressed location.
	stagingDirectoryName = "staging"
)

// Housekeep performs janitorial cleanup of a repository's metadata
// directory. It is intended to be invoked by the external caller between
// operations (for example before or after a checkout or garbage collection
// run), not as a background daemon.
func Housekeep(repoRoot string, logger *logging.Logger) {
	housekeepStaging(repoRoot, logger)
}

// housekeepStaging removes staging temporary files abandoned by a writer
// that crashed or was killed before it could rename its output into place.
func housekeepStaging(repoRoot string, logger *logging.Logger) {
	stagingPath, err := filesystem.RepoDataDirectory(repoRoot, false, filesystem.RepoObjectsDirectoryName, stagingDirectoryName)
	if err != nil {
		return
	}

	contents, err := filesystem.DirectoryContentsByPath(stagingPath)
	if err != nil {
		return
	}

	now := time.Now()
	for _, c := range contents {
		fullPath := filepath.Join(stagingPath, c.Name())
		info, err := os.Stat(fullPath)
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > maximumStagingAge {
			must.OSRemove(fullPath, logger)
		}
	}
}
