package housekeeping

import (
	"io"
	"testing"

	"github.com/hashtrail/hashtrail/pkg/logging"
)

// TestHousekeep tests that Housekeep succeeds without panicking against an
// empty repository.
func TestHousekeep(t *testing.T) {
	logger := logging.NewLogger(logging.LevelError, io.Discard)
	Housekeep(t.TempDir(), logger)
}

// TestHousekeepStaging tests that housekeepStaging succeeds without
// panicking when no staging directory exists.
func TestHousekeepStaging(t *testing.T) {
	logger := logging.NewLogger(logging.LevelError, io.Discard)
	housekeepStaging(t.TempDir(), logger)
}
