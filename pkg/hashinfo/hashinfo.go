// Package hashinfo defines the content-identity value type shared by the
// object store, state cache, and change detector.
package hashinfo

import (
	"strings"

	"github.com/hashtrail/hashtrail/pkg/hashing"
)

// HashInfo identifies the content of a file or directory. Directory digests
// carry the hashing.DirSuffix suffix, which is how IsDir is derived; it is
// never stored as an independent bit so the two can't diverge.
type HashInfo struct {
	// Algorithm is the name of the digest algorithm ("md5", "sha256", ...).
	Algorithm string
	// Digest is the lowercase hex digest, with a trailing hashing.DirSuffix
	// if this HashInfo identifies a directory.
	Digest string
	// Size is the size in bytes of the file, or of the serialized tree
	// object for a directory. Nil when unknown.
	Size *uint64
	// EntryCount is the number of entries transitively contained in a
	// directory. Nil for files.
	EntryCount *int
}

// IsDir reports whether this HashInfo identifies a directory.
func (h HashInfo) IsDir() bool {
	return strings.HasSuffix(h.Digest, hashing.DirSuffix)
}

// BareDigest returns the digest with any directory suffix stripped, which is
// the value actually used to address the object in the store.
func (h HashInfo) BareDigest() string {
	return strings.TrimSuffix(h.Digest, hashing.DirSuffix)
}

// Equal reports whether two HashInfo values identify the same content.
// Size and EntryCount are derived metadata, not part of identity.
func (h HashInfo) Equal(other HashInfo) bool {
	return h.Algorithm == other.Algorithm && h.Digest == other.Digest
}

// Less orders HashInfo values by (Algorithm, Digest), giving a deterministic
// total order for sorted iteration (e.g. tree object serialization, GC
// enumeration output).
func (h HashInfo) Less(other HashInfo) bool {
	if h.Algorithm != other.Algorithm {
		return h.Algorithm < other.Algorithm
	}
	return h.Digest < other.Digest
}

// ForDirectory returns a HashInfo identifying a directory, with the
// directory suffix applied to bareDigest so that IsDir() is true.
func ForDirectory(algorithm, bareDigest string, size uint64, entryCount int) HashInfo {
	return HashInfo{
		Algorithm:  algorithm,
		Digest:     bareDigest + hashing.DirSuffix,
		Size:       &size,
		EntryCount: &entryCount,
	}
}

// ForFile returns a HashInfo identifying a plain file.
func ForFile(algorithm, digest string, size uint64) HashInfo {
	return HashInfo{
		Algorithm: algorithm,
		Digest:    digest,
		Size:      &size,
	}
}
