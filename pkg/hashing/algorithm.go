// Package hashing provides the digest algorithms used to compute content
// identity for files and directories.
package hashing

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"hash"

	"github.com/zeebo/xxh3"
)

// Algorithm identifies a digest algorithm supported by the object store.
type Algorithm uint8

const (
	// AlgorithmDefault represents an unspecified algorithm, which resolves to
	// AlgorithmMD5.
	AlgorithmDefault Algorithm = iota
	// AlgorithmMD5 specifies MD5, the default algorithm, chosen for
	// compatibility with pipelines that predate stronger digests.
	AlgorithmMD5
	// AlgorithmSHA1 specifies SHA-1.
	AlgorithmSHA1
	// AlgorithmSHA256 specifies SHA-256.
	AlgorithmSHA256
	// AlgorithmXXH3 specifies the 128-bit XXH3 hash, a fast non-cryptographic
	// digest suitable when content identity only needs to be collision
	// resistant against accidental corruption rather than adversarial attack.
	AlgorithmXXH3
)

// xxh3Hash128 adapts xxh3.Hasher128 to the standard hash.Hash interface,
// which requires a 32-bit-style Sum method emitting raw bytes.
type xxh3Hash128 struct {
	*xxh3.Hasher
}

func newXXH3Hash128() hash.Hash {
	return xxh3Hash128{xxh3.New()}
}

func (h xxh3Hash128) Sum(b []byte) []byte {
	sum := h.Sum128()
	bytes := sum.Bytes()
	return append(b, bytes[:]...)
}

// IsDefault indicates whether the algorithm is AlgorithmDefault.
func (a Algorithm) IsDefault() bool {
	return a == AlgorithmDefault
}

// MarshalText implements encoding.TextMarshaler.
func (a Algorithm) MarshalText() ([]byte, error) {
	var result string
	switch a {
	case AlgorithmDefault:
	case AlgorithmMD5:
		result = "md5"
	case AlgorithmSHA1:
		result = "sha1"
	case AlgorithmSHA256:
		result = "sha256"
	case AlgorithmXXH3:
		result = "xxh3"
	default:
		result = "unknown"
	}
	return []byte(result), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Algorithm) UnmarshalText(textBytes []byte) error {
	switch string(textBytes) {
	case "", "default":
		*a = AlgorithmDefault
	case "md5":
		*a = AlgorithmMD5
	case "sha1":
		*a = AlgorithmSHA1
	case "sha256":
		*a = AlgorithmSHA256
	case "xxh3":
		*a = AlgorithmXXH3
	default:
		return fmt.Errorf("unknown hashing algorithm specification: %s", string(textBytes))
	}
	return nil
}

// Supported indicates whether the algorithm is a valid, non-default value.
func (a Algorithm) Supported() bool {
	switch a {
	case AlgorithmMD5, AlgorithmSHA1, AlgorithmSHA256, AlgorithmXXH3:
		return true
	default:
		return false
	}
}

// Description returns a human-readable description of the algorithm.
func (a Algorithm) Description() string {
	switch a {
	case AlgorithmDefault:
		return "Default"
	case AlgorithmMD5:
		return "MD5"
	case AlgorithmSHA1:
		return "SHA-1"
	case AlgorithmSHA256:
		return "SHA-256"
	case AlgorithmXXH3:
		return "XXH3-128"
	default:
		return "Unknown"
	}
}

// String implements fmt.Stringer.
func (a Algorithm) String() string {
	text, _ := a.MarshalText()
	if len(text) == 0 {
		return "md5"
	}
	return string(text)
}

// Factory returns a constructor for the algorithm's hash.Hash
// implementation. It resolves AlgorithmDefault to AlgorithmMD5 rather than
// panicking, since callers generally want a usable hasher, not a validity
// check (use Supported for that).
func (a Algorithm) Factory() func() hash.Hash {
	switch a {
	case AlgorithmDefault, AlgorithmMD5:
		return md5.New
	case AlgorithmSHA1:
		return sha1.New
	case AlgorithmSHA256:
		return sha256.New
	case AlgorithmXXH3:
		return newXXH3Hash128
	default:
		panic("unknown hashing algorithm")
	}
}

// DirSuffix is appended to a directory's digest to distinguish it from a
// file digest computed under the same algorithm (see hashinfo.HashInfo).
const DirSuffix = ".dir"
