// Package objectstore implements the content-addressed object store: the
// on-disk home for every file and directory snapshot, keyed purely by
// digest.
package objectstore

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashtrail/hashtrail/pkg/filesystem"
	"github.com/hashtrail/hashtrail/pkg/hashing"
	"github.com/hashtrail/hashtrail/pkg/hashinfo"
	"github.com/hashtrail/hashtrail/pkg/logging"
	"github.com/hashtrail/hashtrail/pkg/must"
	"github.com/hashtrail/hashtrail/pkg/stream"
)

// Store satisfies hashing.Store, letting the hashing pipeline depend only on
// the narrow interface rather than this package (which itself depends on
// hashing for its algorithm).
var _ hashing.Store = (*Store)(nil)

// ErrNotFound is returned when a requested object is absent from the store.
var ErrNotFound = errors.New("object not found")

// ErrCorrupt is returned by Verify when a stored object's content does not
// match its digest.
var ErrCorrupt = errors.New("object corrupt")

const (
	writeBufferSize = 64 * 1024

	stagingDirectoryName = "staging"
)

// Store is a two-character fan-out, digest-addressed object store rooted at
// a single directory: store_root/<digest[:2]>/<digest[2:]>. It is grounded
// on the teacher's staging store, adapted from path+content addressing
// (appropriate for transient staging, where two payloads with the same
// content but different destinations must not collide) to pure content
// addressing (appropriate for a permanent store, where identical content
// should always collapse to one object).
type Store struct {
	root      string
	algorithm hashing.Algorithm
	protected bool

	hasherPool sync.Pool

	prefixLock   sync.RWMutex
	prefixExists [256]bool
	initialized  bool

	logger *logging.Logger
}

// New creates a store rooted at root using algorithm as its default content
// hasher for writes performed via Put. When protected is true (the default
// per spec.md §6), finalized objects are made read-only (0o444) so that
// nothing but the store itself can modify cached content out from under a
// hardlinked or reflinked checkout.
func New(root string, algorithm hashing.Algorithm, protected bool, logger *logging.Logger) *Store {
	return &Store{
		root:      root,
		algorithm: algorithm,
		protected: protected,
		hasherPool: sync.Pool{
			New: func() any {
				return algorithm.Factory()()
			},
		},
		logger: logger,
	}
}

func isLowerCaseHexCharacter(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f')
}

func parsePrefixDirectoryName(name string) (byte, bool) {
	if len(name) != 2 || !isLowerCaseHexCharacter(name[0]) || !isLowerCaseHexCharacter(name[1]) {
		return 0, false
	}
	var result [1]byte
	if n, err := hex.Decode(result[:], []byte(name)); n != 1 || err != nil {
		return 0, false
	}
	return result[0], true
}

// Initialize prepares the store root for use, discovering existing prefix
// directories so that later Exists/Get calls can short-circuit. It must be
// called once before any other Store method.
func (s *Store) Initialize() error {
	if s.initialized {
		return nil
	}

	var existed bool
	if err := os.Mkdir(s.root, 0700); err != nil {
		if errors.Is(err, fs.ErrExist) {
			metadata, statErr := os.Lstat(s.root)
			if statErr != nil {
				return fmt.Errorf("unable to query existing store root: %w", statErr)
			} else if !metadata.IsDir() {
				return errors.New("store root exists and is not a directory")
			}
			existed = true
		} else {
			return fmt.Errorf("unable to create store root: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Join(s.root, stagingDirectoryName), 0700); err != nil {
		return fmt.Errorf("unable to create staging directory: %w", err)
	}

	s.prefixExists = [256]bool{}
	if existed {
		contents, err := os.ReadDir(s.root)
		if err != nil {
			return fmt.Errorf("unable to read existing store root contents: %w", err)
		}
		for _, content := range contents {
			p, ok := parsePrefixDirectoryName(content.Name())
			if !ok {
				continue
			} else if !content.IsDir() {
				return fmt.Errorf("non-directory content with prefix name (%s) found in store root", content.Name())
			}
			s.prefixExists[p] = true
		}
	}

	s.initialized = true
	return nil
}

// target computes the on-disk path for a bare (non-directory-suffixed)
// lowercase hex digest.
func (s *Store) target(bareDigest string) (string, string, error) {
	if len(bareDigest) < 2 {
		return "", "", fmt.Errorf("digest too short: %q", bareDigest)
	}
	prefix := bareDigest[:2]
	return filepath.Join(s.root, prefix, bareDigest[2:]), prefix, nil
}

// Exists reports whether the store contains an object for the given
// HashInfo.
func (s *Store) Exists(info hashinfo.HashInfo) (bool, error) {
	if !s.initialized {
		return false, errors.New("store uninitialized")
	}

	bareDigest := info.BareDigest()
	if bareDigest == "" {
		return false, fmt.Errorf("empty digest")
	}

	target, prefix, err := s.target(bareDigest)
	if err != nil {
		return false, err
	}
	prefixIndex, ok := parsePrefixDirectoryName(prefix)
	if !ok {
		return false, nil
	}

	s.prefixLock.RLock()
	prefixExists := s.prefixExists[prefixIndex]
	s.prefixLock.RUnlock()
	if !prefixExists {
		return false, nil
	}

	metadata, err := os.Lstat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("unable to query object: %w", err)
	}
	return metadata.Mode()&fs.ModeType == 0, nil
}

// Path returns the on-disk location for the given HashInfo. It does not
// verify that the object exists.
func (s *Store) Path(info hashinfo.HashInfo) (string, error) {
	target, _, err := s.target(info.BareDigest())
	return target, err
}

// Open opens the object identified by info for reading.
func (s *Store) Open(info hashinfo.HashInfo) (*os.File, error) {
	target, err := s.Path(info)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("unable to open object: %w", err)
	}
	return f, nil
}

// Put streams the content of r into the store, computing its digest with
// the store's configured algorithm, and returns the resulting HashInfo. If
// an object with the same digest already exists, the staged copy is
// discarded rather than overwriting it, since the content is by definition
// identical.
func (s *Store) Put(r io.Reader) (hashinfo.HashInfo, error) {
	if !s.initialized {
		return hashinfo.HashInfo{}, errors.New("store uninitialized")
	}

	stagingDir := filepath.Join(s.root, stagingDirectoryName)
	temp, err := os.CreateTemp(stagingDir, "obj")
	if err != nil {
		return hashinfo.HashInfo{}, fmt.Errorf("unable to create staging file: %w", err)
	}
	tempRemoved := false
	defer func() {
		if !tempRemoved {
			must.OSRemove(temp.Name(), s.logger)
		}
	}()

	hasher := s.hasherPool.Get().(hash.Hash)
	hasher.Reset()
	defer s.hasherPool.Put(hasher)

	hashedWriter := stream.NewHashedWriter(temp, hasher)
	buffered := bufio.NewWriterSize(hashedWriter, writeBufferSize)

	var size uint64
	counted := io.TeeReader(r, byteCounter{&size})
	if _, err := io.Copy(buffered, counted); err != nil {
		temp.Close()
		return hashinfo.HashInfo{}, fmt.Errorf("unable to write object content: %w", err)
	}
	if err := buffered.Flush(); err != nil {
		temp.Close()
		return hashinfo.HashInfo{}, fmt.Errorf("unable to flush object content: %w", err)
	}
	if err := temp.Close(); err != nil {
		return hashinfo.HashInfo{}, fmt.Errorf("unable to close staged object: %w", err)
	}

	digestBytes := hasher.Sum(nil)
	if len(digestBytes) == 0 {
		return hashinfo.HashInfo{}, fmt.Errorf("hasher produced empty digest")
	}
	bareDigest := hex.EncodeToString(digestBytes)

	target, prefix, err := s.target(bareDigest)
	if err != nil {
		return hashinfo.HashInfo{}, err
	}

	prefixIndex, _ := parsePrefixDirectoryName(prefix)

	s.prefixLock.Lock()
	if !s.prefixExists[prefixIndex] {
		if err := os.Mkdir(filepath.Join(s.root, prefix), 0700); err != nil && !os.IsExist(err) {
			s.prefixLock.Unlock()
			return hashinfo.HashInfo{}, fmt.Errorf("unable to create prefix directory (%s): %w", prefix, err)
		}
		s.prefixExists[prefixIndex] = true
	}
	s.prefixLock.Unlock()

	if err := filesystem.Move(temp.Name(), target); err != nil {
		return hashinfo.HashInfo{}, fmt.Errorf("unable to commit object: %w", err)
	}
	tempRemoved = true

	if s.protected {
		if err := os.Chmod(target, 0o444); err != nil {
			return hashinfo.HashInfo{}, fmt.Errorf("unable to protect object: %w", err)
		}
	}

	return hashinfo.ForFile(s.algorithm.String(), bareDigest, size), nil
}

// byteCounter is an io.Writer that only counts bytes, used to measure Put's
// input size alongside the hashed/buffered write path.
type byteCounter struct {
	total *uint64
}

func (b byteCounter) Write(p []byte) (int, error) {
	*b.total += uint64(len(p))
	return len(p), nil
}

// Verify re-reads the object identified by info and confirms that its
// content still hashes to the recorded digest. If the object is marked
// read-only, it is trusted without rehashing: nothing but the store itself
// (via Put) can have written it, and Put always hands back a correct digest.
// On a digest mismatch, the corrupt object is deleted so that the next
// reader sees ErrNotFound rather than silently reading stale or tampered
// content, and ErrCorrupt is returned to the caller that caught it.
func (s *Store) Verify(info hashinfo.HashInfo) error {
	target, err := s.Path(info)
	if err != nil {
		return err
	}

	metadata, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("unable to stat object: %w", err)
	}
	if metadata.Mode().Perm()&0o200 == 0 {
		return nil
	}

	f, err := s.Open(info)
	if err != nil {
		return err
	}
	defer must.Close(f, s.logger)

	var algorithm hashing.Algorithm
	if err := algorithm.UnmarshalText([]byte(info.Algorithm)); err != nil {
		return fmt.Errorf("unable to resolve hash algorithm %q: %w", info.Algorithm, err)
	}

	hasher := algorithm.Factory()()
	if _, err := io.Copy(hasher, f); err != nil {
		return fmt.Errorf("unable to read object for verification: %w", err)
	}

	if hex.EncodeToString(hasher.Sum(nil)) != info.BareDigest() {
		must.OSRemove(target, s.logger)
		return ErrCorrupt
	}
	return nil
}
