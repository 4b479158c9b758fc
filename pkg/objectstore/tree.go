package objectstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/hashtrail/hashtrail/pkg/hashing"
	"github.com/hashtrail/hashtrail/pkg/hashinfo"
	"github.com/hashtrail/hashtrail/pkg/objectpath"
)

// TreeEntry is a single row of a directory's canonical serialization: a
// relative path paired with the HashInfo of the file or nested directory at
// that path.
type TreeEntry struct {
	RelPath objectpath.Path   `json:"relpath"`
	Hash    hashinfo.HashInfo `json:"hash"`
}

// treeObjectEntry mirrors TreeEntry but with a flattened hash encoding. The
// encoder writes {relpath, digest, alg, size}; the md5 field is never set
// by EncodeTree and is not read by DecodeTree.
type treeObjectEntry struct {
	RelPath string `json:"relpath"`
	MD5     string `json:"md5,omitempty"`
	Digest  string `json:"digest,omitempty"`
	Alg     string `json:"alg,omitempty"`
	Size    uint64 `json:"size,omitempty"`
}

// EncodeTree serializes entries into the canonical on-disk form of a tree
// object: a sorted-by-relpath JSON array, with no added whitespace, so
// that two directories with identical contents always produce byte-identical
// tree objects regardless of traversal order.
func EncodeTree(entries []TreeEntry) ([]byte, error) {
	sorted := make([]TreeEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].RelPath < sorted[j].RelPath
	})

	wire := make([]treeObjectEntry, len(sorted))
	for i, e := range sorted {
		wire[i] = treeObjectEntry{
			RelPath: string(e.RelPath),
			Alg:     e.Hash.Algorithm,
			Digest:  e.Hash.Digest,
		}
		if e.Hash.Size != nil {
			wire[i].Size = *e.Hash.Size
		}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(wire); err != nil {
		return nil, fmt.Errorf("unable to encode tree object: %w", err)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// DecodeTree parses a tree object's canonical serialization back into
// entries, in the sorted order in which they were stored.
func DecodeTree(data []byte) ([]TreeEntry, error) {
	var wire []treeObjectEntry
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("unable to decode tree object: %w", err)
	}

	entries := make([]TreeEntry, len(wire))
	for i, w := range wire {
		relPath, err := objectpath.New(w.RelPath)
		if err != nil {
			return nil, fmt.Errorf("invalid relpath %q in tree object: %w", w.RelPath, err)
		}
		size := w.Size
		entries[i] = TreeEntry{
			RelPath: relPath,
			Hash:    hashinfo.ForFile(w.Alg, w.Digest, size),
		}
	}

	return entries, nil
}

// PutTree serializes entries and stores the resulting tree object, returning
// its HashInfo with the directory suffix applied.
func (s *Store) PutTree(entries []TreeEntry) (hashinfo.HashInfo, error) {
	encoded, err := EncodeTree(entries)
	if err != nil {
		return hashinfo.HashInfo{}, err
	}

	fileInfo, err := s.Put(bytes.NewReader(encoded))
	if err != nil {
		return hashinfo.HashInfo{}, fmt.Errorf("unable to store tree object: %w", err)
	}

	return hashinfo.ForDirectory(fileInfo.Algorithm, fileInfo.BareDigest(), uint64(len(encoded)), len(entries)), nil
}

// PutTreeEntries adapts a hashing pipeline's flat DirEntry list into tree
// entries and stores them, satisfying the hashing.Store interface without
// requiring the hashing package to import objectstore.
func (s *Store) PutTreeEntries(entries []hashing.DirEntry) (hashinfo.HashInfo, error) {
	treeEntries := make([]TreeEntry, len(entries))
	for i, e := range entries {
		relPath, err := objectpath.New(e.RelPath)
		if err != nil {
			return hashinfo.HashInfo{}, fmt.Errorf("invalid relpath %q: %w", e.RelPath, err)
		}
		treeEntries[i] = TreeEntry{RelPath: relPath, Hash: e.Hash}
	}
	return s.PutTree(treeEntries)
}

// LoadTree reads and decodes the tree object identified by info, which must
// have IsDir() true.
func (s *Store) LoadTree(info hashinfo.HashInfo) ([]TreeEntry, error) {
	if !info.IsDir() {
		return nil, fmt.Errorf("hash %s does not identify a directory", info.Digest)
	}

	f, err := s.Open(info)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("unable to read tree object: %w", err)
	}

	return DecodeTree(data)
}
