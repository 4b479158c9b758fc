package hashing

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/hashtrail/hashtrail/pkg/hashinfo"
)

func TestHashFileComputesMD5(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "content")
	if err := os.WriteFile(path, []byte("hello, world"), 0600); err != nil {
		t.Fatal(err)
	}

	info, err := HashFile(path, AlgorithmMD5)
	if err != nil {
		t.Fatal(err)
	}

	sum := md5.Sum([]byte("hello, world"))
	expected := hex.EncodeToString(sum[:])
	if info.Digest != expected {
		t.Errorf("expected digest %s, got %s", expected, info.Digest)
	}
	if info.Size == nil || *info.Size != 12 {
		t.Errorf("unexpected size: %+v", info.Size)
	}
	if info.IsDir() {
		t.Error("file hash reported as directory")
	}
}

func TestHashFileMissing(t *testing.T) {
	if _, err := HashFile(filepath.Join(t.TempDir(), "missing"), AlgorithmMD5); err == nil {
		t.Fatal("expected error for missing file")
	}
}

// fakeStore is an in-memory hashing.Store used to exercise HashDirectory
// without depending on pkg/objectstore (which itself depends on this
// package).
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	trees   [][]DirEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (s *fakeStore) Put(r io.Reader) (hashinfo.HashInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return hashinfo.HashInfo{}, err
	}
	sum := md5.Sum(data)
	digest := hex.EncodeToString(sum[:])

	s.mu.Lock()
	s.objects[digest] = data
	s.mu.Unlock()

	return hashinfo.ForFile("md5", digest, uint64(len(data))), nil
}

func (s *fakeStore) PutTreeEntries(entries []DirEntry) (hashinfo.HashInfo, error) {
	sorted := make([]DirEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RelPath < sorted[j].RelPath })

	s.mu.Lock()
	s.trees = append(s.trees, sorted)
	s.mu.Unlock()

	return hashinfo.ForDirectory("md5", "treehash", 0, len(sorted)), nil
}

func TestHashDirectoryCollectsAllFiles(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.txt"), "a")
	mustWrite(t, filepath.Join(dir, "sub", "b.txt"), "b")

	store := newFakeStore()
	info, err := HashDirectory(context.Background(), dir, store, nil, "", 2)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Error("expected directory HashInfo")
	}
	if len(store.trees) != 1 || len(store.trees[0]) != 2 {
		t.Fatalf("expected one tree with two entries, got %+v", store.trees)
	}
	if store.trees[0][0].RelPath != "a.txt" || store.trees[0][1].RelPath != filepath.ToSlash(filepath.Join("sub", "b.txt")) {
		t.Errorf("unexpected entries: %+v", store.trees[0])
	}
}

func TestHashDirectoryHonorsIgnorePredicate(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "keep.txt"), "keep")
	mustWrite(t, filepath.Join(dir, "skip.txt"), "skip")

	store := newFakeStore()
	ignore := func(relPath string, isDir bool) bool {
		return !isDir && relPath == "skip.txt"
	}

	if _, err := HashDirectory(context.Background(), dir, store, ignore, "", 2); err != nil {
		t.Fatal(err)
	}
	if len(store.trees[0]) != 1 || store.trees[0][0].RelPath != "keep.txt" {
		t.Fatalf("expected only keep.txt, got %+v", store.trees[0])
	}
}

func TestHashDirectoryDetectsIgnoreMarkerInside(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, ".hashtrailignore"), "")

	store := newFakeStore()
	_, err := HashDirectory(context.Background(), dir, store, nil, ".hashtrailignore", 2)
	if err != ErrIgnoreFileInCollectedDir {
		t.Fatalf("expected ErrIgnoreFileInCollectedDir, got %v", err)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}
