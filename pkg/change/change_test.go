package change

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashtrail/hashtrail/pkg/hashing"
	"github.com/hashtrail/hashtrail/pkg/hashinfo"
	"github.com/hashtrail/hashtrail/pkg/logging"
	"github.com/hashtrail/hashtrail/pkg/objectstore"
)

func newTestStore(t *testing.T) *objectstore.Store {
	t.Helper()
	s := objectstore.New(t.TempDir(), hashing.AlgorithmMD5, false, logging.RootLogger)
	if err := s.Initialize(); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestChangedMissingPath(t *testing.T) {
	store := newTestStore(t)
	changed, err := Changed(context.Background(), filepath.Join(t.TempDir(), "missing"), hashinfo.ForFile("md5", "abc", 1), store, hashing.AlgorithmMD5, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Error("expected missing path to report changed")
	}
}

func TestChangedUnchangedFile(t *testing.T) {
	store := newTestStore(t)
	info, err := store.Put(strings.NewReader("content"))
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "file")
	if err := os.WriteFile(path, []byte("content"), 0600); err != nil {
		t.Fatal(err)
	}

	changed, err := Changed(context.Background(), path, info, store, hashing.AlgorithmMD5, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("expected identical content to report unchanged")
	}
}

func TestChangedModifiedFile(t *testing.T) {
	store := newTestStore(t)
	info, err := store.Put(strings.NewReader("content"))
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "file")
	if err := os.WriteFile(path, []byte("different"), 0600); err != nil {
		t.Fatal(err)
	}

	changed, err := Changed(context.Background(), path, info, store, hashing.AlgorithmMD5, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Error("expected modified content to report changed")
	}
}

func TestChangedCorruptCache(t *testing.T) {
	store := newTestStore(t)
	info, err := store.Put(strings.NewReader("content"))
	if err != nil {
		t.Fatal(err)
	}

	objPath, err := store.Path(info)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(objPath, []byte("tampered"), 0600); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "file")
	if err := os.WriteFile(path, []byte("content"), 0600); err != nil {
		t.Fatal(err)
	}

	changed, err := Changed(context.Background(), path, info, store, hashing.AlgorithmMD5, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Error("expected corrupt cache entry to report changed")
	}
}

type fakeStage struct {
	outputs       []Entry
	deps          []Entry
	always        bool
	storedMeta    hashinfo.HashInfo
	currentMeta   hashinfo.HashInfo
	currentMetaFn func() (hashinfo.HashInfo, error)
}

func (s fakeStage) Outputs() []Entry      { return s.outputs }
func (s fakeStage) Dependencies() []Entry { return s.deps }
func (s fakeStage) AlwaysChanged() bool   { return s.always }
func (s fakeStage) StoredMetadataHash() hashinfo.HashInfo {
	return s.storedMeta
}
func (s fakeStage) CurrentMetadataHash() (hashinfo.HashInfo, error) {
	if s.currentMetaFn != nil {
		return s.currentMetaFn()
	}
	return s.currentMeta, nil
}

func TestStageChangedAlwaysChanged(t *testing.T) {
	store := newTestStore(t)
	stage := fakeStage{always: true}
	changed, err := StageChanged(context.Background(), stage, store, hashing.AlgorithmMD5, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Error("expected always-changed stage to report changed")
	}
}

func TestStageChangedMetadataOnly(t *testing.T) {
	store := newTestStore(t)
	meta := hashinfo.ForFile("md5", "same", 0)
	stage := fakeStage{storedMeta: meta, currentMeta: meta}
	changed, err := StageChanged(context.Background(), stage, store, hashing.AlgorithmMD5, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("expected matching metadata with no outputs/deps to report unchanged")
	}

	stage.currentMeta = hashinfo.ForFile("md5", "different", 0)
	changed, err = StageChanged(context.Background(), stage, store, hashing.AlgorithmMD5, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Error("expected differing metadata hash to report changed")
	}
}
