package gc

import (
	"strings"
	"testing"

	"github.com/hashtrail/hashtrail/pkg/hashing"
	"github.com/hashtrail/hashtrail/pkg/hashinfo"
	"github.com/hashtrail/hashtrail/pkg/logging"
	"github.com/hashtrail/hashtrail/pkg/objectstore"
)

func TestCollectRemovesUnreferencedObjects(t *testing.T) {
	storeRoot := t.TempDir()
	repoRoot := t.TempDir()

	store := objectstore.New(storeRoot, hashing.AlgorithmMD5, true, logging.RootLogger)
	if err := store.Initialize(); err != nil {
		t.Fatal(err)
	}

	live, err := store.Put(strings.NewReader("keep me"))
	if err != nil {
		t.Fatal(err)
	}
	dead, err := store.Put(strings.NewReader("collect me"))
	if err != nil {
		t.Fatal(err)
	}

	liveSet := map[hashinfo.HashInfo]bool{live: true}

	result, err := Collect(repoRoot, storeRoot, hashing.AlgorithmMD5, liveSet)
	if err != nil {
		t.Fatal(err)
	}
	if result.Removed != 1 {
		t.Errorf("expected 1 object removed, got %d", result.Removed)
	}
	if result.Kept != 1 {
		t.Errorf("expected 1 object kept, got %d", result.Kept)
	}

	if exists, err := store.Exists(live); err != nil || !exists {
		t.Errorf("expected live object to survive collection: exists=%v err=%v", exists, err)
	}
	if exists, err := store.Exists(dead); err != nil || exists {
		t.Errorf("expected dead object to be removed: exists=%v err=%v", exists, err)
	}
}

func TestCollectEmptyStoreIsNoop(t *testing.T) {
	storeRoot := t.TempDir()
	repoRoot := t.TempDir()

	result, err := Collect(repoRoot, storeRoot, hashing.AlgorithmMD5, map[hashinfo.HashInfo]bool{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Removed != 0 || result.Kept != 0 {
		t.Errorf("expected no-op on empty store, got %+v", result)
	}
}
