package checkout

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashtrail/hashtrail/pkg/hashing"
	"github.com/hashtrail/hashtrail/pkg/hashinfo"
	"github.com/hashtrail/hashtrail/pkg/hashtrailerr"
	"github.com/hashtrail/hashtrail/pkg/linkpolicy"
	"github.com/hashtrail/hashtrail/pkg/logging"
	"github.com/hashtrail/hashtrail/pkg/objectpath"
	"github.com/hashtrail/hashtrail/pkg/objectstore"
	"github.com/hashtrail/hashtrail/pkg/prompt"
	"github.com/hashtrail/hashtrail/pkg/statecache"
)

func newTestEngine(t *testing.T) (*Engine, *objectstore.Store) {
	t.Helper()
	store := objectstore.New(t.TempDir(), hashing.AlgorithmMD5, true, logging.RootLogger)
	if err := store.Initialize(); err != nil {
		t.Fatal(err)
	}
	cache, err := statecache.Open(filepath.Join(t.TempDir(), "state.db"), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cache.Close() })

	return &Engine{
		Store:     store,
		Cache:     cache,
		Policy:    linkpolicy.New([]linkpolicy.Method{linkpolicy.MethodCopy}),
		Algorithm: hashing.AlgorithmMD5,
		Confirm:   prompt.Always(true),
	}, store
}

func TestCheckoutMaterializesMissingFile(t *testing.T) {
	engine, store := newTestEngine(t)
	info, err := store.Put(strings.NewReader("foo"))
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	target := filepath.Join(dir, "foo")

	err = engine.Checkout(context.Background(), []Output{{Path: target, Hash: info}}, false, false, nil)
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "foo" {
		t.Errorf("expected materialized content %q, got %q", "foo", data)
	}
}

func TestCheckoutUntrackedOutputIsRemoved(t *testing.T) {
	engine, _ := newTestEngine(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "stale")
	if err := os.WriteFile(target, []byte("leftover"), 0600); err != nil {
		t.Fatal(err)
	}

	err := engine.Checkout(context.Background(), []Output{{Path: target}}, false, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Error("expected untracked output to be removed")
	}
}

func TestCheckoutPartialFailureAggregates(t *testing.T) {
	engine, store := newTestEngine(t)
	goodInfo, err := store.Put(strings.NewReader("a"))
	if err != nil {
		t.Fatal(err)
	}
	badInfo := hashinfo.ForFile("md5", "0000000000000000000000000000000", 1)

	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")

	err = engine.Checkout(context.Background(), []Output{
		{Path: a, Hash: goodInfo},
		{Path: b, Hash: badInfo},
	}, false, false, nil)
	if err == nil {
		t.Fatal("expected checkout error for missing object")
	}
	var checkoutErr *hashtrailerr.CheckoutError
	if !errors.As(err, &checkoutErr) {
		t.Fatalf("expected a *hashtrailerr.CheckoutError, got %v", err)
	}
	if len(checkoutErr.Paths) != 1 || checkoutErr.Paths[0] != b {
		t.Errorf("expected failed paths [%s], got %v", b, checkoutErr.Paths)
	}

	if _, statErr := os.Stat(a); statErr != nil {
		t.Errorf("expected successful output to be materialized: %v", statErr)
	}
	if _, statErr := os.Stat(b); !os.IsNotExist(statErr) {
		t.Error("expected failed output to remain absent")
	}
}

func TestCheckoutDirectoryRemovesRedundantFiles(t *testing.T) {
	engine, store := newTestEngine(t)
	fileInfo, err := store.Put(strings.NewReader("keep"))
	if err != nil {
		t.Fatal(err)
	}
	relPath, err := objectpath.New("keep.txt")
	if err != nil {
		t.Fatal(err)
	}
	treeInfo, err := store.PutTree([]objectstore.TreeEntry{
		{RelPath: relPath, Hash: fileInfo},
	})
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	target := filepath.Join(dir, "data")
	if err := os.MkdirAll(target, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(target, "stale.txt"), []byte("old"), 0600); err != nil {
		t.Fatal(err)
	}

	err = engine.Checkout(context.Background(), []Output{{Path: target, Hash: treeInfo}}, false, false, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(target, "keep.txt")); err != nil {
		t.Errorf("expected tracked entry to be materialized: %v", err)
	}
	if _, err := os.Stat(filepath.Join(target, "stale.txt")); !os.IsNotExist(err) {
		t.Error("expected untracked entry to be removed")
	}
}
