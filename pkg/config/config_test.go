package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashtrail/hashtrail/pkg/linkpolicy"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	if err := os.WriteFile(path, []byte(""), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if len(cfg.Cache.Type) != len(linkpolicy.DefaultOrder) {
		t.Errorf("expected default link order, got %v", cfg.Cache.Type)
	}
	if cfg.State.RowLimit != 100000 {
		t.Errorf("expected default row limit, got %d", cfg.State.RowLimit)
	}
}

func TestLoadOverridesCacheType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	content := "[cache]\ntype = [\"symlink\", \"copy\"]\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if len(cfg.Cache.Type) != 2 || cfg.Cache.Type[0] != linkpolicy.MethodSymlink || cfg.Cache.Type[1] != linkpolicy.MethodCopy {
		t.Errorf("unexpected cache type order: %v", cfg.Cache.Type)
	}
}

func TestLoadRejectsUnknownLinkType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	content := "[cache]\ntype = [\"teleport\"]\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown link type")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing configuration file")
	}
}
