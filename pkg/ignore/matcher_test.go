package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func writeIgnoreFile(t *testing.T, dir string, lines ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	if err := os.WriteFile(filepath.Join(dir, IgnoreFileName), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestMatcherRootPattern(t *testing.T) {
	root := t.TempDir()
	writeIgnoreFile(t, root, "*.log")

	m, err := NewMatcher(root, ".hashtrail")
	if err != nil {
		t.Fatal(err)
	}

	ignored, err := m.Ignored("debug.log", false)
	if err != nil {
		t.Fatal(err)
	}
	if !ignored {
		t.Error("expected debug.log to be ignored")
	}

	ignored, err = m.Ignored("keep.txt", false)
	if err != nil {
		t.Fatal(err)
	}
	if ignored {
		t.Error("expected keep.txt to not be ignored")
	}
}

func TestMatcherNestedOverridesParent(t *testing.T) {
	root := t.TempDir()
	writeIgnoreFile(t, root, "*.log")
	writeIgnoreFile(t, filepath.Join(root, "logs"), "!important.log")

	m, err := NewMatcher(root, ".hashtrail")
	if err != nil {
		t.Fatal(err)
	}

	ignored, err := m.Ignored("logs/debug.log", false)
	if err != nil {
		t.Fatal(err)
	}
	if !ignored {
		t.Error("expected logs/debug.log to remain ignored")
	}

	ignored, err = m.Ignored("logs/important.log", false)
	if err != nil {
		t.Fatal(err)
	}
	if ignored {
		t.Error("expected logs/important.log to be unignored by the nested negation")
	}
}

func TestMatcherRepoMarkerIgnoredByDefault(t *testing.T) {
	root := t.TempDir()
	m, err := NewMatcher(root, ".hashtrail")
	if err != nil {
		t.Fatal(err)
	}

	ignored, err := m.Ignored(".hashtrail", true)
	if err != nil {
		t.Fatal(err)
	}
	if !ignored {
		t.Error("expected the repo metadata directory to be ignored by default")
	}
}

func TestMatcherOutsideRootIsIgnored(t *testing.T) {
	root := t.TempDir()
	m, err := NewMatcher(root, "")
	if err != nil {
		t.Fatal(err)
	}

	ignored, err := m.Ignored("../escape.txt", false)
	if err != nil {
		t.Fatal(err)
	}
	if !ignored {
		t.Error("expected a path outside the root to be ignored")
	}
}
