package linkpolicy

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
)

func sourceLinkCount(t *testing.T, info os.FileInfo) uint64 {
	t.Helper()
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		t.Skip("link count unavailable on this platform")
	}
	return uint64(stat.Nlink)
}

func TestLinkFallsBackToCopyWhenHardlinkUnavailable(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source")
	if err := os.WriteFile(source, []byte("content"), 0600); err != nil {
		t.Fatal(err)
	}
	destination := filepath.Join(dir, "destination")

	p := New([]Method{MethodCopy})
	method, err := p.Link(source, destination)
	if err != nil {
		t.Fatal(err)
	}
	if method != MethodCopy {
		t.Errorf("expected copy, got %s", method)
	}

	data, err := os.ReadFile(destination)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "content" {
		t.Errorf("unexpected destination content: %s", data)
	}
}

func TestLinkHardlinkThenConfirmedReuse(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source")
	if err := os.WriteFile(source, []byte("content"), 0600); err != nil {
		t.Fatal(err)
	}

	p := New([]Method{MethodHardlink, MethodCopy})

	destA := filepath.Join(dir, "a")
	method, err := p.Link(source, destA)
	if err != nil {
		t.Fatal(err)
	}
	if method != MethodHardlink {
		t.Fatalf("expected hardlink, got %s", method)
	}
	if !p.confirmed || p.current != MethodHardlink {
		t.Error("expected policy to confirm hardlink for reuse")
	}

	destB := filepath.Join(dir, "b")
	method, err = p.Link(source, destB)
	if err != nil {
		t.Fatal(err)
	}
	if method != MethodHardlink {
		t.Errorf("expected confirmed hardlink reuse, got %s", method)
	}
}

func TestLinkFailsWhenDestinationExists(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source")
	destination := filepath.Join(dir, "destination")
	if err := os.WriteFile(source, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(destination, []byte("y"), 0600); err != nil {
		t.Fatal(err)
	}

	p := New([]Method{MethodCopy})
	if _, err := p.Link(source, destination); err == nil {
		t.Fatal("expected error when destination already exists")
	}
}

func TestLinkHardlinkDegradesZeroByteSourceToRegularFile(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source")
	if err := os.WriteFile(source, nil, 0600); err != nil {
		t.Fatal(err)
	}
	sourceInfo, err := os.Stat(source)
	if err != nil {
		t.Fatal(err)
	}
	sourceLinksBefore := sourceLinkCount(t, sourceInfo)

	destination := filepath.Join(dir, "destination")
	p := New([]Method{MethodHardlink})
	method, err := p.Link(source, destination)
	if err != nil {
		t.Fatal(err)
	}
	if method != MethodHardlink {
		t.Fatalf("expected hardlink method, got %s", method)
	}

	destInfo, err := os.Lstat(destination)
	if err != nil {
		t.Fatal(err)
	}
	if destInfo.Mode()&os.ModeSymlink != 0 {
		t.Error("expected a regular file, not a symlink")
	}
	if destInfo.Size() != 0 {
		t.Errorf("expected empty file, got size %d", destInfo.Size())
	}

	sourceInfoAfter, err := os.Stat(source)
	if err != nil {
		t.Fatal(err)
	}
	if got := sourceLinkCount(t, sourceInfoAfter); got != sourceLinksBefore {
		t.Errorf("expected source link count to stay at %d, got %d", sourceLinksBefore, got)
	}
}

func TestVerifyDetectsWrongKind(t *testing.T) {
	dir := t.TempDir()
	regular := filepath.Join(dir, "regular")
	if err := os.WriteFile(regular, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := Verify(MethodSymlink, regular); err == nil {
		t.Error("expected verify to reject a regular file as a symlink")
	}
	if err := Verify(MethodCopy, regular); err != nil {
		t.Errorf("expected verify to accept a regular file as a copy: %v", err)
	}
}
