package objectpath

import "testing"

func TestNewRejectsBackslash(t *testing.T) {
	if _, err := New(`a\b`); err == nil {
		t.Error("path with backslash accepted")
	}
}

func TestNewRejectsAbsolute(t *testing.T) {
	if _, err := New("/a/b"); err == nil {
		t.Error("absolute path accepted")
	}
}

func TestNewRejectsDotDot(t *testing.T) {
	if _, err := New("a/../b"); err == nil {
		t.Error("path with '..' accepted")
	}
}

func TestNewRejectsEmptyComponent(t *testing.T) {
	if _, err := New("a//b"); err == nil {
		t.Error("path with empty component accepted")
	}
}

func TestJoinAndDirBase(t *testing.T) {
	p, err := Join("a/b", "c")
	if err != nil {
		t.Fatal("unable to join:", err)
	}
	if p != "a/b/c" {
		t.Fatalf("unexpected join result: %s", p)
	}
	if p.Dir() != "a/b" {
		t.Errorf("unexpected dir: %s", p.Dir())
	}
	if p.Base() != "c" {
		t.Errorf("unexpected base: %s", p.Base())
	}
}

func TestIsWithin(t *testing.T) {
	p, _ := New("a/b/c")
	if !p.IsWithin("a/b") {
		t.Error("expected a/b/c to be within a/b")
	}
	if !p.IsWithin("a/b/c") {
		t.Error("expected a/b/c to be within itself")
	}
	if p.IsWithin("a/bc") {
		t.Error("a/b/c incorrectly reported within a/bc")
	}
}
