package hashtrailerr

import (
	"errors"
	"testing"
)

func TestCacheLinkErrorMessage(t *testing.T) {
	err := &CacheLinkError{Paths: []string{"a.txt"}}
	if err.Error() == "" {
		t.Error("expected non-empty error message")
	}
}

func TestSentinelsDistinguishable(t *testing.T) {
	if errors.Is(NotFound, Corrupt) {
		t.Error("NotFound and Corrupt must be distinct sentinels")
	}
}

func TestConfirmRemoveErrorCarriesPath(t *testing.T) {
	err := &ConfirmRemoveError{Path: "dir/file"}
	if err.Error() == "" {
		t.Error("expected non-empty error message")
	}
}
