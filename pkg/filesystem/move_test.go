package filesystem

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMoveSameDevice(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source.txt")
	destination := filepath.Join(dir, "destination.txt")

	if err := os.WriteFile(source, []byte("content"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := Move(source, destination); err != nil {
		t.Fatal("unable to move file:", err)
	}

	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Error("source still exists after move")
	}

	data, err := os.ReadFile(destination)
	if err != nil {
		t.Fatal("unable to read destination:", err)
	}
	if string(data) != "content" {
		t.Errorf("unexpected destination content: %s", data)
	}
}
