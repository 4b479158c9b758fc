package filesystem

import (
	"os"
	"testing"
)

func TestAcquireRepoLockCycle(t *testing.T) {
	root := t.TempDir()

	locker, err := AcquireRepoLock(root, false)
	if err != nil {
		t.Fatal("unable to acquire lock:", err)
	}
	if err := locker.Close(); err != nil {
		t.Fatal("unable to release lock:", err)
	}
}

func TestAcquireRepoLockExclusive(t *testing.T) {
	root := t.TempDir()

	locker, err := AcquireRepoLock(root, false)
	if err != nil {
		t.Fatal("unable to acquire lock:", err)
	}
	defer locker.Close()

	if _, err := AcquireRepoLock(root, false); err == nil {
		t.Error("second non-blocking lock acquisition succeeded unexpectedly")
	}
}

func TestRepoDataDirectory(t *testing.T) {
	root := t.TempDir()

	path, err := RepoDataDirectory(root, true, "testing")
	if err != nil {
		t.Fatal("unable to create testing subdirectory:", err)
	}
	defer os.RemoveAll(path)

	info, err := os.Lstat(path)
	if err != nil {
		t.Fatal("unable to probe testing subdirectory:", err)
	}
	if !info.IsDir() {
		t.Error("repository data subpath is not a directory")
	}
}
