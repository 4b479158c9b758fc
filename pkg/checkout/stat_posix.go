// +build !windows

package checkout

import (
	"os"
	"syscall"
	"time"
)

// statIdentity returns the (inode, mtime) pair statecache uses to key a
// file's cached hash, grounded on the teacher's POSIX metadata extraction
// (pkg/filesystem/open_posix.go's use of syscall.Stat_t.Ino).
func statIdentity(path string) (inode uint64, modTime time.Time, err error) {
	info, err := os.Lstat(path)
	if err != nil {
		return 0, time.Time{}, err
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, info.ModTime(), nil
	}
	return uint64(stat.Ino), info.ModTime(), nil
}
