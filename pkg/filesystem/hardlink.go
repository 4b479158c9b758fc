package filesystem

import (
	"fmt"
	"os"
)

// Hardlink creates destination as a hard link to source, except when source
// is a zero-byte file: since two empty files are indistinguishable from each
// other and from a fresh empty file, Hardlink instead creates an ordinary
// empty file at destination rather than linking it to the object store's
// copy. This keeps a zero-byte object's link count from climbing with every
// checkout that materializes it.
func Hardlink(source, destination string) error {
	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("unable to stat hardlink source: %w", err)
	}

	if info.Size() == 0 {
		f, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err != nil {
			return fmt.Errorf("unable to create empty file: %w", err)
		}
		return f.Close()
	}

	if err := os.Link(source, destination); err != nil {
		return fmt.Errorf("unable to create hard link: %w", err)
	}
	return nil
}
