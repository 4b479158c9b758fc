package filesystem

import (
	"fmt"
	"io"
	"os"

	"github.com/hashtrail/hashtrail/pkg/logging"
	"github.com/hashtrail/hashtrail/pkg/must"
)

// Move relocates a file from source to destination. It first attempts an
// atomic rename; if that fails because source and destination are on
// different devices, it falls back to a copy followed by removal of the
// source. In both cases, Move leaves exactly one of source or destination
// present on disk: a failed copy never leaves a partially written
// destination (it is removed before the error is returned), the source is
// only removed after the copy is confirmed complete, and if removing the
// source fails the copied destination is removed again.
func Move(source, destination string) error {
	if err := os.Rename(source, destination); err == nil {
		return nil
	} else if !isCrossDeviceError(err) {
		return fmt.Errorf("unable to rename file: %w", err)
	}

	if err := copyFileContents(source, destination); err != nil {
		must.OSRemove(destination, logging.RootLogger)
		return fmt.Errorf("unable to copy file across devices: %w", err)
	}

	if err := os.Remove(source); err != nil {
		must.OSRemove(destination, logging.RootLogger)
		return fmt.Errorf("unable to remove source after cross-device move: %w", err)
	}

	return nil
}

func copyFileContents(source, destination string) error {
	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("unable to open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("unable to stat source: %w", err)
	}

	out, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("unable to create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("unable to copy content: %w", err)
	}

	return out.Close()
}
