package must

import (
	"io"
	"os"

	"github.com/hashtrail/hashtrail/pkg/logging"
)

// Close closes c, logging a warning on failure instead of returning an error.
// It's intended for cleanup paths (typically deferred) where the original
// operation already determines the function's result.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warnf("unable to close: %s", err.Error())
	}
}

// OSRemove removes the named file, logging a warning on failure.
func OSRemove(name string, logger *logging.Logger) {
	if err := os.Remove(name); err != nil {
		logger.Warnf("unable to remove '%s': %s", name, err.Error())
	}
}

// WriteString writes s via ws, logging a warning if the write fails or is
// short.
func WriteString(ws interface{ WriteString(string) (int, error) }, s string, logger *logging.Logger) {
	n, err := ws.WriteString(s)
	if err != nil {
		logger.Warnf("unable to write string '%s': %s", s, err.Error())
	} else if n < len(s) {
		logger.Warnf("short write of string '%s': wrote %d of %d bytes", s, n, len(s))
	}
}

// Unlock releases locker, logging a warning on failure.
func Unlock(locker interface{ Unlock() error }, logger *logging.Logger) {
	if err := locker.Unlock(); err != nil {
		logger.Warnf("unable to unlock: %s", err.Error())
	}
}

// Succeed logs a warning if err is non-nil, naming the task that failed.
func Succeed(err error, task string, logger *logging.Logger) {
	if err != nil {
		logger.Warnf("unable to succeed at %s: %s", task, err.Error())
	}
}
