//go:build !linux

package linkpolicy

import "fmt"

func reflink(source, destination string) error {
	return fmt.Errorf("reflink not supported on this platform")
}

const reflinkSupported = false

// reflinkFormatAllows is never consulted on this platform since
// reflinkSupported is false, but is defined so tryMethod's switch compiles
// uniformly across platforms.
func reflinkFormatAllows(destination string) bool {
	return false
}
