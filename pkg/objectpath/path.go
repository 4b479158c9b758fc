// Package objectpath provides validated, POSIX-form relative paths used to
// key entries in tree objects and to address files within a working tree.
package objectpath

import (
	"fmt"
	"strings"
)

// Path is a validated relative path using forward slashes, suitable for
// storage in a tree object or comparison across platforms.
type Path string

// New validates and constructs a Path from a slash-separated relative path
// string. Backslashes are rejected rather than translated: a path collected
// from a Windows working tree and one collected from a POSIX working tree
// must compare equal, and silently rewriting separators would let a literal
// backslash in a POSIX filename collide with a Windows path component.
func New(raw string) (Path, error) {
	if raw == "" {
		return "", fmt.Errorf("empty path")
	}
	if strings.ContainsRune(raw, '\\') {
		return "", fmt.Errorf("path %q contains backslash", raw)
	}
	if strings.HasPrefix(raw, "/") {
		return "", fmt.Errorf("path %q is absolute", raw)
	}

	for _, component := range strings.Split(raw, "/") {
		switch component {
		case "":
			return "", fmt.Errorf("path %q contains an empty component", raw)
		case ".":
			return "", fmt.Errorf("path %q contains a '.' component", raw)
		case "..":
			return "", fmt.Errorf("path %q escapes its root via '..'", raw)
		}
	}

	return Path(raw), nil
}

// Join joins a parent Path and a single child component.
func Join(parent Path, child string) (Path, error) {
	if parent == "" {
		return New(child)
	}
	return New(string(parent) + "/" + child)
}

// Dir returns the parent of p, or "" if p has no parent.
func (p Path) Dir() Path {
	index := strings.LastIndexByte(string(p), '/')
	if index < 0 {
		return ""
	}
	return p[:index]
}

// Base returns the final component of p.
func (p Path) Base() string {
	index := strings.LastIndexByte(string(p), '/')
	if index < 0 {
		return string(p)
	}
	return string(p[index+1:])
}

// IsWithin reports whether p is equal to root or nested beneath it.
func (p Path) IsWithin(root Path) bool {
	if root == "" {
		return true
	}
	if p == root {
		return true
	}
	return strings.HasPrefix(string(p), string(root)+"/")
}

// String implements fmt.Stringer.
func (p Path) String() string {
	return string(p)
}
