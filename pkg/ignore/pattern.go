// Package ignore implements per-directory ignore-file matching: a stack of
// pattern files (one per directory, à la .gitignore/.dvcignore) rather than
// a single flat pattern list, so that a pattern's scope is always the
// directory it was defined in and its descendants.
package ignore

import (
	"errors"
	"fmt"
	pathpkg "path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Status describes the result of evaluating a path against a pattern set.
type Status uint8

const (
	// StatusNominal indicates that no pattern matched the path.
	StatusNominal Status = iota
	// StatusIgnored indicates that the path should be excluded.
	StatusIgnored
	// StatusUnignored indicates that a negated pattern re-included a path
	// that an earlier, less specific pattern had excluded.
	StatusUnignored
)

// pattern is a single parsed ignore-file line, adapted from the teacher's
// Mutagen-style ignore pattern grammar.
type pattern struct {
	negated       bool
	directoryOnly bool
	matchLeaf     bool
	raw           string
}

func cleanPreservingTrailingSlash(path string) string {
	var needTrailingSlash bool
	if l := len(path); l > 1 {
		needTrailingSlash = path[l-1] == '/'
	}
	if result := pathpkg.Clean(path); needTrailingSlash {
		return result + "/"
	} else {
		return result
	}
}

// parsePattern validates and parses a single ignore-file line. Blank lines
// and lines beginning with "#" are not valid patterns; callers should filter
// them out before calling parsePattern (see ParsePatternSet).
func parsePattern(line string) (*pattern, error) {
	if len(line) == 0 {
		return nil, errors.New("empty pattern")
	}

	var negated bool
	if line[0] == '!' {
		negated = true
		line = line[1:]
	}
	if line == "" {
		return nil, errors.New("negated empty pattern")
	}

	line = cleanPreservingTrailingSlash(line)
	if line == "/" || line == "//" {
		return nil, errors.New("pattern matches directory root")
	}

	var absolute bool
	if line[0] == '/' {
		absolute = true
		line = line[1:]
	}

	var directoryOnly bool
	if line[len(line)-1] == '/' {
		directoryOnly = true
		line = line[:len(line)-1]
	}

	containsSlash := strings.IndexByte(line, '/') >= 0

	if _, err := doublestar.Match(line, "a"); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", line, err)
	}

	return &pattern{
		negated:       negated,
		directoryOnly: directoryOnly,
		matchLeaf:     !absolute && !containsSlash,
		raw:           line,
	}, nil
}

// matches reports whether the pattern matches relPath (relative to the
// directory the pattern was defined in).
func (p *pattern) matches(relPath string, isDir bool) bool {
	if p.directoryOnly && !isDir {
		return false
	}
	if match, _ := doublestar.Match(p.raw, relPath); match {
		return true
	}
	if p.matchLeaf && relPath != "" {
		if match, _ := doublestar.Match(p.raw, pathpkg.Base(relPath)); match {
			return true
		}
	}
	return false
}

// PatternSet is the parsed contents of a single directory's ignore file.
type PatternSet struct {
	patterns []*pattern
}

// ParsePatternSet parses the lines of an ignore file, skipping blank lines
// and "#"-prefixed comments.
func ParsePatternSet(lines []string) (*PatternSet, error) {
	var patterns []*pattern
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		p, err := parsePattern(trimmed)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return &PatternSet{patterns: patterns}, nil
}

// Evaluate applies the pattern set (in order) to relPath, which must be
// relative to the directory this set was loaded from, returning the
// resulting status.
func (s *PatternSet) Evaluate(relPath string, isDir bool) Status {
	status := StatusNominal
	for _, p := range s.patterns {
		if !p.matches(relPath, isDir) {
			continue
		}
		if p.negated {
			status = StatusUnignored
		} else {
			status = StatusIgnored
		}
	}
	return status
}
