package ignore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// IgnoreFileName is the name of the per-directory ignore file this package
// loads, analogous to .gitignore/.dvcignore.
const IgnoreFileName = ".hashtrailignore"

// Matcher evaluates paths against a directory-scoped stack of ignore
// patterns: a pattern defined in a directory's ignore file applies to that
// directory and everything beneath it, with patterns from deeper
// directories taking precedence over shallower ones. It is grounded on
// DVC's DvcIgnoreFilter, substituting a longest-prefix map lookup for
// DVC's pygtrie.StringTrie (not present anywhere in the retrieval pack).
type Matcher struct {
	root            string
	repoMarkerName  string
	defaultPatterns *PatternSet

	mu   sync.Mutex
	sets map[string]*PatternSet // directory path (relative to root, "" for root) -> patterns defined directly in it
}

// NewMatcher constructs a Matcher rooted at root. repoMarkerName, if
// non-empty, names a directory (e.g. ".hashtrail") whose presence in a
// subdirectory marks a nested repository boundary: the nested repository's
// directory is implicitly ignored by the outer one, matching DVC's
// sub-repo handling.
func NewMatcher(root, repoMarkerName string) (*Matcher, error) {
	var defaultLines []string
	if repoMarkerName != "" {
		defaultLines = []string{repoMarkerName + "/"}
	}
	defaults, err := ParsePatternSet(defaultLines)
	if err != nil {
		return nil, fmt.Errorf("unable to build default ignore patterns: %w", err)
	}
	return &Matcher{
		root:            root,
		repoMarkerName:  repoMarkerName,
		defaultPatterns: defaults,
		sets:            make(map[string]*PatternSet),
	}, nil
}

func normalizeDir(relDir string) string {
	relDir = filepath.ToSlash(filepath.Clean(relDir))
	if relDir == "." {
		return ""
	}
	return relDir
}

// loadDir reads and caches the ignore file directly inside the directory at
// relDir (relative to root), returning nil if no ignore file exists there.
func (m *Matcher) loadDir(relDir string) (*PatternSet, error) {
	relDir = normalizeDir(relDir)

	m.mu.Lock()
	if set, ok := m.sets[relDir]; ok {
		m.mu.Unlock()
		return set, nil
	}
	m.mu.Unlock()

	absIgnoreFile := filepath.Join(m.root, relDir, IgnoreFileName)
	f, err := os.Open(absIgnoreFile)
	var set *PatternSet
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("unable to open ignore file %s: %w", absIgnoreFile, err)
		}
		set = nil
	} else {
		defer f.Close()
		var lines []string
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("unable to read ignore file %s: %w", absIgnoreFile, err)
		}
		set, err = ParsePatternSet(lines)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore file %s: %w", absIgnoreFile, err)
		}
	}

	m.mu.Lock()
	m.sets[relDir] = set
	m.mu.Unlock()
	return set, nil
}

// ancestorDirs returns relDir's ancestor chain from root ("") down to and
// including relDir itself.
func ancestorDirs(relDir string) []string {
	relDir = normalizeDir(relDir)
	if relDir == "" {
		return []string{""}
	}
	parts := strings.Split(relDir, "/")
	dirs := make([]string, 0, len(parts)+1)
	dirs = append(dirs, "")
	for i := range parts {
		dirs = append(dirs, strings.Join(parts[:i+1], "/"))
	}
	return dirs
}

// Ignored reports whether relPath (relative to root, using forward
// slashes) should be excluded, evaluating the directory stack from root
// down to relPath's parent, with deeper directories overriding shallower
// ones unless they produce no match of their own.
func (m *Matcher) Ignored(relPath string, isDir bool) (bool, error) {
	relPath = filepath.ToSlash(filepath.Clean(relPath))
	if strings.HasPrefix(relPath, "..") {
		return true, nil
	}

	parentDir := normalizeDir(filepath.Dir(relPath))
	if relPath == "." {
		return false, nil
	}

	status := StatusNominal
	if m.defaultPatterns != nil {
		base := filepath.Base(relPath)
		if st := m.defaultPatterns.Evaluate(base, isDir); st != StatusNominal {
			status = st
		}
	}

	for _, dir := range ancestorDirs(parentDir) {
		set, err := m.loadDir(dir)
		if err != nil {
			return false, err
		}
		if set == nil {
			continue
		}

		relToDir := strings.TrimPrefix(relPath, dir)
		relToDir = strings.TrimPrefix(relToDir, "/")

		if st := set.Evaluate(relToDir, isDir); st != StatusNominal {
			status = st
		}
	}

	return status == StatusIgnored, nil
}
