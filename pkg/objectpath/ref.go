package objectpath

import "fmt"

// Scheme identifies the storage location family a Ref addresses. Only the
// local scheme is implemented by the core; any other scheme is an external
// collaborator's concern and is rejected at the boundary.
type Scheme string

// SchemeLocal addresses a path on the local filesystem.
const SchemeLocal Scheme = "local"

// Ref is a scheme-qualified location reference, analogous in spirit to a
// connection URL but restricted here to what the core itself resolves.
type Ref struct {
	Scheme Scheme
	Path   string
}

// ParseLocal constructs a Ref for a local filesystem path.
func ParseLocal(path string) (Ref, error) {
	if path == "" {
		return Ref{}, fmt.Errorf("empty local path")
	}
	return Ref{Scheme: SchemeLocal, Path: path}, nil
}

// Local returns the filesystem path addressed by r if r uses the local
// scheme.
func (r Ref) Local() (string, bool) {
	if r.Scheme != SchemeLocal {
		return "", false
	}
	return r.Path, true
}

// EnsureValid ensures that r's invariants are respected.
func (r Ref) EnsureValid() error {
	if r.Scheme == SchemeLocal {
		if r.Path == "" {
			return fmt.Errorf("local reference with empty path")
		}
		return nil
	}
	return fmt.Errorf("unsupported reference scheme: %s", r.Scheme)
}
