// Package ufs defines the core Universal File System contract: the path
// type, file metadata, the synchronous and asynchronous store interfaces,
// the handle table, the error taxonomy, and the derived operations built
// on top of the essential ones.
package ufs

import "strings"

// Path is an immutable, normalized, absolute POSIX-style path. Two Paths
// with the same components compare equal and hash equal, so Path is safe
// to use as a map key. Normalization is purely syntactic: "..", ".", "//"
// and "/./" are resolved against the in-memory component list only, never
// against a real filesystem, and a Path can never climb above the root.
type Path struct {
	parts string // joined by "\x00" for fast comparison; "" means root
}

// Root is the "/" path.
var Root = Path{}

// NewPath parses s into a normalized Path rooted at "/", exactly like
// joining s onto the root: leading slashes, repeated slashes, "." and ".."
// segments are all resolved syntactically and ".." above the root is a
// no-op rather than an error.
func NewPath(s string) Path {
	return Root.Join(s)
}

// Join appends subpath's components to p, resolving "." and ".." segments
// the same way a POSIX shell would, without ever escaping above the root.
func (p Path) Join(subpath string) Path {
	comps := p.components()
	for _, part := range strings.Split(subpath, "/") {
		switch part {
		case "", ".":
			// no-op
		case "..":
			if len(comps) > 0 {
				comps = comps[:len(comps)-1]
			}
		default:
			comps = append(comps, part)
		}
	}
	return fromComponents(comps)
}

// Parent returns the parent path. Parent of root is root.
func (p Path) Parent() Path {
	comps := p.components()
	if len(comps) == 0 {
		return Root
	}
	return fromComponents(comps[:len(comps)-1])
}

// Name returns the last path component, or "" for the root.
func (p Path) Name() string {
	comps := p.components()
	if len(comps) == 0 {
		return ""
	}
	return comps[len(comps)-1]
}

// RelativeTo returns p's components past parent's, joined with "/", or
// false if parent is not a prefix of p.
func (p Path) RelativeTo(parent Path) (string, bool) {
	pc, qc := p.components(), parent.components()
	if len(qc) > len(pc) {
		return "", false
	}
	for i, c := range qc {
		if pc[i] != c {
			return "", false
		}
	}
	return strings.Join(pc[len(qc):], "/"), true
}

// IsRoot reports whether p is the root path "/".
func (p Path) IsRoot() bool {
	return p.parts == ""
}

func (p Path) components() []string {
	if p.parts == "" {
		return nil
	}
	return strings.Split(p.parts, "\x00")
}

func fromComponents(comps []string) Path {
	if len(comps) == 0 {
		return Root
	}
	return Path{parts: strings.Join(comps, "\x00")}
}

// String renders p as an absolute POSIX path.
func (p Path) String() string {
	comps := p.components()
	if len(comps) == 0 {
		return "/"
	}
	return "/" + strings.Join(comps, "/")
}
