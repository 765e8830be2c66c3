// Package prefixtree implements the longest-prefix-match trie used by the
// Mapper combinator to route a path to one of several sub-stores, ported
// from the Python original's utils/prefix_tree.py.
package prefixtree

import "github.com/MaayanLab/ufs/pkg/ufs"

// Node is one level of the trie. A non-nil Terminal means a mapped path
// ends exactly here; Children routes deeper components.
type Node struct {
	Terminal *ufs.Path
	Children map[string]*Node
}

func newNode() *Node { return &Node{Children: map[string]*Node{}} }

// Build constructs a trie from the given mapped paths, so the longest
// mapped prefix of any queried path can be found in O(depth).
func Build(paths []ufs.Path) *Node {
	root := newNode()
	for _, p := range paths {
		n := root
		for _, part := range components(p) {
			child, ok := n.Children[part]
			if !ok {
				child = newNode()
				n.Children[part] = child
			}
			n = child
		}
		pp := p
		n.Terminal = &pp
	}
	return root
}

func components(p ufs.Path) []string {
	s, _ := p.RelativeTo(ufs.Root)
	if s == "" {
		return nil
	}
	out := []string{}
	cur := ""
	for _, r := range s {
		if r == '/' {
			out = append(out, cur)
			cur = ""
		} else {
			cur += string(r)
		}
	}
	out = append(out, cur)
	return out
}

// Search finds the longest mapped prefix of path and returns that prefix
// plus path's remainder relative to it. ok is false if no mapped prefix
// covers path at all.
func Search(root *Node, path ufs.Path) (prefix ufs.Path, subpath ufs.Path, ok bool) {
	n := root
	var lastMatch *ufs.Path
	var lastDepth int
	parts := components(path)
	if root.Terminal != nil {
		lastMatch = root.Terminal
		lastDepth = 0
	}
	for i, part := range parts {
		child, exists := n.Children[part]
		if !exists {
			break
		}
		n = child
		if n.Terminal != nil {
			lastMatch = n.Terminal
			lastDepth = i + 1
		}
	}
	if lastMatch == nil {
		return ufs.Root, ufs.Root, false
	}
	rest := ufs.Root
	for _, part := range parts[lastDepth:] {
		rest = rest.Join(part)
	}
	return *lastMatch, rest, true
}

// List returns the matched prefix (if any), the corresponding subpath, and
// the set of immediate child names of path as seen purely from the trie
// structure (used by Mapper.Ls to union mapped-subtree names with
// unmapped-but-traversed intermediate directory names). ok is false when
// path is not itself a node of the trie (neither a mapped path nor an
// ancestor of one); a mapped leaf gives ok true with no names.
func List(root *Node, path ufs.Path) (prefix ufs.Path, subpath ufs.Path, names []string, ok bool) {
	n := root
	var lastMatch *ufs.Path
	var lastDepth int
	parts := components(path)
	if root.Terminal != nil {
		lastMatch = root.Terminal
		lastDepth = 0
	}
	matchedAll := true
	for i, part := range parts {
		child, exists := n.Children[part]
		if !exists {
			matchedAll = false
			break
		}
		n = child
		if n.Terminal != nil {
			lastMatch = n.Terminal
			lastDepth = i + 1
		}
	}
	if matchedAll {
		for name := range n.Children {
			names = append(names, name)
		}
		ok = true
	}
	if lastMatch == nil {
		return ufs.Root, ufs.Root, names, ok
	}
	rest := ufs.Root
	for _, part := range parts[lastDepth:] {
		rest = rest.Join(part)
	}
	return *lastMatch, rest, names, ok
}
