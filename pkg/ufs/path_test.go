package ufs

import "testing"

func TestNewPathNormalizes(t *testing.T) {
	cases := map[string]string{
		"/":                "/",
		"":                 "/",
		"/a/b":             "/a/b",
		"/a//b":            "/a/b",
		"/a/./b":           "/a/b",
		"/a/../b":          "/b",
		"/../../etc/passwd": "/etc/passwd",
		"a/b":              "/a/b",
	}
	for in, want := range cases {
		if got := NewPath(in).String(); got != want {
			t.Errorf("NewPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPathEquality(t *testing.T) {
	a := NewPath("/a/b/c")
	b := Root.Join("a").Join("b/c")
	if a != b {
		t.Errorf("expected %v == %v", a, b)
	}
	m := map[Path]int{a: 1}
	if m[b] != 1 {
		t.Errorf("expected Path to be usable as a map key")
	}
}

func TestParentAndName(t *testing.T) {
	p := NewPath("/a/b/c")
	if p.Parent().String() != "/a/b" {
		t.Errorf("Parent() = %q", p.Parent())
	}
	if p.Name() != "c" {
		t.Errorf("Name() = %q", p.Name())
	}
	if Root.Parent() != Root {
		t.Errorf("Parent of root should be root")
	}
	if Root.Name() != "" {
		t.Errorf("Name of root should be empty")
	}
}

func TestRelativeTo(t *testing.T) {
	p := NewPath("/a/b/c")
	rel, ok := p.RelativeTo(NewPath("/a"))
	if !ok || rel != "b/c" {
		t.Errorf("RelativeTo = %q, %v", rel, ok)
	}
	if _, ok := p.RelativeTo(NewPath("/x")); ok {
		t.Errorf("expected RelativeTo to fail for non-prefix")
	}
}

func TestJoinNeverEscapesRoot(t *testing.T) {
	p := Root.Join("../../../etc")
	if p.String() != "/etc" {
		t.Errorf("Join escaped root: %q", p)
	}
}
