package dbuswire

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestObjectPath(t *testing.T) {
	tests := []struct {
		path       ObjectPath
		valid      bool
		components []string
		parent     ObjectPath
	}{
		{"/", true, nil, "/"},
		{"/foo", true, []string{"foo"}, "/"},
		{"/foo/bar", true, []string{"foo", "bar"}, "/foo"},
		{"/org/freedesktop/DBus", true, []string{"org", "freedesktop", "DBus"}, "/org/freedesktop"},
		{"/with space/é", true, []string{"with space", "é"}, "/with space"},
		{"", false, nil, ""},
		{"foo", false, nil, ""},
		{"foo/bar", false, nil, ""},
		{"/foo/", false, nil, ""},
		{"//", false, nil, ""},
		{"/foo//bar", false, nil, ""},
	}

	for _, tc := range tests {
		if got := tc.path.Valid(); got != tc.valid {
			t.Errorf("ObjectPath(%q).Valid() = %v, want %v", tc.path, got, tc.valid)
		}
		err := ValidatePath(string(tc.path))
		if (err == nil) != tc.valid {
			t.Errorf("ValidatePath(%q) = %v, want valid=%v", tc.path, err, tc.valid)
		}
		comps, err := DecomposePath(string(tc.path))
		if (err == nil) != tc.valid {
			t.Errorf("DecomposePath(%q) err = %v, want valid=%v", tc.path, err, tc.valid)
		}
		if diff := cmp.Diff(comps, tc.components); diff != "" {
			t.Errorf("DecomposePath(%q) wrong components (-got+want):\n%s", tc.path, diff)
		}
		if diff := cmp.Diff(tc.path.Components(), tc.components); diff != "" {
			t.Errorf("ObjectPath(%q).Components() wrong (-got+want):\n%s", tc.path, diff)
		}
		if !tc.valid {
			continue
		}

		if got := tc.path.Parent(); got != tc.parent {
			t.Errorf("ObjectPath(%q).Parent() = %q, want %q", tc.path, got, tc.parent)
		}
		p, err := PathFromComponents(tc.components)
		if err != nil {
			t.Errorf("PathFromComponents(%q) got err: %v", tc.components, err)
		} else if p != tc.path {
			t.Errorf("PathFromComponents(%q) = %q, want %q", tc.components, p, tc.path)
		}
	}
}

func TestPathFromComponents(t *testing.T) {
	bad := [][]string{
		{""},
		{"a", ""},
		{"a/b"},
		{"/"},
	}
	for _, comps := range bad {
		if p, err := PathFromComponents(comps); err == nil {
			t.Errorf("PathFromComponents(%q) = %q, want error", comps, p)
		}
	}
}

func TestPathRelations(t *testing.T) {
	if got := ObjectPath("/").Child("a"); got != "/a" {
		t.Errorf(`"/".Child("a") = %q, want "/a"`, got)
	}
	if got := ObjectPath("/a").Child("b"); got != "/a/b" {
		t.Errorf(`"/a".Child("b") = %q, want "/a/b"`, got)
	}

	tests := []struct {
		p, parent ObjectPath
		want      bool
	}{
		{"/a", "/", true},
		{"/a/b", "/", true},
		{"/a/b", "/a", true},
		{"/a", "/a", false},
		{"/", "/", false},
		{"/ab", "/a", false},
		{"/a", "/a/b", false},
	}
	for _, tc := range tests {
		if got := tc.p.IsChildOf(tc.parent); got != tc.want {
			t.Errorf("%q.IsChildOf(%q) = %v, want %v", tc.p, tc.parent, got, tc.want)
		}
	}
}
