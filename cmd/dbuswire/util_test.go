package main

import (
	"slices"
	"testing"

	"github.com/danderson/dbuswire"
	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestYAMLRoundTrip(t *testing.T) {
	tests := []struct {
		sig  string
		in   string
		want []any
	}{
		{"", "", []any{}},
		{"usai", "[42, hello, [1, 2, 3]]", []any{uint32(42), "hello", []int32{1, 2, 3}}},
		{"ybdxt", "[0xff, true, 1.5, -3, 18446744073709551615]",
			[]any{uint8(255), true, 1.5, int64(-3), uint64(18446744073709551615)}},
		{"oao", "[/a/b, [/, /c]]", []any{dbuswire.ObjectPath("/a/b"), []dbuswire.ObjectPath{"/", "/c"}}},
		{"c", "[{name: blob, data: '0102'}]", []any{dbuswire.Custom{Name: "blob", Data: []byte{1, 2}}}},
		{"aai", "[[[1], []]]", []any{[][]int32{{1}, {}}}},
		{"m", "[{n: {v: null}, a: {ay: [1]}, d: {m: {x: {s: y}}}}]", []any{
			dbuswire.NewDict(
				"n", nil,
				"a", []byte{1},
				"d", dbuswire.NewDict("x", "y"),
			),
		}},
	}

	for _, tc := range tests {
		sig := mustSignature(t, tc.sig)
		var doc yaml.Node
		if err := yaml.Unmarshal([]byte(tc.in), &doc); err != nil {
			t.Fatalf("parsing %q: %v", tc.in, err)
		}
		got, err := bodyFromYAML(sig, &doc)
		if err != nil {
			t.Fatalf("bodyFromYAML(%q, %q) got err: %v", tc.sig, tc.in, err)
		}
		if diff := cmp.Diff(got, tc.want); diff != "" {
			t.Fatalf("bodyFromYAML(%q, %q) wrong values (-got+want):\n%s", tc.sig, tc.in, diff)
		}

		node, err := bodyToYAML(got)
		if err != nil {
			t.Fatalf("bodyToYAML(%v) got err: %v", got, err)
		}
		out, err := yaml.Marshal(node)
		if err != nil {
			t.Fatal(err)
		}
		if testing.Verbose() {
			t.Logf("%q as YAML:\n%s", tc.sig, out)
		}
		var redoc yaml.Node
		if err := yaml.Unmarshal(out, &redoc); err != nil {
			t.Fatal(err)
		}
		again, err := bodyFromYAML(sig, &redoc)
		if err != nil {
			t.Fatalf("reparsing output of %q got err: %v\n%s", tc.sig, err, out)
		}
		if diff := cmp.Diff(again, got); diff != "" {
			t.Fatalf("YAML round trip of %q changed values (-got+want):\n%s", tc.sig, diff)
		}
	}
}

func TestYAMLErrors(t *testing.T) {
	tests := []struct {
		sig string
		in  string
	}{
		{"u", "[1, 2]"},
		{"u", "{a: 1}"},
		{"y", "[256]"},
		{"i", "[2147483648]"},
		{"b", "[maybe]"},
		{"v", "[1]"},
		{"ai", "[1]"},
		{"m", "[{a: 1}]"},
		{"m", "[{a: {'': 1}}]"},
		{"m", "[{a: {av: []}}]"},
		{"c", "[{name: x, data: zz}]"},
	}
	for _, tc := range tests {
		var doc yaml.Node
		if err := yaml.Unmarshal([]byte(tc.in), &doc); err != nil {
			t.Fatalf("parsing %q: %v", tc.in, err)
		}
		if got, err := bodyFromYAML(mustSignature(t, tc.sig), &doc); err == nil {
			t.Errorf("bodyFromYAML(%q, %q) = %v, want error", tc.sig, tc.in, got)
		}
	}
}

func mustSignature(t *testing.T, sig string) dbuswire.Signature {
	t.Helper()
	ret, err := dbuswire.ParseSignature(sig)
	if err != nil {
		t.Fatal(err)
	}
	return ret
}

func TestComparePaths(t *testing.T) {
	paths := []dbuswire.ObjectPath{"/b", "/a/z", "/", "/a", "/ab", "/a/b"}
	slices.SortFunc(paths, comparePaths)
	want := []dbuswire.ObjectPath{"/", "/a", "/a/b", "/a/z", "/ab", "/b"}
	if diff := cmp.Diff(paths, want); diff != "" {
		t.Fatalf("wrong order (-got+want):\n%s", diff)
	}
}
