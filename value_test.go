package dbuswire

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDict(t *testing.T) {
	var nilDict *Dict
	if nilDict.Len() != 0 || nilDict.Keys() != nil || nilDict.Contains("a") {
		t.Fatal("nil Dict is not empty")
	}
	for range nilDict.All() {
		t.Fatal("nil Dict has entries")
	}

	d := NewDict("b", uint32(1), "a", "two")
	d.Set("c", nil)
	if diff := cmp.Diff(d.Keys(), []string{"b", "a", "c"}); diff != "" {
		t.Fatalf("wrong keys (-got+want):\n%s", diff)
	}

	d.Set("b", true)
	if diff := cmp.Diff(d.Keys(), []string{"b", "a", "c"}); diff != "" {
		t.Fatalf("Set of existing name reordered keys (-got+want):\n%s", diff)
	}
	if v, ok := d.Get("b"); !ok || v != true {
		t.Fatalf(`Get("b") = %v, %v, want true, true`, v, ok)
	}
	if v, ok := d.Get("c"); !ok || v != nil {
		t.Fatalf(`Get("c") = %v, %v, want nil, true`, v, ok)
	}
	if _, ok := d.Get("z"); ok {
		t.Fatal(`Get("z") found a value`)
	}

	if sig, ok := d.ValueType("a"); !ok || sig.String() != "s" {
		t.Errorf(`ValueType("a") = %q, %v, want s`, sig, ok)
	}
	if sig, ok := d.ValueType("c"); !ok || sig.String() != "v" {
		t.Errorf(`ValueType("c") = %q, %v, want v`, sig, ok)
	}
	d.Set("bad", 42)
	if _, ok := d.ValueType("bad"); ok {
		t.Error(`ValueType("bad") reported a signature for an int`)
	}
	if _, ok := d.ValueType("missing"); ok {
		t.Error(`ValueType("missing") reported a signature`)
	}

	if !d.Remove("bad") || d.Remove("bad") {
		t.Fatal("Remove reported wrong presence")
	}
	if !d.Remove("b") {
		t.Fatal(`Remove("b") failed`)
	}
	var got []string
	for k := range d.All() {
		got = append(got, k)
	}
	if diff := cmp.Diff(got, []string{"a", "c"}); diff != "" {
		t.Fatalf("wrong entries after Remove (-got+want):\n%s", diff)
	}
	if d.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", d.Len())
	}

	var zero Dict
	zero.Set("x", byte(1))
	if !zero.Equal(NewDict("x", byte(1))) {
		t.Fatal("zero Dict is not usable")
	}
}

func TestDictEqual(t *testing.T) {
	tests := []struct {
		a, b *Dict
		want bool
	}{
		{nil, nil, true},
		{nil, NewDict(), true},
		{NewDict("a", int32(1)), NewDict("a", int32(1)), true},
		{NewDict("a", []byte{1}), NewDict("a", []byte{1}), true},
		{NewDict("a", int32(1)), NewDict("a", uint32(1)), false},
		{NewDict("a", int32(1), "b", nil), NewDict("b", nil, "a", int32(1)), false},
		{NewDict("a", int32(1)), NewDict("a", int32(1), "b", nil), false},
		{NewDict("d", NewDict("x", "y")), NewDict("d", NewDict("x", "y")), true},
	}
	for _, tc := range tests {
		if got := tc.a.Equal(tc.b); got != tc.want {
			t.Errorf("%s.Equal(%s) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestNewDictPanics(t *testing.T) {
	for _, args := range [][]any{{"a"}, {1, 2}} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("NewDict(%v) did not panic", args)
				}
			}()
			NewDict(args...)
		}()
	}
}
