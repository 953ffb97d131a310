package cmp_test

import (
	"testing"

	"github.com/chrisstore/store/pkg/utils/cmp"
)

func TestSliceContentEq(t *testing.T) {
	for name, testcase := range map[string]struct {
		a, b []string
		then bool
	}{
		"same order":       {a: []string{"a", "b", "c"}, b: []string{"a", "b", "c"}, then: true},
		"shuffled":         {a: []string{"a", "b", "c"}, b: []string{"c", "a", "b"}, then: true},
		"extra":            {a: []string{"a", "b", "c"}, b: []string{"c", "b", "a", "z"}, then: false},
		"multiplicity":     {a: []string{"a", "b", "c", "c"}, b: []string{"a", "b", "b", "c"}, then: false},
		"empty":            {a: []string{}, b: nil, then: true},
		"different member": {a: []string{"a", "b", "c"}, b: []string{"c", "b", "z"}, then: false},
	} {
		t.Run(name, func(t *testing.T) {
			if actual := cmp.SliceContentEq(testcase.a, testcase.b); actual != testcase.then {
				t.Errorf("SliceContentEq(%v, %v) = %v", testcase.a, testcase.b, actual)
			}
		})
	}
}

func TestMapEqWith(t *testing.T) {
	eq := func(a int, b string) bool { return len(b) == a }
	if !cmp.MapEqWith(map[string]int{"x": 1, "y": 2}, map[string]string{"x": "a", "y": "bb"}, eq) {
		t.Error("equivalent maps are not equal")
	}
	if cmp.MapEqWith(map[string]int{"x": 1}, map[string]string{"y": "a"}, eq) {
		t.Error("maps with different keys are equal")
	}
}
