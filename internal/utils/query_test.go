package utils

import (
	"reflect"
	"testing"
)

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		{"", 10, 10},
		{"42", 0, 42},
		{" 42 ", 7, 42},
		{"-13", 1, -13},
		{"x", 5, 5},
		{"999999999999999999999999", -1, -1},
	}
	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestTail(t *testing.T) {
	s := []int{1, 2, 3, 4}
	cases := []struct {
		n    int
		want []int
	}{
		{0, s},
		{-1, s},
		{2, []int{3, 4}},
		{4, s},
		{9, s},
	}
	for _, tc := range cases {
		if got := Tail(s, tc.n); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("Tail(%d) = %v; want %v", tc.n, got, tc.want)
		}
	}
	if got := Tail([]string(nil), 3); got != nil {
		t.Fatalf("nil input should stay nil")
	}
}
