package main

import "testing"

func TestAsInt(t *testing.T) {
	cases := []struct {
		in   any
		want int
	}{
		{3, 3},
		{int64(4), 4},
		{float64(5), 5}, // JSON numbers decode as float64
		{"nope", 0},
		{nil, 0},
	}
	for _, c := range cases {
		if got := asInt(c.in); got != c.want {
			t.Errorf("asInt(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}
