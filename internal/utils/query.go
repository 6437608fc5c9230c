// Package utils provides small helpers for the HTTP layer that carry no
// domain knowledge.
package utils

import (
	"strconv"
	"strings"
)

// AtoiDefault parses s as an int, returning def when s is blank or invalid.
// Surrounding whitespace is ignored.
func AtoiDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Tail returns the last n elements of s. n <= 0 or n >= len(s) returns s.
func Tail[T any](s []T, n int) []T {
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}
