package service

import (
	"strings"
	"unicode"
)

// outputsMatch compares program output with the expected answer, ignoring trailing whitespace only.
func outputsMatch(actual, expected string) bool {
	return trimTrailing(actual) == trimTrailing(expected)
}

func trimTrailing(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}
