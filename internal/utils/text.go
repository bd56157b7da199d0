package utils

import (
	"strings"
)

// RemoveWhitespaces strips leading and trailing whitespace from user input.
func RemoveWhitespaces(s string) string {
	return strings.TrimSpace(s)
}

// IsBlank reports whether s holds nothing but whitespace.
func IsBlank(s string) bool {
	return RemoveWhitespaces(s) == ""
}
