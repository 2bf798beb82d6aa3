// Package utils holds small request-parsing helpers shared by the HTTP
// handlers.
package utils

import "strconv"

// PageNumber parses a 1-based "page" query value. Empty, malformed, or
// non-positive input yields page 1 so a bad client still gets the first
// page instead of an error.
func PageNumber(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
