package util

import (
	"strconv"
	"strings"
)

// ParseID parses a decimal id, ignoring surrounding space. ok is false for
// anything that is not a positive integer.
func ParseID(s string) (id int64, ok bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
