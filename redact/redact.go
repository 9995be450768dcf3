package redact

import (
	"strconv"
)

// Blob hides the content of s entirely and only reports its size.
func Blob(s string) string {
	if len(s) == 0 {
		return ""
	}

	return "<redacted " + strconv.Itoa(len(s)) + " bytes>"
}
