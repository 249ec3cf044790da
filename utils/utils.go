package utils

import (
	"math/rand"
	"path"
	"strings"
	"time"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

var random = rand.New(rand.NewSource(time.Now().UnixNano()))

// ContainsString returns true iff the provided string slice hay contains string
// needle.
func ContainsString(hay []string, needle string) bool {
	for _, str := range hay {
		if str == needle {
			return true
		}
	}
	return false
}

// RandomAlphabetString returns a lower case string of length n.
func RandomAlphabetString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[random.Intn(len(alphabet))]
	}
	return string(b)
}

// GetUrlExtNameWithDot returns the extension of the last path segment of a
// url or file path, including the dot, lower cased. Query strings are ignored.
func GetUrlExtNameWithDot(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return strings.ToLower(path.Ext(u))
}

// StringPtr returns nil for the empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
