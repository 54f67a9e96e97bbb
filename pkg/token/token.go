package token

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strings"
)

// Link tokens are 8 uppercase hex characters on the wire; the pairing
// command accepts 6-12 to leave room for future formats.
var linkRegex = regexp.MustCompile(`\bLINK\s+([0-9A-Fa-f]{6,12})\b`)

// RandomHex generates a random hexadecimal string of n bytes.
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Generate creates a new link token: 8 uppercase hex characters from a
// cryptographically strong source.
func Generate() (string, error) {
	s, err := RandomHex(4)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(s), nil
}

// Extract finds a "LINK <token>" pairing command in free text and returns
// the token uppercased for lookup. The match is word-bounded and
// case-insensitive in the token body; the LINK keyword itself is literal.
func Extract(text string) (string, bool) {
	m := linkRegex.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}
