package mesh

import (
	"strconv"
	"strings"
)

// NormalizeNodeID canonicalizes a raw sender identifier into lowercase hex
// with no leading zero padding. Bare all-digit input is read as decimal and
// re-encoded as hex; a "!"-prefixed value is always hex, as is anything
// containing hex letters. Surrounding whitespace is stripped. Empty or
// unusable input yields "" and callers must drop the message.
func NormalizeNodeID(raw string) string {
	s := strings.TrimSpace(raw)
	hadSigil := strings.HasPrefix(s, "!")
	s = strings.ToLower(strings.TrimSpace(strings.TrimLeft(s, "!")))
	if s == "" {
		return ""
	}
	if !hadSigil && isAllDigits(s) {
		if n, err := strconv.ParseUint(s, 10, 64); err == nil {
			return strconv.FormatUint(n, 16)
		}
		// Digit strings too long for uint64 fall through as hex.
	}
	return s
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
