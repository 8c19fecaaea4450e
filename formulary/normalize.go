package formulary

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a user-typed drug or indication name for lookup:
// NFKC unicode normalization (full-width Latin and compatibility forms are
// common in Thai-keyboard input), trimmed, lower-cased. NFKC decomposes
// Thai SARA AM (U+0E33) into NIKHAHIT + SARA AA, so normalized strings are
// lookup keys, not display text. Lookup is case-insensitive everywhere; the
// same normalization is applied to catalog names at load time so the two
// sides always agree.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(s)))
}
