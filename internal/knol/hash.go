package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Normalize cleans a piece of card text for comparison. It trims
// whitespace, lowercases, normalizes line endings and collapses runs of
// spaces inside each line.
func Normalize(text string) string {
	t := strings.ReplaceAll(text, "\r\n", "\n")
	t = strings.ToLower(strings.TrimSpace(t))

	lines := strings.Split(t, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(lines, "\n")
}

// FrontHash returns the SHA-256 hex digest of a normalized card front.
// Imports use it to skip cards the deck already has.
func FrontHash(front string) string {
	sum := sha256.Sum256([]byte(Normalize(front)))
	return fmt.Sprintf("%x", sum)
}
