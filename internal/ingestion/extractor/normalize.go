package extractor

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// decodeText returns valid UTF-8 for a plain-text payload. Files that are not
// valid UTF-8 are reinterpreted as Latin-1, which can represent any byte
// sequence.
func decodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return sanitizeUTF8(string(b))
	}
	return string(decoded)
}

// sanitizeUTF8 drops invalid byte sequences.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}

// Normalize collapses runs of spaces and tabs inside lines while keeping
// paragraph structure: any blank-line gap becomes exactly one blank line.
// Chunking relies on those boundaries.
func Normalize(s string) string {
	s = sanitizeUTF8(s)
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blankRun := true
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blankRun {
				out = append(out, "")
			}
			blankRun = true
			continue
		}
		out = append(out, line)
		blankRun = false
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
