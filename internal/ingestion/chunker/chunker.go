package chunker

import "strings"

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// Split cuts text into overlapping chunks of at most chunkSize runes.
// Each window's right edge snaps back to the nearest sentence or paragraph
// boundary, as long as that boundary lies past the window midpoint; otherwise
// the hard cut stands. The next window starts overlap runes before the
// previous end, so context carries across chunk borders.
func Split(text string, chunkSize int, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	// Work in runes so we never cut a UTF-8 sequence in half.
	r := []rune(text)

	if chunkSize < 200 {
		chunkSize = 200
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}

	out := make([]string, 0, (len(r)/(chunkSize-overlap))+1)
	start := 0
	for start < len(r) {
		end := start + chunkSize
		if end >= len(r) {
			end = len(r)
		} else {
			if b := boundaryBefore(r, start, end); b > start+chunkSize/2 {
				end = b
			}
		}

		p := strings.TrimSpace(string(r[start:end]))
		if p != "" {
			out = append(out, p)
		}

		if end == len(r) {
			break
		}

		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return out
}

// boundaryBefore finds the rightmost sentence or paragraph boundary at or
// before end, returning the rune index just past it. A paragraph boundary is
// a blank line; a lone newline inside a paragraph does not count. Returns
// start when no boundary exists in the window.
func boundaryBefore(r []rune, start, end int) int {
	for i := end - 1; i > start; i-- {
		c := r[i]
		if c == '\n' && r[i-1] == '\n' {
			return i + 1
		}
		if (c == '.' || c == '!' || c == '?') && i+1 < len(r) && isSpace(r[i+1]) {
			return i + 2
		}
	}
	return start
}

func isSpace(c rune) bool {
	return c == ' ' || c == '\n' || c == '\t'
}
