package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitEmpty(t *testing.T) {
	require.Nil(t, Split("", DefaultChunkSize, DefaultOverlap))
	require.Nil(t, Split("   \n\t  ", DefaultChunkSize, DefaultOverlap))
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	text := "One short paragraph that fits in a single chunk."
	got := Split(text, DefaultChunkSize, DefaultOverlap)
	require.Equal(t, []string{text}, got)
}

func TestSplitLongTextOverlaps(t *testing.T) {
	sentence := "The quick brown fox jumps over the lazy dog. "
	text := strings.TrimSpace(strings.Repeat(sentence, 60)) // ~2700 runes

	got := Split(text, 1000, 200)
	require.GreaterOrEqual(t, len(got), 3)

	for i, c := range got {
		require.LessOrEqual(t, len([]rune(c)), 1001, "chunk %d too long", i)
		require.NotEmpty(t, c)
	}

	// Consecutive chunks share text because windows overlap.
	for i := 1; i < len(got); i++ {
		head := []rune(got[i])[:50]
		require.Contains(t, got[i-1], strings.TrimSpace(string(head)), "chunk %d does not overlap its predecessor", i)
	}
}

func TestSplitSnapsToSentenceBoundary(t *testing.T) {
	// First sentence ends past the midpoint, so the cut snaps to it instead
	// of splitting the second sentence mid-word.
	first := strings.Repeat("a", 700) + ". "
	second := strings.Repeat("b", 600) + "."
	got := Split(first+second, 1000, 200)

	require.GreaterOrEqual(t, len(got), 2)
	require.Equal(t, strings.Repeat("a", 700)+".", got[0])
}

func TestSplitSnapsToParagraphBoundary(t *testing.T) {
	first := strings.Repeat("a", 800)
	second := strings.Repeat("b", 800)
	got := Split(first+"\n\n"+second, 1000, 200)

	require.GreaterOrEqual(t, len(got), 2)
	require.Equal(t, first, got[0])
}

func TestSplitIgnoresSingleLineBreak(t *testing.T) {
	// A lone newline inside a paragraph is not a boundary; the hard cut
	// applies when no blank line or sentence end sits past the midpoint.
	text := strings.Repeat("a", 600) + "\n" + strings.Repeat("b", 900)
	got := Split(text, 1000, 200)

	require.GreaterOrEqual(t, len(got), 2)
	require.Equal(t, 1000, len([]rune(got[0])))
	require.Contains(t, got[0], "b")
}

func TestSplitIgnoresEarlyBoundary(t *testing.T) {
	// Only boundary sits before the midpoint; hard cut applies.
	text := strings.Repeat("a", 100) + ". " + strings.Repeat("b", 1500)
	got := Split(text, 1000, 200)

	require.GreaterOrEqual(t, len(got), 2)
	require.Equal(t, 1000, len([]rune(got[0])))
}

func TestSplitTerminates(t *testing.T) {
	// Degenerate overlap values must not loop forever.
	text := strings.Repeat("x", 5000)
	got := Split(text, 300, 300)
	require.NotEmpty(t, got)
	got = Split(text, 50, -10)
	require.NotEmpty(t, got)
}
