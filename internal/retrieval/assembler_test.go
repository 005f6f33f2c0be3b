package retrieval

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/loungely/knowledge-backend/internal/domain"
)

func TestAssembleFiltersByThreshold(t *testing.T) {
	keep := SearchResult{
		EntityType:      domain.EntityPrompt,
		EntityID:        uuid.New(),
		Title:           "Refund policy",
		ContentPreview:  "Refunds are issued within 14 days.",
		SimilarityScore: 0.82,
	}
	drop := SearchResult{
		EntityType:      domain.EntityFAQ,
		EntityID:        uuid.New(),
		Title:           "Unrelated",
		ContentPreview:  "Something else entirely.",
		SimilarityScore: 0.31,
	}

	text, sources := Assemble([]SearchResult{keep, drop}, 0.7)
	require.Contains(t, text, "[PROMPT] Refund policy:\nRefunds are issued within 14 days.")
	require.NotContains(t, text, "Unrelated")
	require.Len(t, sources, 1)
	require.Equal(t, keep.EntityID, sources[0].EntityID)
}

func TestAssembleNothingAboveThreshold(t *testing.T) {
	r := SearchResult{
		EntityType:      domain.EntityDocument,
		EntityID:        uuid.New(),
		Title:           "Handbook",
		ContentPreview:  "text",
		SimilarityScore: 0.1,
	}
	text, sources := Assemble([]SearchResult{r}, 0.7)
	require.Empty(t, text)
	require.Nil(t, sources)
}

func TestAssembleEmptyInput(t *testing.T) {
	text, sources := Assemble(nil, 0.5)
	require.Empty(t, text)
	require.Nil(t, sources)
}

func TestAssembleJoinsBlocksWithSeparator(t *testing.T) {
	a := SearchResult{EntityType: domain.EntityPrompt, Title: "A", ContentPreview: "aa", SimilarityScore: 0.9}
	b := SearchResult{EntityType: domain.EntityDocument, Title: "B", ContentPreview: "bb", SimilarityScore: 0.8}
	text, sources := Assemble([]SearchResult{a, b}, 0)
	require.Len(t, sources, 2)
	parts := strings.Split(text, blockSeparator)
	require.Len(t, parts, 2)
	require.Equal(t, "[PROMPT] A:\naa", parts[0])
	require.Equal(t, "[DOCUMENT] B:\nbb", parts[1])
}
