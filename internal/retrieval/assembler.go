package retrieval

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/loungely/knowledge-backend/internal/domain"
)

const blockSeparator = "\n\n---\n\n"

// Source identifies where a context block came from, for citation in the
// chat response.
type Source struct {
	EntityType domain.EntityType `json:"entity_type"`
	EntityID   uuid.UUID         `json:"entity_id"`
	Title      string            `json:"title"`
}

// Assemble turns ranked results into the context text injected into the model
// prompt. Results below threshold are dropped; an empty outcome is valid and
// means the answer should not be augmented.
func Assemble(results []SearchResult, threshold float64) (string, []Source) {
	var blocks []string
	var sources []Source
	for _, r := range results {
		if r.SimilarityScore < threshold {
			continue
		}
		label := strings.ToUpper(string(r.EntityType))
		blocks = append(blocks, fmt.Sprintf("[%s] %s:\n%s", label, r.Title, r.ContentPreview))
		sources = append(sources, Source{
			EntityType: r.EntityType,
			EntityID:   r.EntityID,
			Title:      r.Title,
		})
	}
	if len(blocks) == 0 {
		return "", nil
	}
	return strings.Join(blocks, blockSeparator), sources
}
