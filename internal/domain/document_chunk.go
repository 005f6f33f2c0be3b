package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DocumentChunk belongs to exactly one Document. The whole chunk set is
// deleted and regenerated together on reprocessing; no soft delete.
type DocumentChunk struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;column:document_id;not null;index" json:"document_id"`

	ChunkIndex int    `gorm:"column:chunk_index;not null" json:"chunk_index"`
	Text       string `gorm:"column:text;type:text;not null" json:"text"`
	TokenCount int    `gorm:"column:token_count;not null;default:0" json:"token_count"`

	Embedding      datatypes.JSON `gorm:"type:jsonb;column:embedding" json:"embedding,omitempty"`
	EmbeddingModel string         `gorm:"column:embedding_model" json:"embedding_model,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (DocumentChunk) TableName() string { return "document_chunk" }

// ApproxTokens estimates token count for budgeting. Four characters per token
// is close enough for English prose.
func ApproxTokens(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	t := n / 4
	if t == 0 {
		t = 1
	}
	return t
}
