package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Prompt is a short reusable instruction snippet that can be injected as RAG
// context. Nil LoungeID means global.
type Prompt struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	LoungeID   *uuid.UUID `gorm:"type:uuid;column:lounge_id;index" json:"lounge_id,omitempty"`
	CategoryID *uuid.UUID `gorm:"type:uuid;column:category_id;index" json:"category_id,omitempty"`
	Category   *Category  `gorm:"constraint:OnDelete:CASCADE;foreignKey:CategoryID;references:ID" json:"category,omitempty"`

	Title       string         `gorm:"column:title;not null" json:"title"`
	Content     string         `gorm:"column:content;type:text;not null" json:"content"`
	Description string         `gorm:"column:description;type:text" json:"description,omitempty"`
	Tags        datatypes.JSON `gorm:"type:jsonb;column:tags" json:"tags"`

	IsActive        bool `gorm:"column:is_active;not null;default:true" json:"is_active"`
	IsIncludedInRAG bool `gorm:"column:is_included_in_rag;not null;default:true" json:"is_included_in_rag"`

	// Embedding is non-null only while EmbeddingModel is set and the tracked
	// content fields have not changed since generation.
	Embedding      datatypes.JSON `gorm:"type:jsonb;column:embedding" json:"embedding,omitempty"`
	EmbeddingModel string         `gorm:"column:embedding_model" json:"embedding_model,omitempty"`

	CreatedByID *uuid.UUID     `gorm:"type:uuid;column:created_by_id" json:"created_by_id,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Prompt) TableName() string { return "prompt" }

// EmbeddingInput is the text handed to the embedding provider for this item.
func (p *Prompt) EmbeddingInput() string {
	return joinEmbeddingParts(p.Title, p.Content)
}
