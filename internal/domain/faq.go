package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type FAQ struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	LoungeID   *uuid.UUID `gorm:"type:uuid;column:lounge_id;index" json:"lounge_id,omitempty"`
	CategoryID *uuid.UUID `gorm:"type:uuid;column:category_id;index" json:"category_id,omitempty"`
	Category   *Category  `gorm:"constraint:OnDelete:CASCADE;foreignKey:CategoryID;references:ID" json:"category,omitempty"`

	Question string         `gorm:"column:question;type:text;not null" json:"question"`
	Answer   string         `gorm:"column:answer;type:text;not null" json:"answer"`
	Tags     datatypes.JSON `gorm:"type:jsonb;column:tags" json:"tags"`

	IsActive        bool `gorm:"column:is_active;not null;default:true" json:"is_active"`
	IsIncludedInRAG bool `gorm:"column:is_included_in_rag;not null;default:true" json:"is_included_in_rag"`

	Embedding      datatypes.JSON `gorm:"type:jsonb;column:embedding" json:"embedding,omitempty"`
	EmbeddingModel string         `gorm:"column:embedding_model" json:"embedding_model,omitempty"`

	CreatedByID *uuid.UUID     `gorm:"type:uuid;column:created_by_id" json:"created_by_id,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (FAQ) TableName() string { return "faq" }

func (f *FAQ) EmbeddingInput() string {
	return joinEmbeddingParts(f.Question, f.Answer)
}
