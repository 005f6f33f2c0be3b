package domain

import (
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Document is an uploaded file whose text has been (or will be) extracted,
// chunked and embedded. The document-level embedding covers title +
// description + summary; per-chunk embeddings carry the fine-grained
// retrieval signal.
type Document struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	LoungeID   *uuid.UUID `gorm:"type:uuid;column:lounge_id;index" json:"lounge_id,omitempty"`
	CategoryID *uuid.UUID `gorm:"type:uuid;column:category_id;index" json:"category_id,omitempty"`
	Category   *Category  `gorm:"constraint:OnDelete:CASCADE;foreignKey:CategoryID;references:ID" json:"category,omitempty"`

	Title       string         `gorm:"column:title;not null" json:"title"`
	Description string         `gorm:"column:description;type:text" json:"description,omitempty"`
	Tags        datatypes.JSON `gorm:"type:jsonb;column:tags" json:"tags"`

	OriginalName string `gorm:"column:original_name" json:"original_name"`
	MimeType     string `gorm:"column:mime_type" json:"mime_type"`
	StorageKey   string `gorm:"column:storage_key" json:"storage_key"`

	ExtractedText   string `gorm:"column:extracted_text;type:text" json:"extracted_text,omitempty"`
	Summary         string `gorm:"column:summary;type:text" json:"summary,omitempty"`
	IsProcessed     bool   `gorm:"column:is_processed;not null;default:false" json:"is_processed"`
	ProcessingError string `gorm:"column:processing_error" json:"processing_error,omitempty"`

	IsActive        bool `gorm:"column:is_active;not null;default:true" json:"is_active"`
	IsIncludedInRAG bool `gorm:"column:is_included_in_rag;not null;default:true" json:"is_included_in_rag"`

	Embedding      datatypes.JSON `gorm:"type:jsonb;column:embedding" json:"embedding,omitempty"`
	EmbeddingModel string         `gorm:"column:embedding_model" json:"embedding_model,omitempty"`

	Chunks []DocumentChunk `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"chunks,omitempty"`

	CreatedByID *uuid.UUID     `gorm:"type:uuid;column:created_by_id" json:"created_by_id,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Document) TableName() string { return "document" }

// EmbeddingInput builds the document-level embedding text. Falls back to the
// leading slice of extracted text when no summary has been produced.
func (d *Document) EmbeddingInput() string {
	summary := strings.TrimSpace(d.Summary)
	if summary == "" && d.ExtractedText != "" {
		r := []rune(d.ExtractedText)
		if len(r) > 1000 {
			r = r[:1000]
		}
		summary = strings.TrimSpace(string(r))
	}
	return joinEmbeddingParts(d.Title, d.Description, summary)
}

func joinEmbeddingParts(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(StripMarkup(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}

// StripMarkup removes HTML/XML tags and decodes entities so stored rich text
// embeds as plain prose. Plain strings pass through untouched.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case inTag:
			if r == '>' {
				inTag = false
			}
		case r == '<':
			inTag = true
		default:
			b.WriteRune(r)
		}
	}
	return collapseSpaces(html.UnescapeString(b.String()))
}

// collapseSpaces squeezes runs of spaces and tabs and folds non-breaking
// spaces into plain ones. Newlines survive so paragraph structure stays
// intact.
func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\u00a0' {
			pendingSpace = true
			continue
		}
		if pendingSpace && b.Len() > 0 && r != '\n' {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
