package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// EntityType is the closed set of knowledge item kinds a BackgroundJob or a
// search result can point at.
type EntityType string

const (
	EntityPrompt   EntityType = "prompt"
	EntityDocument EntityType = "document"
	EntityFAQ      EntityType = "faq"
)

func ParseEntityType(s string) (EntityType, error) {
	switch EntityType(s) {
	case EntityPrompt, EntityDocument, EntityFAQ:
		return EntityType(s), nil
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

// EntityRef is a weak, typed reference to one knowledge item. Jobs store it as
// (entity_type, entity_id); the constructors keep invalid combinations out.
type EntityRef struct {
	Type EntityType
	ID   uuid.UUID
}

func PromptRef(id uuid.UUID) EntityRef   { return EntityRef{Type: EntityPrompt, ID: id} }
func DocumentRef(id uuid.UUID) EntityRef { return EntityRef{Type: EntityDocument, ID: id} }
func FAQRef(id uuid.UUID) EntityRef      { return EntityRef{Type: EntityFAQ, ID: id} }

func (r EntityRef) String() string {
	return string(r.Type) + ":" + r.ID.String()
}
