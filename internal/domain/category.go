package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups knowledge items. A nil LoungeID means the category is
// global and visible to every lounge.
type Category struct {
	ID       uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	LoungeID *uuid.UUID `gorm:"type:uuid;column:lounge_id;index" json:"lounge_id,omitempty"`

	Name         string `gorm:"column:name;not null" json:"name"`
	Slug         string `gorm:"column:slug;not null;index" json:"slug"`
	DisplayOrder int    `gorm:"column:display_order;not null;default:0" json:"display_order"`
	IsActive     bool   `gorm:"column:is_active;not null;default:true" json:"is_active"`

	CreatedByID *uuid.UUID     `gorm:"type:uuid;column:created_by_id" json:"created_by_id,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Category) TableName() string { return "category" }
