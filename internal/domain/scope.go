package domain

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScopeKind int

const (
	// ScopeAll applies no lounge filter: global and lounge-scoped rows alike.
	ScopeAll ScopeKind = iota
	// ScopeGlobalOnly matches rows with no lounge (lounge_id IS NULL).
	ScopeGlobalOnly
	// ScopeLounge matches rows belonging to exactly one lounge.
	ScopeLounge
	// ScopeLoungeWithGlobal matches one lounge's rows plus global rows.
	ScopeLoungeWithGlobal
)

// Scope is the resolved tenant visibility for a query. Every list, search and
// stat query in the system goes through ResolveScope + Apply; nothing else is
// allowed to filter on lounge_id.
type Scope struct {
	Kind     ScopeKind
	LoungeID uuid.UUID
}

// ResolveScope maps the caller-facing (lounge_id, include_global) pair onto a
// Scope:
//
//	lounge given, include_global      -> lounge rows OR global rows
//	lounge given, !include_global     -> lounge rows only
//	no lounge,    include_global      -> everything (no filter)
//	no lounge,    !include_global     -> global rows only
func ResolveScope(loungeID *uuid.UUID, includeGlobal bool) Scope {
	if loungeID != nil && *loungeID != uuid.Nil {
		if includeGlobal {
			return Scope{Kind: ScopeLoungeWithGlobal, LoungeID: *loungeID}
		}
		return Scope{Kind: ScopeLounge, LoungeID: *loungeID}
	}
	if includeGlobal {
		return Scope{Kind: ScopeAll}
	}
	return Scope{Kind: ScopeGlobalOnly}
}

// Apply attaches the scope's lounge filter to a query.
func (s Scope) Apply(q *gorm.DB) *gorm.DB {
	switch s.Kind {
	case ScopeGlobalOnly:
		return q.Where("lounge_id IS NULL")
	case ScopeLounge:
		return q.Where("lounge_id = ?", s.LoungeID)
	case ScopeLoungeWithGlobal:
		return q.Where("lounge_id = ? OR lounge_id IS NULL", s.LoungeID)
	default:
		return q
	}
}

// Matches reports whether a row with the given lounge_id is visible under the
// scope. Mirror of Apply for in-memory filtering.
func (s Scope) Matches(loungeID *uuid.UUID) bool {
	switch s.Kind {
	case ScopeGlobalOnly:
		return loungeID == nil
	case ScopeLounge:
		return loungeID != nil && *loungeID == s.LoungeID
	case ScopeLoungeWithGlobal:
		return loungeID == nil || *loungeID == s.LoungeID
	default:
		return true
	}
}
