package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestResolveScope(t *testing.T) {
	loungeA := uuid.New()

	cases := []struct {
		name          string
		loungeID      *uuid.UUID
		includeGlobal bool
		wantKind      ScopeKind
	}{
		{"lounge with global", &loungeA, true, ScopeLoungeWithGlobal},
		{"lounge only", &loungeA, false, ScopeLounge},
		{"no lounge with global", nil, true, ScopeAll},
		{"no lounge without global", nil, false, ScopeGlobalOnly},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := ResolveScope(tc.loungeID, tc.includeGlobal)
			assert.Equal(t, tc.wantKind, s.Kind)
			if tc.loungeID != nil {
				assert.Equal(t, *tc.loungeID, s.LoungeID)
			}
		})
	}
}

func TestResolveScopeNilUUIDTreatedAsGlobal(t *testing.T) {
	nilID := uuid.Nil
	s := ResolveScope(&nilID, false)
	assert.Equal(t, ScopeGlobalOnly, s.Kind)
}

func TestScopeMatches(t *testing.T) {
	loungeA := uuid.New()
	loungeB := uuid.New()

	all := ResolveScope(nil, true)
	globalOnly := ResolveScope(nil, false)
	loungeOnly := ResolveScope(&loungeA, false)
	loungeWithGlobal := ResolveScope(&loungeA, true)

	assert.True(t, all.Matches(nil))
	assert.True(t, all.Matches(&loungeB))

	assert.True(t, globalOnly.Matches(nil))
	assert.False(t, globalOnly.Matches(&loungeA))

	assert.False(t, loungeOnly.Matches(nil))
	assert.True(t, loungeOnly.Matches(&loungeA))
	assert.False(t, loungeOnly.Matches(&loungeB))

	assert.True(t, loungeWithGlobal.Matches(nil))
	assert.True(t, loungeWithGlobal.Matches(&loungeA))
	assert.False(t, loungeWithGlobal.Matches(&loungeB))
}
