package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
	"github.com/loungely/knowledge-backend/internal/repos/testutil"
)

func TestPromptRepoScopeFiltering(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewPromptRepo(db, testutil.Logger(t))

	loungeA := uuid.New()
	loungeB := uuid.New()

	global := testutil.SeedPrompt(t, ctx, tx, nil, "global-prompt")
	inA := testutil.SeedPrompt(t, ctx, tx, &loungeA, "lounge-a-prompt")
	testutil.SeedPrompt(t, ctx, tx, &loungeB, "lounge-b-prompt")

	ids := func(rows []*domain.Prompt) map[uuid.UUID]bool {
		m := map[uuid.UUID]bool{}
		for _, r := range rows {
			m[r.ID] = true
		}
		return m
	}

	// Lounge A with globals sees its own rows plus global rows.
	rows, err := repo.List(dbc, domain.ResolveScope(&loungeA, true), nil, false)
	if err != nil {
		t.Fatalf("List lounge+global: %v", err)
	}
	got := ids(rows)
	if len(rows) != 2 || !got[global.ID] || !got[inA.ID] {
		t.Fatalf("lounge+global scope returned wrong rows: %v", got)
	}

	// Lounge A exclusive drops globals.
	rows, err = repo.List(dbc, domain.ResolveScope(&loungeA, false), nil, false)
	if err != nil {
		t.Fatalf("List lounge only: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != inA.ID {
		t.Fatalf("lounge-only scope returned wrong rows")
	}

	// No lounge, globals only.
	rows, err = repo.List(dbc, domain.ResolveScope(nil, false), nil, false)
	if err != nil {
		t.Fatalf("List global only: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != global.ID {
		t.Fatalf("global-only scope returned wrong rows")
	}

	// No lounge with globals is unfiltered.
	rows, err = repo.List(dbc, domain.ResolveScope(nil, true), nil, false)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("unfiltered scope returned %d rows, want 3", len(rows))
	}
}

func TestPromptRepoListForRAG(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewPromptRepo(db, testutil.Logger(t))

	embedded := testutil.SeedPrompt(t, ctx, tx, nil, "rag-embedded")
	bare := testutil.SeedPrompt(t, ctx, tx, nil, "rag-bare")
	excluded := testutil.SeedPrompt(t, ctx, tx, nil, "rag-excluded")
	inactive := testutil.SeedPrompt(t, ctx, tx, nil, "rag-inactive")

	vec := domain.EncodeVector([]float32{1, 0})
	if err := repo.UpdateFields(dbc, embedded.ID, map[string]interface{}{
		"embedding":       vec,
		"embedding_model": "test-model",
	}); err != nil {
		t.Fatalf("embed: %v", err)
	}
	if err := repo.UpdateFields(dbc, excluded.ID, map[string]interface{}{
		"embedding":          vec,
		"is_included_in_rag": false,
	}); err != nil {
		t.Fatalf("exclude: %v", err)
	}
	if err := repo.UpdateFields(dbc, inactive.ID, map[string]interface{}{
		"embedding": vec,
		"is_active": false,
	}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	rows, err := repo.ListForRAG(dbc, domain.ResolveScope(nil, true), nil)
	if err != nil {
		t.Fatalf("ListForRAG: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != embedded.ID {
		t.Fatalf("ListForRAG returned %d rows, want exactly the embedded prompt", len(rows))
	}

	missing, err := repo.ListMissingEmbedding(dbc, domain.ResolveScope(nil, true))
	if err != nil {
		t.Fatalf("ListMissingEmbedding: %v", err)
	}
	if len(missing) != 1 || missing[0].ID != bare.ID {
		t.Fatalf("ListMissingEmbedding returned %d rows, want the bare prompt", len(missing))
	}
}
