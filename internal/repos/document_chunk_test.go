package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
	"github.com/loungely/knowledge-backend/internal/repos/testutil"
)

func TestDocumentChunkRepoReplaceForDocument(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewDocumentChunkRepo(db, testutil.Logger(t))

	doc := testutil.SeedDocument(t, ctx, tx, nil, "chunk-repo-doc")
	testutil.SeedDocumentChunk(t, ctx, tx, doc.ID, 0)
	testutil.SeedDocumentChunk(t, ctx, tx, doc.ID, 1)
	testutil.SeedDocumentChunk(t, ctx, tx, doc.ID, 2)

	replacement := []*domain.DocumentChunk{
		{ID: uuid.New(), ChunkIndex: 0, Text: "new-0", TokenCount: 2},
		{ID: uuid.New(), ChunkIndex: 1, Text: "new-1", TokenCount: 2},
	}
	if err := repo.ReplaceForDocument(dbc, doc.ID, replacement); err != nil {
		t.Fatalf("ReplaceForDocument: %v", err)
	}

	rows, err := repo.ListByDocument(dbc, doc.ID)
	if err != nil {
		t.Fatalf("ListByDocument: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 chunks after replace, got %d", len(rows))
	}
	if rows[0].Text != "new-0" || rows[1].Text != "new-1" {
		t.Fatalf("unexpected chunk texts: %q %q", rows[0].Text, rows[1].Text)
	}
	for _, c := range rows {
		if c.DocumentID != doc.ID {
			t.Fatalf("chunk %s not attached to document", c.ID)
		}
	}

	// Empty replacement clears the set.
	if err := repo.ReplaceForDocument(dbc, doc.ID, nil); err != nil {
		t.Fatalf("ReplaceForDocument empty: %v", err)
	}
	rows, err = repo.ListByDocument(dbc, doc.ID)
	if err != nil || len(rows) != 0 {
		t.Fatalf("expected empty chunk set, err=%v len=%d", err, len(rows))
	}
}

func TestDocumentChunkRepoListEmbeddedByDocuments(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewDocumentChunkRepo(db, testutil.Logger(t))

	doc := testutil.SeedDocument(t, ctx, tx, nil, "embedded-chunks-doc")
	plain := testutil.SeedDocumentChunk(t, ctx, tx, doc.ID, 0)
	embedded := testutil.SeedDocumentChunk(t, ctx, tx, doc.ID, 1)

	vec := domain.EncodeVector([]float32{0.1, 0.2})
	if err := repo.UpdateFields(dbc, embedded.ID, map[string]interface{}{
		"embedding":       vec,
		"embedding_model": "test-model",
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	rows, err := repo.ListEmbeddedByDocuments(dbc, []uuid.UUID{doc.ID})
	if err != nil {
		t.Fatalf("ListEmbeddedByDocuments: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != embedded.ID {
		t.Fatalf("expected only embedded chunk, got %d rows", len(rows))
	}
	if rows[0].ID == plain.ID {
		t.Fatalf("unembedded chunk returned")
	}

	rows, err = repo.ListEmbeddedByDocuments(dbc, nil)
	if err != nil || rows != nil {
		t.Fatalf("expected nil result for empty document list, err=%v", err)
	}
}
