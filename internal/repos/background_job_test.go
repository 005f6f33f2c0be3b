package repos

import (
	"context"
	"testing"
	"time"

	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
	"github.com/loungely/knowledge-backend/internal/repos/testutil"
)

func TestBackgroundJobRepoClaimNextPending(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewBackgroundJobRepo(db, testutil.Logger(t))

	p := testutil.SeedPrompt(t, ctx, tx, nil, "claim-target")
	older := testutil.SeedJob(t, ctx, tx, domain.JobPromptEmbedding, domain.EntityPrompt, p.ID)

	now := time.Now().UTC()
	claimed, err := repo.ClaimNextPending(dbc, now)
	if err != nil {
		t.Fatalf("ClaimNextPending: %v", err)
	}
	if claimed == nil || claimed.ID != older.ID {
		t.Fatalf("expected to claim seeded job")
	}
	if claimed.Status != domain.JobProcessing {
		t.Fatalf("claimed status = %s, want processing", claimed.Status)
	}
	if claimed.StartedAt == nil || claimed.HeartbeatAt == nil {
		t.Fatalf("claim must stamp started_at and heartbeat_at")
	}

	got, err := repo.GetByID(dbc, older.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.JobProcessing {
		t.Fatalf("persisted status = %s, want processing", got.Status)
	}

	// No pending jobs left.
	claimed, err = repo.ClaimNextPending(dbc, now)
	if err != nil {
		t.Fatalf("ClaimNextPending empty: %v", err)
	}
	if claimed != nil {
		t.Fatalf("expected nil claim on empty queue, got %s", claimed.ID)
	}
}

func TestBackgroundJobRepoTerminalGuard(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewBackgroundJobRepo(db, testutil.Logger(t))

	p := testutil.SeedPrompt(t, ctx, tx, nil, "terminal-guard")
	j := testutil.SeedJob(t, ctx, tx, domain.JobPromptEmbedding, domain.EntityPrompt, p.ID)

	now := time.Now().UTC()
	if err := repo.UpdateFieldsUnlessTerminal(dbc, j.ID, map[string]interface{}{
		"status":       domain.JobCompleted,
		"progress":     100.0,
		"completed_at": now,
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// Any later write must be a no-op.
	if err := repo.UpdateFieldsUnlessTerminal(dbc, j.ID, map[string]interface{}{
		"status":        domain.JobFailed,
		"error_message": "late failure",
	}); err != nil {
		t.Fatalf("late update: %v", err)
	}

	got, err := repo.GetByID(dbc, j.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.JobCompleted {
		t.Fatalf("terminal status overwritten: %s", got.Status)
	}
	if got.ErrorMessage != "" {
		t.Fatalf("error message written to terminal job")
	}
}

func TestBackgroundJobRepoHasRunnableForEntity(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewBackgroundJobRepo(db, testutil.Logger(t))

	p := testutil.SeedPrompt(t, ctx, tx, nil, "dedupe-target")
	j := testutil.SeedJob(t, ctx, tx, domain.JobPromptEmbedding, domain.EntityPrompt, p.ID)

	ok, err := repo.HasRunnableForEntity(dbc, domain.JobPromptEmbedding, domain.EntityPrompt, p.ID)
	if err != nil || !ok {
		t.Fatalf("expected runnable job, err=%v ok=%v", err, ok)
	}

	now := time.Now().UTC()
	if err := repo.UpdateFieldsUnlessTerminal(dbc, j.ID, map[string]interface{}{
		"status":       domain.JobFailed,
		"completed_at": now,
	}); err != nil {
		t.Fatalf("fail job: %v", err)
	}

	ok, err = repo.HasRunnableForEntity(dbc, domain.JobPromptEmbedding, domain.EntityPrompt, p.ID)
	if err != nil || ok {
		t.Fatalf("terminal job counted as runnable, err=%v ok=%v", err, ok)
	}
}

func TestBackgroundJobRepoFailStale(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewBackgroundJobRepo(db, testutil.Logger(t))

	p := testutil.SeedPrompt(t, ctx, tx, nil, "stale-target")
	j := testutil.SeedJob(t, ctx, tx, domain.JobPromptEmbedding, domain.EntityPrompt, p.ID)

	now := time.Now().UTC()
	stale := now.Add(-time.Hour)
	if err := repo.UpdateFieldsUnlessTerminal(dbc, j.ID, map[string]interface{}{
		"status":       domain.JobProcessing,
		"started_at":   stale,
		"heartbeat_at": stale,
	}); err != nil {
		t.Fatalf("mark processing: %v", err)
	}

	n, err := repo.FailStale(dbc, now.Add(-30*time.Minute), now)
	if err != nil {
		t.Fatalf("FailStale: %v", err)
	}
	if n != 1 {
		t.Fatalf("FailStale affected %d rows, want 1", n)
	}

	got, err := repo.GetByID(dbc, j.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.JobFailed {
		t.Fatalf("stale job status = %s, want failed", got.Status)
	}
	if got.ErrorMessage == "" {
		t.Fatalf("stale failure must carry an error message")
	}
}
