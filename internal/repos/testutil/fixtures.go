package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/loungely/knowledge-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *domain.User {
	tb.Helper()
	u := &domain.User{
		ID:       uuid.New(),
		Email:    email,
		Password: "pw",
		Name:     "Admin",
		Role:     "admin",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCategory(tb testing.TB, ctx context.Context, tx *gorm.DB, loungeID *uuid.UUID, name string) *domain.Category {
	tb.Helper()
	c := &domain.Category{
		ID:       uuid.New(),
		LoungeID: loungeID,
		Name:     name,
		Slug:     name,
		IsActive: true,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed category: %v", err)
	}
	return c
}

func SeedPrompt(tb testing.TB, ctx context.Context, tx *gorm.DB, loungeID *uuid.UUID, title string) *domain.Prompt {
	tb.Helper()
	p := &domain.Prompt{
		ID:              uuid.New(),
		LoungeID:        loungeID,
		Title:           title,
		Content:         "content",
		Tags:            datatypes.JSON([]byte("[]")),
		IsActive:        true,
		IsIncludedInRAG: true,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed prompt: %v", err)
	}
	return p
}

func SeedFAQ(tb testing.TB, ctx context.Context, tx *gorm.DB, loungeID *uuid.UUID, question string) *domain.FAQ {
	tb.Helper()
	f := &domain.FAQ{
		ID:              uuid.New(),
		LoungeID:        loungeID,
		Question:        question,
		Answer:          "answer",
		Tags:            datatypes.JSON([]byte("[]")),
		IsActive:        true,
		IsIncludedInRAG: true,
	}
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed faq: %v", err)
	}
	return f
}

func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, loungeID *uuid.UUID, title string) *domain.Document {
	tb.Helper()
	d := &domain.Document{
		ID:              uuid.New(),
		LoungeID:        loungeID,
		Title:           title,
		Tags:            datatypes.JSON([]byte("[]")),
		OriginalName:    "file.pdf",
		MimeType:        "application/pdf",
		StorageKey:      "documents/" + title,
		IsActive:        true,
		IsIncludedInRAG: true,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return d
}

func SeedDocumentChunk(tb testing.TB, ctx context.Context, tx *gorm.DB, documentID uuid.UUID, index int) *domain.DocumentChunk {
	tb.Helper()
	c := &domain.DocumentChunk{
		ID:         uuid.New(),
		DocumentID: documentID,
		ChunkIndex: index,
		Text:       "chunk",
		TokenCount: 1,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed document chunk: %v", err)
	}
	return c
}

func SeedJob(tb testing.TB, ctx context.Context, tx *gorm.DB, jobType domain.JobType, entityType domain.EntityType, entityID uuid.UUID) *domain.BackgroundJob {
	tb.Helper()
	j := &domain.BackgroundJob{
		ID:         uuid.New(),
		JobType:    jobType,
		Status:     domain.JobPending,
		EntityType: entityType,
		EntityID:   &entityID,
	}
	if err := tx.WithContext(ctx).Create(j).Error; err != nil {
		tb.Fatalf("seed job: %v", err)
	}
	return j
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
