package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/envutil"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	host := envutil.Get("POSTGRES_HOST", "localhost")
	port := envutil.Get("POSTGRES_PORT", "5432")
	user := envutil.Get("POSTGRES_USER", "postgres")
	password := envutil.Get("POSTGRES_PASSWORD", "")
	name := envutil.Get("POSTGRES_NAME", "knowledge")
	sslmode := envutil.Get("POSTGRES_SSLMODE", "disable")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, name, sslmode)

	serviceLog.Info("connecting to postgres", "host", host, "db", name)
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return nil, fmt.Errorf("enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("auto migrating postgres tables")
	err := s.db.AutoMigrate(
		&domain.User{},
		&domain.Category{},
		&domain.Prompt{},
		&domain.FAQ{},
		&domain.Document{},
		&domain.DocumentChunk{},
		&domain.BackgroundJob{},
	)
	if err != nil {
		s.log.Error("auto migration failed", "error", err)
		return err
	}
	if err := s.db.Exec(`
		ALTER TABLE "document_chunk"
		DROP CONSTRAINT IF EXISTS "fk_document_chunk_document_id";
	`).Error; err != nil {
		return fmt.Errorf("reset fk_document_chunk_document_id: %w", err)
	}
	if err := s.db.Exec(`
		ALTER TABLE "document_chunk"
		ADD CONSTRAINT "fk_document_chunk_document_id"
		FOREIGN KEY ("document_id")
		REFERENCES "document"("id")
		ON DELETE CASCADE
	`).Error; err != nil {
		return fmt.Errorf("add fk_document_chunk_document_id: %w", err)
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
