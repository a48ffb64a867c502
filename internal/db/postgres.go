package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rotabull/supportsync/internal/pkg/logger"
	"github.com/rotabull/supportsync/internal/types"
	"github.com/rotabull/supportsync/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "supportsync", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.Ticket{},
		&types.TicketComment{},
		&types.SupportDoc{},
		&types.TicketCollectionRef{},
		&types.DocCollectionRef{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	if err := s.db.Exec(`
		ALTER TABLE "zendesk_ticket_comment"
		DROP CONSTRAINT IF EXISTS "fk_zendesk_ticket_comment_ticket_id"
	`).Error; err != nil {
		return fmt.Errorf("failed to drop fk_zendesk_ticket_comment_ticket_id: %w", err)
	}
	if err := s.db.Exec(`
		ALTER TABLE "zendesk_ticket_comment"
		ADD CONSTRAINT "fk_zendesk_ticket_comment_ticket_id"
		FOREIGN KEY ("ticket_id")
		REFERENCES "zendesk_ticket"("id")
		ON DELETE CASCADE
	`).Error; err != nil {
		return fmt.Errorf("failed to add fk_zendesk_ticket_comment_ticket_id: %w", err)
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
