package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/kydy-backend/internal/logger"
	"github.com/yungbote/kydy-backend/internal/types"
	"github.com/yungbote/kydy-backend/internal/utils"
)

type DBService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewDBService connects to Postgres when POSTGRES_HOST is set and falls back
// to an embedded SQLite file otherwise, so a single binary runs with no
// external services.
func NewDBService(log *logger.Logger) (*DBService, error) {
	serviceLog := log.With("service", "DBService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "", log)
	if postgresHost != "" {
		return newPostgres(postgresHost, serviceLog, log)
	}
	return newSQLite(serviceLog, log)
}

func newPostgres(host string, serviceLog, log *logger.Logger) (*DBService, error) {
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "kydy", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, host, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...", "host", host, "database", postgresName)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return &DBService{db: db, log: serviceLog}, nil
}

func newSQLite(serviceLog, log *logger.Logger) (*DBService, error) {
	path := utils.GetEnv("SQLITE_PATH", "data/kydy.db", log)
	serviceLog.Info("POSTGRES_HOST not set, using SQLite", "path", path)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		serviceLog.Error("Failed to open SQLite database", "error", err)
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return &DBService{db: db, log: serviceLog}, nil
}

func (s *DBService) DB() *gorm.DB { return s.db }

func (s *DBService) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	err := s.db.AutoMigrate(
		&types.Lesson{},
		&types.Session{},
	)
	if err != nil {
		s.log.Error("Failed to auto migrate tables", "error", err)
		return err
	}
	s.log.Info("Tables migrated")
	return nil
}
