package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/model"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/database"
	"github.com/masumBillah-1/AssetVerse-Server-Site/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// emptyArray guards array predicates against NULL columns
const emptyArray = "ARRAY[]::text[]"

// PostgresStore implements Store on PostgreSQL through gorm
type PostgresStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPostgresStore wraps an open gorm connection
func NewPostgresStore(db *gorm.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// Migrate creates or updates every table
func (s *PostgresStore) Migrate() error {
	models := model.All()
	if err := database.MigrateModels(s.db, models...); err != nil {
		return err
	}
	s.logger.Info("Database schema migrated", zap.Int("tables", len(models)))
	return nil
}

// Ping checks the database connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *PostgresStore) withContext(ctx context.Context, op string) (*gorm.DB, func()) {
	done := prometheus.TrackDBOperation(op)
	start := time.Now()
	return s.db.WithContext(ctx), func() { done(start) }
}

// translate maps gorm errors onto the store sentinels
func translate(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		err = ErrDuplicate
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// requireRows turns an UPDATE/DELETE that matched nothing into ErrNotFound
func requireRows(result *gorm.DB, format string, args ...interface{}) error {
	if result.Error != nil {
		return translate(result.Error, format, args...)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
	}
	return nil
}
