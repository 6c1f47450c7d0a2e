package database

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vedhub/mailsync/internal/models"
)

// Connection pool configuration
const (
	DefaultMaxIdleConns    = 10
	DefaultMaxOpenConns    = 100
	DefaultConnMaxLifetime = time.Hour
	DefaultConnMaxIdleTime = 10 * time.Minute
)

// Options controls how the connection is opened
type Options struct {
	// Production rejects sslmode=disable
	Production bool

	// LogLevel is the gorm SQL log level
	LogLevel logger.LogLevel
}

// Connect establishes a connection to the PostgreSQL database
func Connect(databaseURL string, opts Options, log *slog.Logger) (*gorm.DB, error) {
	if log == nil {
		log = slog.Default()
	}
	if opts.Production {
		if err := validateSSLMode(databaseURL); err != nil {
			return nil, err
		}
	}
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Warn
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(opts.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	if err := configureConnectionPool(db); err != nil {
		return nil, err
	}

	log.Info("connected to database")
	return db, nil
}

// validateSSLMode ensures SSL is enabled in production
func validateSSLMode(databaseURL string) error {
	if strings.Contains(databaseURL, "sslmode=disable") {
		return fmt.Errorf("SSL mode cannot be disabled in production")
	}
	return nil
}

// configureConnectionPool sets up connection pool limits
func configureConnectionPool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(DefaultMaxIdleConns)
	sqlDB.SetMaxOpenConns(DefaultMaxOpenConns)
	sqlDB.SetConnMaxLifetime(DefaultConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(DefaultConnMaxIdleTime)

	return nil
}

// Migrate creates or updates the mirror, credential and cursor tables
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.MailboxCredential{},
		&models.MirroredMessage{},
		&models.SyncCursor{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
