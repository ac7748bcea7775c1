// repository/db.go
package repository

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fadhlanhapp/rentlot-backend/config"
)

var (
	db     *sql.DB
	gormDB *gorm.DB
)

// InitDB initializes the database connection
func InitDB(cfg config.DatabaseConfig) error {
	switch cfg.Driver {
	case "sqlite":
		return initSQLite(cfg.SQLitePath)
	case "memory":
		// leases and anomalies still need tables; shared cache keeps one database across pool connections
		return initSQLite("file::memory:?cache=shared")
	default:
		return initPostgres(cfg)
	}
}

func initPostgres(cfg config.DatabaseConfig) error {
	// Connect to database
	var err error
	db, err = sql.Open("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err = db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// gorm shares the lib/pq pool for the lease directory and migrations
	gormDB, err = gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to open gorm session: %w", err)
	}

	slog.Info("[Repository] Successfully connected to the database", "driver", "postgres", "host", cfg.Host, "db", cfg.Name)
	return nil
}

func initSQLite(path string) error {
	var err error
	gormDB, err = gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	slog.Info("[Repository] Successfully opened sqlite database", "path", path)
	return nil
}

// CloseDB closes the database connection
func CloseDB() {
	if db != nil {
		db.Close()
		return
	}
	if gormDB != nil {
		if sqlDB, err := gormDB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

// GetDB returns the raw database instance; nil when running on sqlite
func GetDB() *sql.DB {
	return db
}

// GetGormDB returns the gorm session
func GetGormDB() *gorm.DB {
	return gormDB
}
