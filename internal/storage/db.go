package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/arcanum-labs/magicshop/internal/config"
)

// Open connects to the configured database. For SQLite the parent
// directory of the database file is created if absent.
func Open(cfg *config.Config) (*sql.DB, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		path := cfg.SQLitePath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}

		db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}

		maxConns := cfg.Database.SQLite.MaxOpenConns
		if maxConns <= 0 {
			maxConns = 1
		}
		db.SetMaxOpenConns(maxConns)
		return db, nil

	case "postgres":
		db, err := sql.Open("postgres", cfg.Database.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}

		db.SetMaxOpenConns(cfg.Database.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.Postgres.ConnMaxLifetime)
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

// The DDL differs per driver only in the id column and timestamp type.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS products (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        VARCHAR(200) NOT NULL,
	description TEXT NOT NULL,
	image_path  VARCHAR(500) NOT NULL,
	price       VARCHAR(100) NOT NULL,
	category    VARCHAR(100) NOT NULL,
	tags        TEXT NOT NULL,
	rarity      VARCHAR(50) NOT NULL,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products (created_at DESC);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS products (
	id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	name        VARCHAR(200) NOT NULL,
	description TEXT NOT NULL,
	image_path  VARCHAR(500) NOT NULL,
	price       VARCHAR(100) NOT NULL,
	category    VARCHAR(100) NOT NULL,
	tags        TEXT NOT NULL,
	rarity      VARCHAR(50) NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products (created_at DESC);
`

// EnsureSchema creates the products table if it does not exist.
// Safe to call on every startup.
func EnsureSchema(ctx context.Context, db *sql.DB, driver string) error {
	schema := sqliteSchema
	if driver == "postgres" {
		schema = postgresSchema
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure products schema: %w", err)
	}
	return nil
}
