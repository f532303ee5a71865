package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/wb-go/wbf/dbpg"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the embedded schema migrations to the database at dsn.
func Migrate(dsn string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Provision creates the collection or updates its settings. Safe to repeat.
func Provision(ctx context.Context, db *dbpg.DB, collection, partitionKeyPath string, defaultTTL time.Duration) error {
	query := `
		INSERT INTO document_collections (name, partition_key_path, default_ttl_seconds)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		SET partition_key_path = EXCLUDED.partition_key_path,
		    default_ttl_seconds = EXCLUDED.default_ttl_seconds;
    `

	var ttl any
	if defaultTTL > 0 {
		ttl = int64(defaultTTL / time.Second)
	}

	if _, err := db.Master.ExecContext(ctx, query, collection, partitionKeyPath, ttl); err != nil {
		return fmt.Errorf("failed to provision collection %s: %w", collection, err)
	}

	return nil
}

// PurgeExpired deletes the documents whose TTL has elapsed.
func (c *Container) PurgeExpired(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM documents
		WHERE collection = $1 AND expires_at IS NOT NULL AND expires_at <= NOW();
    `

	res, err := c.db.Master.ExecContext(ctx, query, c.collection)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired documents: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired documents: %w", err)
	}

	return rows, nil
}
