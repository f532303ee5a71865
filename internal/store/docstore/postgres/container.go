// Package postgres implements docstore.Container on a JSONB table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/wb-go/wbf/dbpg"

	"github.com/aliskhannn/notification-api/internal/store/docstore"
)

const uniqueViolation = "23505"

// Container stores the documents of one collection. Writes and session
// consistent patches go to the master node; plain reads may be served by replicas.
type Container struct {
	db         *dbpg.DB
	collection string
}

func NewContainer(db *dbpg.DB, collection string) *Container {
	return &Container{db: db, collection: collection}
}

var _ docstore.Container = (*Container)(nil)

// CreateItem inserts a document. A live document with the same key is a
// conflict; an expired one is overwritten.
func (c *Container) CreateItem(ctx context.Context, partitionKey, id string, doc []byte) ([]byte, error) {
	query := `
		INSERT INTO documents (collection, partition_key, id, body, expires_at)
		VALUES ($1, $2, $3, $4::jsonb, NOW() + (
		    SELECT default_ttl_seconds FROM document_collections WHERE name = $1
		) * INTERVAL '1 second')
		ON CONFLICT (collection, partition_key, id) DO UPDATE
		SET body = EXCLUDED.body, expires_at = EXCLUDED.expires_at
		WHERE documents.expires_at IS NOT NULL AND documents.expires_at <= NOW()
		RETURNING body;
    `

	var body []byte
	err := c.db.Master.QueryRowContext(ctx, query, c.collection, partitionKey, id, string(doc)).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err) {
			return nil, docstore.ErrItemExists
		}

		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	return body, nil
}

func (c *Container) ReadItem(ctx context.Context, partitionKey, id string) ([]byte, error) {
	query := `
		SELECT body
		FROM documents
		WHERE collection = $1 AND partition_key = $2 AND id = $3
		  AND (expires_at IS NULL OR expires_at > NOW());
    `

	rows, err := c.db.QueryContext(ctx, query, c.collection, partitionKey, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}

		return nil, docstore.ErrItemNotFound
	}

	var body []byte
	if err := rows.Scan(&body); err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	return body, nil
}

func (c *Container) ReplaceItem(ctx context.Context, partitionKey, id string, doc []byte) ([]byte, error) {
	query := `
		UPDATE documents
		SET body = $4::jsonb, expires_at = NOW() + (
		    SELECT default_ttl_seconds FROM document_collections WHERE name = $1
		) * INTERVAL '1 second'
		WHERE collection = $1 AND partition_key = $2 AND id = $3
		  AND (expires_at IS NULL OR expires_at > NOW())
		RETURNING body;
    `

	var body []byte
	err := c.db.Master.QueryRowContext(ctx, query, c.collection, partitionKey, id, string(doc)).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, docstore.ErrItemNotFound
		}

		return nil, fmt.Errorf("failed to replace document: %w", err)
	}

	return body, nil
}

func (c *Container) UpsertItem(ctx context.Context, partitionKey, id string, doc []byte) ([]byte, error) {
	query := `
		INSERT INTO documents (collection, partition_key, id, body, expires_at)
		VALUES ($1, $2, $3, $4::jsonb, NOW() + (
		    SELECT default_ttl_seconds FROM document_collections WHERE name = $1
		) * INTERVAL '1 second')
		ON CONFLICT (collection, partition_key, id) DO UPDATE
		SET body = EXCLUDED.body, expires_at = EXCLUDED.expires_at
		RETURNING body;
    `

	var body []byte
	err := c.db.Master.QueryRowContext(ctx, query, c.collection, partitionKey, id, string(doc)).Scan(&body)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert document: %w", err)
	}

	return body, nil
}

func (c *Container) DeleteItem(ctx context.Context, partitionKey, id string) error {
	query := `
		DELETE FROM documents
		WHERE collection = $1 AND partition_key = $2 AND id = $3
		  AND (expires_at IS NULL OR expires_at > NOW());
    `

	res, err := c.db.Master.ExecContext(ctx, query, c.collection, partitionKey, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	rows, _ := res.RowsAffected()

	if rows == 0 {
		return docstore.ErrItemNotFound
	}

	return nil
}

func (c *Container) DeleteAllByPartition(ctx context.Context, partitionKey string) (int64, error) {
	query := `
		DELETE FROM documents
		WHERE collection = $1 AND partition_key = $2
		  AND (expires_at IS NULL OR expires_at > NOW());
    `

	res, err := c.db.Master.ExecContext(ctx, query, c.collection, partitionKey)
	if err != nil {
		return 0, fmt.Errorf("failed to delete partition: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete partition: %w", err)
	}

	return rows, nil
}

// PatchItem applies ops in a single UPDATE on the master node. When no row is
// updated a follow-up lookup tells a missing document from a missing path.
func (c *Container) PatchItem(
	ctx context.Context, partitionKey, id string, ops []docstore.PatchOperation, _ docstore.ItemOptions,
) ([]byte, error) {
	args := []any{c.collection, partitionKey, id}

	expr, guard, args, err := compilePatch(ops, args)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE documents
		SET body = ` + expr + `
		WHERE collection = $1 AND partition_key = $2 AND id = $3
		  AND (expires_at IS NULL OR expires_at > NOW())` + guard + `
		RETURNING body;
    `

	var body []byte
	err = c.db.Master.QueryRowContext(ctx, query, args...).Scan(&body)
	if err == nil {
		return body, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to patch document: %w", err)
	}

	exists, err := c.exists(ctx, partitionKey, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, docstore.ErrPathNotFound
	}

	return nil, docstore.ErrItemNotFound
}

func (c *Container) exists(ctx context.Context, partitionKey, id string) (bool, error) {
	query := `
		SELECT EXISTS (
		    SELECT 1 FROM documents
		    WHERE collection = $1 AND partition_key = $2 AND id = $3
		      AND (expires_at IS NULL OR expires_at > NOW())
		);
    `

	var exists bool
	if err := c.db.Master.QueryRowContext(ctx, query, c.collection, partitionKey, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check document: %w", err)
	}

	return exists, nil
}

// Query pages through matching documents with LIMIT/OFFSET, ordered by
// partition key then id. Raw Text is a WHERE fragment over body with @name
// parameters.
func (c *Container) Query(_ context.Context, q docstore.Query) docstore.Pager {
	return &pager{c: c, q: q}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error

	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
