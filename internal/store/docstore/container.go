// Package docstore describes a partitioned JSON document container and the
// values, filters and patch operations it understands.
package docstore

import (
	"context"
	"errors"
)

var (
	ErrItemExists       = errors.New("item already exists")
	ErrItemNotFound     = errors.New("item not found")
	ErrPathNotFound     = errors.New("patch path not found")
	ErrUnsupportedQuery = errors.New("query not supported by container")
)

// ConsistencyLevel selects the read-your-writes guarantee of a single call.
type ConsistencyLevel int

const (
	ConsistencyDefault ConsistencyLevel = iota
	// ConsistencySession guarantees the caller observes its own prior writes.
	ConsistencySession
)

type ItemOptions struct {
	Consistency ConsistencyLevel
}

// Container stores JSON documents addressed by (partition key, id).
type Container interface {
	CreateItem(ctx context.Context, partitionKey, id string, doc []byte) ([]byte, error)
	ReadItem(ctx context.Context, partitionKey, id string) ([]byte, error)
	ReplaceItem(ctx context.Context, partitionKey, id string, doc []byte) ([]byte, error)
	UpsertItem(ctx context.Context, partitionKey, id string, doc []byte) ([]byte, error)
	DeleteItem(ctx context.Context, partitionKey, id string) error
	DeleteAllByPartition(ctx context.Context, partitionKey string) (int64, error)
	PatchItem(ctx context.Context, partitionKey, id string, ops []PatchOperation, opts ItemOptions) ([]byte, error)
	Query(ctx context.Context, q Query) Pager
}

// Pager walks the result pages of a query. It is forward-only.
type Pager interface {
	More() bool
	NextPage(ctx context.Context) ([][]byte, error)
}

// Query selects documents either through a structured Filter or through raw
// container-specific Text with named parameters. Text wins when both are set.
type Query struct {
	Filter       Filter
	Text         string
	Params       map[string]any
	PartitionKey string // empty means cross-partition
	PageSize     int
	Limit        int // 0 means unlimited
}

const DefaultPageSize = 100

func (q Query) EffectivePageSize() int {
	if q.PageSize <= 0 {
		return DefaultPageSize
	}

	return q.PageSize
}
