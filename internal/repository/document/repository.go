// Package document is a generic, partition-aware repository over a
// docstore.Container.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/aliskhannn/notification-api/internal/store/docstore"
)

// Entity is anything stored as a document addressed by its id.
type Entity interface {
	GetID() string
}

// Codec converts entities to and from their stored JSON form.
type Codec[T any] interface {
	Marshal(T) ([]byte, error)
	Unmarshal([]byte) (T, error)
}

// JSONCodec encodes T with encoding/json.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Marshal(v T) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec[T]) Unmarshal(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)

	return v, err
}

// Repository stores entities of type T in one container.
type Repository[T Entity] struct {
	container  docstore.Container
	codec      Codec[T]
	entityName string
	immutable  [][]string
}

// Option configures a Repository.
type Option func(*options)

type options struct {
	immutable []string
}

// WithImmutablePaths rejects patch operations touching paths, typically the
// partition key path and a type discriminator. /id is always immutable.
func WithImmutablePaths(paths ...string) Option {
	return func(o *options) {
		o.immutable = append(o.immutable, paths...)
	}
}

// NewRepository creates a repository. entityName is used in error messages.
func NewRepository[T Entity](container docstore.Container, codec Codec[T], entityName string, opts ...Option) *Repository[T] {
	o := options{immutable: []string{"/id"}}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Repository[T]{container: container, codec: codec, entityName: entityName}
	for _, p := range o.immutable {
		if segs, err := docstore.SplitPath(p); err == nil {
			r.immutable = append(r.immutable, segs)
		}
	}

	return r
}

// partitionOf falls back to the id when no partition key is given.
func partitionOf(id, partitionKey string) string {
	if strings.TrimSpace(partitionKey) == "" {
		return id
	}

	return partitionKey
}

// Create inserts entity. An existing document with the same id and partition
// key yields a *ConflictError.
func (r *Repository[T]) Create(ctx context.Context, entity T, partitionKey string) (T, error) {
	var zero T

	id := entity.GetID()
	if id == "" {
		return zero, &ArgumentError{Index: -1, Reason: r.entityName + " has no id"}
	}

	doc, err := r.codec.Marshal(entity)
	if err != nil {
		return zero, fmt.Errorf("encode %s: %w", r.entityName, err)
	}

	stored, err := r.container.CreateItem(ctx, partitionOf(id, partitionKey), id, doc)
	if err != nil {
		if errors.Is(err, docstore.ErrItemExists) {
			return zero, &ConflictError{Entity: r.entityName, ID: id, Err: err}
		}

		return zero, fmt.Errorf("create %s: %w", r.entityName, err)
	}

	return r.decode(stored)
}

// GetByID reads one document. A missing document is reported as found=false
// with a nil error.
func (r *Repository[T]) GetByID(ctx context.Context, id, partitionKey string) (T, bool, error) {
	var zero T

	doc, err := r.container.ReadItem(ctx, partitionOf(id, partitionKey), id)
	if err != nil {
		if errors.Is(err, docstore.ErrItemNotFound) {
			return zero, false, nil
		}

		return zero, false, fmt.Errorf("get %s: %w", r.entityName, err)
	}

	entity, err := r.decode(doc)
	if err != nil {
		return zero, false, err
	}

	return entity, true, nil
}

// Query lazily yields the documents matching filter across all partitions.
func (r *Repository[T]) Query(ctx context.Context, filter docstore.Filter) iter.Seq2[T, error] {
	return r.run(ctx, docstore.Query{Filter: filter})
}

// QueryRaw runs container-specific query text with @name parameters.
func (r *Repository[T]) QueryRaw(ctx context.Context, text string, params map[string]any) iter.Seq2[T, error] {
	return r.run(ctx, docstore.Query{Text: text, Params: params})
}

// run yields results page by page. The returned sequence owns one pager and
// can be ranged over once.
func (r *Repository[T]) run(ctx context.Context, q docstore.Query) iter.Seq2[T, error] {
	pager := r.container.Query(ctx, q)
	var zero T

	return func(yield func(T, error) bool) {
		for pager.More() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				yield(zero, fmt.Errorf("query %s: %w", r.entityName, err))
				return
			}

			for _, doc := range page {
				entity, err := r.decode(doc)
				if !yield(entity, err) || err != nil {
					return
				}
			}
		}
	}
}

// Update replaces an existing document.
func (r *Repository[T]) Update(ctx context.Context, entity T, partitionKey string) (T, error) {
	var zero T

	id := entity.GetID()
	if id == "" {
		return zero, &ArgumentError{Index: -1, Reason: r.entityName + " has no id"}
	}

	pk := partitionOf(id, partitionKey)

	doc, err := r.codec.Marshal(entity)
	if err != nil {
		return zero, fmt.Errorf("encode %s: %w", r.entityName, err)
	}

	stored, err := r.container.ReplaceItem(ctx, pk, id, doc)
	if err != nil {
		return zero, r.mapNotFound(err, "update", id, pk)
	}

	return r.decode(stored)
}

// Upsert creates or replaces a document.
func (r *Repository[T]) Upsert(ctx context.Context, entity T, partitionKey string) (T, error) {
	var zero T

	id := entity.GetID()
	if id == "" {
		return zero, &ArgumentError{Index: -1, Reason: r.entityName + " has no id"}
	}

	doc, err := r.codec.Marshal(entity)
	if err != nil {
		return zero, fmt.Errorf("encode %s: %w", r.entityName, err)
	}

	stored, err := r.container.UpsertItem(ctx, partitionOf(id, partitionKey), id, doc)
	if err != nil {
		return zero, fmt.Errorf("upsert %s: %w", r.entityName, err)
	}

	return r.decode(stored)
}

func (r *Repository[T]) Delete(ctx context.Context, id, partitionKey string) error {
	pk := partitionOf(id, partitionKey)

	if err := r.container.DeleteItem(ctx, pk, id); err != nil {
		return r.mapNotFound(err, "delete", id, pk)
	}

	return nil
}

// DropPartition deletes every document under partitionKey and returns how
// many were removed. An empty partition yields a *NotFoundError.
func (r *Repository[T]) DropPartition(ctx context.Context, partitionKey string) (int64, error) {
	if strings.TrimSpace(partitionKey) == "" {
		return 0, &ArgumentError{Index: -1, Reason: "partition key is required"}
	}

	n, err := r.container.DeleteAllByPartition(ctx, partitionKey)
	if err != nil {
		return 0, fmt.Errorf("drop %s partition: %w", r.entityName, err)
	}

	if n == 0 {
		return 0, &NotFoundError{Entity: r.entityName, PartitionKey: partitionKey}
	}

	return n, nil
}

// Patch applies ops atomically with session consistency and returns the
// patched entity. Malformed ops are rejected before the store is called.
func (r *Repository[T]) Patch(ctx context.Context, id, partitionKey string, ops ...PatchOperation) (T, error) {
	var zero T

	storeOps, err := translatePatch(ops, r.immutable)
	if err != nil {
		return zero, err
	}

	pk := partitionOf(id, partitionKey)

	doc, err := r.container.PatchItem(ctx, pk, id, storeOps, docstore.ItemOptions{
		Consistency: docstore.ConsistencySession,
	})
	if err != nil {
		return zero, r.mapNotFound(err, "patch", id, pk)
	}

	return r.decode(doc)
}

func (r *Repository[T]) mapNotFound(err error, verb, id, pk string) error {
	if errors.Is(err, docstore.ErrItemNotFound) {
		return &NotFoundError{Entity: r.entityName, ID: id, PartitionKey: pk, Err: err}
	}

	return fmt.Errorf("%s %s: %w", verb, r.entityName, err)
}

func (r *Repository[T]) decode(doc []byte) (T, error) {
	entity, err := r.codec.Unmarshal(doc)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("decode %s: %w", r.entityName, err)
	}

	return entity, nil
}
