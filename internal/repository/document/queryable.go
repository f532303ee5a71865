package document

import (
	"context"
	"iter"

	"github.com/aliskhannn/notification-api/internal/store/docstore"
)

// Queryable is an immutable query builder. Nothing reaches the container
// until All, ToSlice or First is called.
type Queryable[T Entity] struct {
	repo  *Repository[T]
	query docstore.Query
}

// Queryable starts a query whose predicates are combined with AND.
func (r *Repository[T]) Queryable(predicates ...docstore.Filter) *Queryable[T] {
	return &Queryable[T]{repo: r, query: docstore.Query{Filter: docstore.AllOf(predicates...)}}
}

func (q *Queryable[T]) with(mod func(*docstore.Query)) *Queryable[T] {
	next := *q
	mod(&next.query)

	return &next
}

func (q *Queryable[T]) Where(predicates ...docstore.Filter) *Queryable[T] {
	return q.with(func(dq *docstore.Query) {
		dq.Filter = docstore.AllOf(append([]docstore.Filter{dq.Filter}, predicates...)...)
	})
}

// InPartition restricts the query to a single partition.
func (q *Queryable[T]) InPartition(partitionKey string) *Queryable[T] {
	return q.with(func(dq *docstore.Query) { dq.PartitionKey = partitionKey })
}

func (q *Queryable[T]) PageSize(n int) *Queryable[T] {
	return q.with(func(dq *docstore.Query) { dq.PageSize = n })
}

// Take caps the number of results.
func (q *Queryable[T]) Take(n int) *Queryable[T] {
	return q.with(func(dq *docstore.Query) { dq.Limit = n })
}

func (q *Queryable[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return q.repo.run(ctx, q.query)
}

func (q *Queryable[T]) ToSlice(ctx context.Context) ([]T, error) {
	var out []T
	for entity, err := range q.All(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}

	return out, nil
}

// First returns the first result, or found=false when there is none.
func (q *Queryable[T]) First(ctx context.Context) (T, bool, error) {
	for entity, err := range q.Take(1).All(ctx) {
		if err != nil {
			var zero T
			return zero, false, err
		}
		return entity, true, nil
	}

	var zero T

	return zero, false, nil
}
