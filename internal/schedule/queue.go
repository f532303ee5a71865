// Package schedule keeps payloads in score-ordered queues backed by sorted sets.
package schedule

import (
	"context"
	"fmt"
)

// Member is one sorted-set entry as stored by a backend.
type Member struct {
	ID      string
	Payload []byte
	Score   float64
}

// SortedSet is the storage behind a Queue. Members are unique by ID; a
// payload belongs to at most one member.
type SortedSet interface {
	Add(ctx context.Context, key string, m Member) error
	RangeByRank(ctx context.Context, key string, start, stop int64, ascending bool) ([]Member, error)
	RemoveByPayload(ctx context.Context, key string, payload []byte) (bool, error)
	Count(ctx context.Context, key string) (int64, error)
	Clear(ctx context.Context, key string) error
}

// Codec converts queue payloads to their stored form. Encoding must be
// deterministic for Remove to find a payload.
type Codec[T any] interface {
	Marshal(T) ([]byte, error)
	Unmarshal([]byte) (T, error)
}

// Entry is a decoded queue member.
type Entry[T any] struct {
	ID      string
	Payload T
	Score   float64
}

// Queue is a time-ordered queue of T.
type Queue[T any] struct {
	set   SortedSet
	codec Codec[T]
}

func NewQueue[T any](set SortedSet, codec Codec[T]) *Queue[T] {
	return &Queue[T]{set: set, codec: codec}
}

// Add inserts payload under memberID or moves an existing member to the new
// score and payload.
func (q *Queue[T]) Add(ctx context.Context, queue, memberID string, payload T, score float64) error {
	if memberID == "" {
		return fmt.Errorf("add to %s: empty member id", queue)
	}

	data, err := q.codec.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload for %s: %w", queue, err)
	}

	if err := q.set.Add(ctx, queue, Member{ID: memberID, Payload: data, Score: score}); err != nil {
		return fmt.Errorf("add to %s: %w", queue, err)
	}

	return nil
}

// RangeByRank returns members with rank in [start, stop]. Negative ranks count
// from the end; ties are ordered by member id.
func (q *Queue[T]) RangeByRank(ctx context.Context, queue string, start, stop int64, ascending bool) ([]Entry[T], error) {
	members, err := q.set.RangeByRank(ctx, queue, start, stop, ascending)
	if err != nil {
		return nil, fmt.Errorf("range %s: %w", queue, err)
	}

	entries := make([]Entry[T], 0, len(members))
	for _, m := range members {
		payload, err := q.codec.Unmarshal(m.Payload)
		if err != nil {
			return nil, fmt.Errorf("decode member %s of %s: %w", m.ID, queue, err)
		}
		entries = append(entries, Entry[T]{ID: m.ID, Payload: payload, Score: m.Score})
	}

	return entries, nil
}

// Remove deletes the member whose stored payload equals the encoding of payload.
func (q *Queue[T]) Remove(ctx context.Context, queue string, payload T) (bool, error) {
	data, err := q.codec.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("encode payload for %s: %w", queue, err)
	}

	removed, err := q.set.RemoveByPayload(ctx, queue, data)
	if err != nil {
		return false, fmt.Errorf("remove from %s: %w", queue, err)
	}

	return removed, nil
}

func (q *Queue[T]) Count(ctx context.Context, queue string) (int64, error) {
	n, err := q.set.Count(ctx, queue)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", queue, err)
	}

	return n, nil
}

func (q *Queue[T]) Clear(ctx context.Context, queue string) error {
	if err := q.set.Clear(ctx, queue); err != nil {
		return fmt.Errorf("clear %s: %w", queue, err)
	}

	return nil
}
