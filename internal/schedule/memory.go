package schedule

import (
	"context"
	"sort"
	"sync"
)

// MemorySortedSet mirrors RedisSortedSet in process.
//
// Safe for concurrent access. Intended for unit testing and local runs.
type MemorySortedSet struct {
	mu   sync.Mutex
	sets map[string]*memSet
}

type memSet struct {
	byID      map[string]Member
	byPayload map[string]string
}

func NewMemorySortedSet() *MemorySortedSet {
	return &MemorySortedSet{sets: make(map[string]*memSet)}
}

var _ SortedSet = (*MemorySortedSet)(nil)

func (s *MemorySortedSet) Add(ctx context.Context, key string, m Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		set = &memSet{byID: make(map[string]Member), byPayload: make(map[string]string)}
		s.sets[key] = set
	}

	if old, ok := set.byID[m.ID]; ok {
		delete(set.byPayload, string(old.Payload))
	}
	if owner, ok := set.byPayload[string(m.Payload)]; ok && owner != m.ID {
		delete(set.byID, owner)
	}

	m.Payload = append([]byte(nil), m.Payload...)
	set.byID[m.ID] = m
	set.byPayload[string(m.Payload)] = m.ID

	return nil
}

func (s *MemorySortedSet) RangeByRank(ctx context.Context, key string, start, stop int64, ascending bool) ([]Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		return nil, nil
	}

	sorted := make([]Member, 0, len(set.byID))
	for _, m := range set.byID {
		sorted = append(sorted, m)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score < sorted[j].Score
		}
		return sorted[i].ID < sorted[j].ID
	})
	if !ascending {
		for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
			sorted[i], sorted[j] = sorted[j], sorted[i]
		}
	}

	n := int64(len(sorted))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return nil, nil
	}

	out := make([]Member, 0, stop-start+1)
	for _, m := range sorted[start : stop+1] {
		m.Payload = append([]byte(nil), m.Payload...)
		out = append(out, m)
	}

	return out, nil
}

func (s *MemorySortedSet) RemoveByPayload(ctx context.Context, key string, payload []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		return false, nil
	}

	id, ok := set.byPayload[string(payload)]
	if !ok {
		return false, nil
	}
	delete(set.byPayload, string(payload))
	delete(set.byID, id)
	if len(set.byID) == 0 {
		delete(s.sets, key)
	}

	return true, nil
}

func (s *MemorySortedSet) Count(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if set, ok := s.sets[key]; ok {
		return int64(len(set.byID)), nil
	}

	return 0, nil
}

func (s *MemorySortedSet) Clear(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sets, key)

	return nil
}
