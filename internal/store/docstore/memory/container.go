// Package memory is an in-process docstore.Container.
//
// Safe for concurrent access. Intended for unit testing and local runs.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aliskhannn/notification-api/internal/store/docstore"
)

type item struct {
	doc       []byte
	expiresAt time.Time // zero means never
}

// Container keeps documents in a map of partition key to id to document.
type Container struct {
	mu         sync.RWMutex
	partitions map[string]map[string]item
	ttl        time.Duration
	now        func() time.Time
}

type Option func(*Container)

// WithTTL expires every written document ttl after its last write.
func WithTTL(ttl time.Duration) Option {
	return func(c *Container) { c.ttl = ttl }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Container) { c.now = now }
}

func New(opts ...Option) *Container {
	c := &Container{
		partitions: make(map[string]map[string]item),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

var _ docstore.Container = (*Container)(nil)

func (c *Container) CreateItem(ctx context.Context, partitionKey, id string, doc []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkDocument(doc); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.get(partitionKey, id); ok {
		return nil, docstore.ErrItemExists
	}
	c.put(partitionKey, id, doc)

	return clone(doc), nil
}

func (c *Container) ReadItem(ctx context.Context, partitionKey, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.get(partitionKey, id)
	if !ok {
		return nil, docstore.ErrItemNotFound
	}

	return clone(it.doc), nil
}

func (c *Container) ReplaceItem(ctx context.Context, partitionKey, id string, doc []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkDocument(doc); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.get(partitionKey, id); !ok {
		return nil, docstore.ErrItemNotFound
	}
	c.put(partitionKey, id, doc)

	return clone(doc), nil
}

func (c *Container) UpsertItem(ctx context.Context, partitionKey, id string, doc []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkDocument(doc); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.put(partitionKey, id, doc)

	return clone(doc), nil
}

func (c *Container) DeleteItem(ctx context.Context, partitionKey, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.get(partitionKey, id); !ok {
		return docstore.ErrItemNotFound
	}
	delete(c.partitions[partitionKey], id)
	if len(c.partitions[partitionKey]) == 0 {
		delete(c.partitions, partitionKey)
	}

	return nil
}

func (c *Container) DeleteAllByPartition(ctx context.Context, partitionKey string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var n int64
	for id := range c.partitions[partitionKey] {
		if _, ok := c.get(partitionKey, id); ok {
			n++
		}
	}
	delete(c.partitions, partitionKey)

	return n, nil
}

// PatchItem applies ops to a decoded copy of the document and stores the
// result only when every operation succeeded. Writes are immediately visible,
// so every consistency level behaves as session consistency.
func (c *Container) PatchItem(ctx context.Context, partitionKey, id string, ops []docstore.PatchOperation, _ docstore.ItemOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.get(partitionKey, id)
	if !ok {
		return nil, docstore.ErrItemNotFound
	}

	var doc map[string]any
	if err := json.Unmarshal(it.doc, &doc); err != nil {
		return nil, fmt.Errorf("decode stored document: %w", err)
	}

	patched, err := docstore.ApplyPatch(doc, ops)
	if err != nil {
		return nil, err
	}

	out, err := json.Marshal(patched)
	if err != nil {
		return nil, fmt.Errorf("encode patched document: %w", err)
	}
	c.put(partitionKey, id, out)

	return clone(out), nil
}

// Query returns a pager over a snapshot taken at the first NextPage call.
// Raw query text is not supported.
func (c *Container) Query(_ context.Context, q docstore.Query) docstore.Pager {
	return &pager{c: c, q: q}
}

// PurgeExpired removes expired documents and reports how many were removed.
func (c *Container) PurgeExpired(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	var n int64
	for pk, items := range c.partitions {
		for id, it := range items {
			if expired(it, now) {
				delete(items, id)
				n++
			}
		}
		if len(items) == 0 {
			delete(c.partitions, pk)
		}
	}

	return n, nil
}

// get must be called with mu held.
func (c *Container) get(partitionKey, id string) (item, bool) {
	it, ok := c.partitions[partitionKey][id]
	if !ok || expired(it, c.now()) {
		return item{}, false
	}

	return it, true
}

// put must be called with mu held for writing.
func (c *Container) put(partitionKey, id string, doc []byte) {
	items, ok := c.partitions[partitionKey]
	if !ok {
		items = make(map[string]item)
		c.partitions[partitionKey] = items
	}

	it := item{doc: clone(doc)}
	if c.ttl > 0 {
		it.expiresAt = c.now().Add(c.ttl)
	}
	items[id] = it
}

type entry struct {
	pk, id string
	doc    []byte
}

// snapshot returns the live documents matching q, ordered by partition key then id.
func (c *Container) snapshot(q docstore.Query) ([][]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var entries []entry
	for pk, items := range c.partitions {
		if q.PartitionKey != "" && pk != q.PartitionKey {
			continue
		}
		for id := range items {
			it, ok := c.get(pk, id)
			if !ok {
				continue
			}

			if q.Filter != nil {
				var decoded any
				if err := json.Unmarshal(it.doc, &decoded); err != nil {
					return nil, fmt.Errorf("decode stored document %s/%s: %w", pk, id, err)
				}
				if !docstore.Match(decoded, q.Filter) {
					continue
				}
			}

			entries = append(entries, entry{pk: pk, id: id, doc: clone(it.doc)})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].pk != entries[j].pk {
			return entries[i].pk < entries[j].pk
		}
		return entries[i].id < entries[j].id
	})

	if q.Limit > 0 && len(entries) > q.Limit {
		entries = entries[:q.Limit]
	}

	out := make([][]byte, len(entries))
	for i, e := range entries {
		out[i] = e.doc
	}

	return out, nil
}

type pager struct {
	c       *Container
	q       docstore.Query
	started bool
	done    bool
	rest    [][]byte
}

func (p *pager) More() bool {
	return !p.done
}

func (p *pager) NextPage(ctx context.Context) ([][]byte, error) {
	if p.done {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !p.started {
		p.started = true

		if p.q.Text != "" {
			p.done = true
			return nil, docstore.ErrUnsupportedQuery
		}
		if err := docstore.ValidateFilter(p.q.Filter); err != nil {
			p.done = true
			return nil, fmt.Errorf("invalid filter: %w", err)
		}

		rest, err := p.c.snapshot(p.q)
		if err != nil {
			p.done = true
			return nil, err
		}
		p.rest = rest
	}

	size := p.q.EffectivePageSize()
	if size > len(p.rest) {
		size = len(p.rest)
	}

	page := p.rest[:size]
	p.rest = p.rest[size:]
	if len(p.rest) == 0 {
		p.done = true
	}

	return page, nil
}

func expired(it item, now time.Time) bool {
	return !it.expiresAt.IsZero() && !now.Before(it.expiresAt)
}

func checkDocument(doc []byte) error {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil || m == nil {
		return fmt.Errorf("document must be a JSON object")
	}

	return nil
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
