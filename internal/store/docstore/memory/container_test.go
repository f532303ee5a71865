package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/notification-api/internal/store/docstore"
)

func TestContainer_CRUD(t *testing.T) {
	ctx := context.Background()
	c := New()

	_, err := c.CreateItem(ctx, "r1", "n1", []byte(`{"id":"n1"}`))
	require.NoError(t, err)

	_, err = c.CreateItem(ctx, "r1", "n1", []byte(`{"id":"n1"}`))
	assert.ErrorIs(t, err, docstore.ErrItemExists)

	// Same id in another partition is a different item.
	_, err = c.CreateItem(ctx, "r2", "n1", []byte(`{"id":"n1","v":2}`))
	require.NoError(t, err)

	doc, err := c.ReadItem(ctx, "r1", "n1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"n1"}`, string(doc))

	_, err = c.ReplaceItem(ctx, "r1", "missing", []byte(`{"id":"missing"}`))
	assert.ErrorIs(t, err, docstore.ErrItemNotFound)

	_, err = c.ReplaceItem(ctx, "r1", "n1", []byte(`{"id":"n1","v":1}`))
	require.NoError(t, err)

	_, err = c.UpsertItem(ctx, "r1", "n2", []byte(`{"id":"n2"}`))
	require.NoError(t, err)

	require.NoError(t, c.DeleteItem(ctx, "r1", "n2"))
	assert.ErrorIs(t, c.DeleteItem(ctx, "r1", "n2"), docstore.ErrItemNotFound)

	_, err = c.ReadItem(ctx, "r1", "n2")
	assert.ErrorIs(t, err, docstore.ErrItemNotFound)

	_, err = c.CreateItem(ctx, "r1", "bad", []byte(`[1]`))
	assert.Error(t, err)
}

func TestContainer_DeleteAllByPartition(t *testing.T) {
	ctx := context.Background()
	c := New()

	for i := 0; i < 3; i++ {
		_, err := c.CreateItem(ctx, "r1", fmt.Sprintf("n%d", i), []byte(`{}`))
		require.NoError(t, err)
	}
	_, err := c.CreateItem(ctx, "r2", "other", []byte(`{}`))
	require.NoError(t, err)

	n, err := c.DeleteAllByPartition(ctx, "r1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = c.DeleteAllByPartition(ctx, "r1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	_, err = c.ReadItem(ctx, "r2", "other")
	assert.NoError(t, err)
}

func TestContainer_PatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	c := New()

	_, err := c.CreateItem(ctx, "r1", "n1", []byte(`{"id":"n1","importance":"low"}`))
	require.NoError(t, err)

	_, err = c.PatchItem(ctx, "r1", "n1", []docstore.PatchOperation{
		{Op: docstore.PatchSet, Path: "/importance", Value: docstore.String("high")},
		{Op: docstore.PatchReplace, Path: "/subject", Value: docstore.String("x")},
	}, docstore.ItemOptions{Consistency: docstore.ConsistencySession})
	assert.ErrorIs(t, err, docstore.ErrPathNotFound)

	doc, err := c.ReadItem(ctx, "r1", "n1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"n1","importance":"low"}`, string(doc))

	doc, err = c.PatchItem(ctx, "r1", "n1", []docstore.PatchOperation{
		{Op: docstore.PatchSet, Path: "/importance", Value: docstore.String("high")},
	}, docstore.ItemOptions{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"n1","importance":"high"}`, string(doc))

	_, err = c.PatchItem(ctx, "r1", "nope", []docstore.PatchOperation{
		{Op: docstore.PatchSet, Path: "/a", Value: docstore.Null()},
	}, docstore.ItemOptions{})
	assert.ErrorIs(t, err, docstore.ErrItemNotFound)
}

func TestContainer_PatchSeesEarlierOps(t *testing.T) {
	ctx := context.Background()
	c := New()

	_, err := c.CreateItem(ctx, "r1", "n1", []byte(`{"id":"n1"}`))
	require.NoError(t, err)

	doc, err := c.PatchItem(ctx, "r1", "n1", []docstore.PatchOperation{
		{Op: docstore.PatchSet, Path: "/meta", Value: docstore.Document(nil)},
		{Op: docstore.PatchSet, Path: "/meta/x", Value: docstore.Number(1)},
		{Op: docstore.PatchReplace, Path: "/meta/x", Value: docstore.Number(2)},
	}, docstore.ItemOptions{Consistency: docstore.ConsistencySession})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"n1","meta":{"x":2}}`, string(doc))
}

func TestContainer_QueryPagesLazily(t *testing.T) {
	ctx := context.Background()
	c := New()

	for i := 0; i < 5; i++ {
		_, err := c.CreateItem(ctx, "r1", fmt.Sprintf("n%d", i), []byte(fmt.Sprintf(`{"id":"n%d","n":%d}`, i, i)))
		require.NoError(t, err)
	}

	p := c.Query(ctx, docstore.Query{
		Filter:       docstore.Ge("/n", docstore.Number(1)),
		PartitionKey: "r1",
		PageSize:     2,
	})

	// Items written before the first page is read are visible.
	_, err := c.CreateItem(ctx, "r1", "n5", []byte(`{"id":"n5","n":5}`))
	require.NoError(t, err)

	var pages [][][]byte
	for p.More() {
		page, err := p.NextPage(ctx)
		require.NoError(t, err)
		pages = append(pages, page)
	}

	require.Len(t, pages, 3)
	assert.Len(t, pages[0], 2)
	assert.Len(t, pages[1], 2)
	assert.Len(t, pages[2], 1)
	assert.JSONEq(t, `{"id":"n1","n":1}`, string(pages[0][0]))
	assert.JSONEq(t, `{"id":"n5","n":5}`, string(pages[2][0]))
}

func TestContainer_QueryLimitAndRawText(t *testing.T) {
	ctx := context.Background()
	c := New()

	for i := 0; i < 4; i++ {
		_, err := c.CreateItem(ctx, fmt.Sprintf("r%d", i), "n", []byte(`{}`))
		require.NoError(t, err)
	}

	p := c.Query(ctx, docstore.Query{Limit: 3})
	page, err := p.NextPage(ctx)
	require.NoError(t, err)
	assert.Len(t, page, 3)
	assert.False(t, p.More())

	p = c.Query(ctx, docstore.Query{Text: "body->>'id' = @id"})
	_, err = p.NextPage(ctx)
	assert.ErrorIs(t, err, docstore.ErrUnsupportedQuery)
	assert.False(t, p.More())
}

func TestContainer_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(WithTTL(time.Hour), WithClock(func() time.Time { return now }))

	_, err := c.CreateItem(ctx, "r1", "n1", []byte(`{}`))
	require.NoError(t, err)

	now = now.Add(59 * time.Minute)
	_, err = c.ReadItem(ctx, "r1", "n1")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = c.ReadItem(ctx, "r1", "n1")
	assert.ErrorIs(t, err, docstore.ErrItemNotFound)

	// An expired id can be created again.
	_, err = c.CreateItem(ctx, "r1", "n1", []byte(`{}`))
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	n, err := c.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestContainer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().CreateItem(ctx, "r1", "n1", []byte(`{}`))
	assert.ErrorIs(t, err, context.Canceled)
}
