package schedule

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type job struct {
	Name string `json:"name"`
}

type jobCodec struct{}

func (jobCodec) Marshal(j job) ([]byte, error) { return json.Marshal(j) }

func (jobCodec) Unmarshal(data []byte) (job, error) {
	var j job
	err := json.Unmarshal(data, &j)

	return j, err
}

func ids[T any](entries []Entry[T]) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}

	return out
}

func mustScore(t *testing.T, at time.Time) float64 {
	t.Helper()

	s, err := ScoreOf(at, DefaultResolution)
	require.NoError(t, err)

	return s
}

func TestQueue_OrdersByScheduledTime(t *testing.T) {
	ctx := context.Background()
	q := NewQueue[job](NewMemorySortedSet(), jobCodec{})

	t1 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Millisecond)
	t3 := t1.Add(time.Hour)

	require.NoError(t, q.Add(ctx, "q", "c", job{Name: "third"}, mustScore(t, t3)))
	require.NoError(t, q.Add(ctx, "q", "a", job{Name: "first"}, mustScore(t, t1)))
	require.NoError(t, q.Add(ctx, "q", "b", job{Name: "second"}, mustScore(t, t2)))

	asc, err := q.RangeByRank(ctx, "q", 0, -1, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(asc))
	assert.Equal(t, job{Name: "first"}, asc[0].Payload)

	desc, err := q.RangeByRank(ctx, "q", 0, -1, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, ids(desc))

	head, err := q.RangeByRank(ctx, "q", 0, 0, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(head))

	tail, err := q.RangeByRank(ctx, "q", -2, -1, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids(tail))

	none, err := q.RangeByRank(ctx, "q", 5, 10, true)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestQueue_TiesOrderedByMemberID(t *testing.T) {
	ctx := context.Background()
	q := NewQueue[job](NewMemorySortedSet(), jobCodec{})

	for _, id := range []string{"z", "m", "a"} {
		require.NoError(t, q.Add(ctx, "q", id, job{Name: id}, 42))
	}

	got, err := q.RangeByRank(ctx, "q", 0, -1, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "m", "z"}, ids(got))
}

func TestQueue_AddIsIdempotentOnMemberID(t *testing.T) {
	ctx := context.Background()
	q := NewQueue[job](NewMemorySortedSet(), jobCodec{})

	require.NoError(t, q.Add(ctx, "q", "a", job{Name: "v1"}, 1))
	require.NoError(t, q.Add(ctx, "q", "b", job{Name: "other"}, 2))
	require.NoError(t, q.Add(ctx, "q", "a", job{Name: "v2"}, 3))

	n, err := q.Count(ctx, "q")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := q.RangeByRank(ctx, "q", 0, -1, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(got))
	assert.Equal(t, job{Name: "v2"}, got[1].Payload)
	assert.Equal(t, 3.0, got[1].Score)

	// The old payload no longer resolves to a member.
	removed, err := q.Remove(ctx, "q", job{Name: "v1"})
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestQueue_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	q := NewQueue[job](NewMemorySortedSet(), jobCodec{})

	require.NoError(t, q.Add(ctx, "q", "a", job{Name: "a"}, 1))
	require.NoError(t, q.Add(ctx, "q", "b", job{Name: "b"}, 2))

	removed, err := q.Remove(ctx, "q", job{Name: "a"})
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = q.Remove(ctx, "q", job{Name: "a"})
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, q.Clear(ctx, "q"))
	n, err := q.Count(ctx, "q")
	require.NoError(t, err)
	assert.Zero(t, n)

	// Queues are independent.
	require.NoError(t, q.Add(ctx, "other", "a", job{Name: "a"}, 1))
	n, err = q.Count(ctx, "q")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestQueue_RejectsEmptyMemberID(t *testing.T) {
	q := NewQueue[job](NewMemorySortedSet(), jobCodec{})

	assert.Error(t, q.Add(context.Background(), "q", "", job{}, 1))
}

func TestScore(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, int64(1704067200000), Ticks(at, time.Millisecond))
	assert.Equal(t, int64(1704067200), Ticks(at, time.Second))
	assert.Equal(t, int64(1704067200000)+1, Ticks(at.Add(time.Millisecond), 0))

	s, err := ScoreOf(at, DefaultResolution)
	require.NoError(t, err)
	assert.Equal(t, 1704067200000.0, s)

	_, err = Score(MaxExactScore)
	assert.NoError(t, err)
	_, err = Score(-MaxExactScore)
	assert.NoError(t, err)
	_, err = Score(MaxExactScore + 1)
	assert.ErrorIs(t, err, ErrScoreOutOfRange)

	dotnet := DotNetTicks(at)
	assert.Equal(t, int64(638396640000000000), dotnet)
	_, err = Score(dotnet)
	assert.ErrorIs(t, err, ErrScoreOutOfRange, "100ns ticks since year 1 do not fit a float64 score")
}

func TestTicks_Resolutions(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		t          time.Time
		resolution time.Duration
		want       int64
	}{
		{"minute", at, time.Minute, 28401120},
		{"minute rounds down", at.Add(59 * time.Second), time.Minute, 28401120},
		{"one and a half seconds", at, 1500 * time.Millisecond, 1136044800},
		{"one and a half seconds rounds down", at.Add(time.Second), 1500 * time.Millisecond, 1136044800},
		{"one and a half seconds next tick", at.Add(1500 * time.Millisecond), 1500 * time.Millisecond, 1136044801},
		{"300ms", at.Add(900 * time.Millisecond), 300 * time.Millisecond, 5680224003},
		{"300ms rounds down", at.Add(999 * time.Millisecond), 300 * time.Millisecond, 5680224003},
		{"before epoch", time.Unix(-1, 0), time.Second, -1},
		{"before epoch coarse", time.Unix(-1, 0), time.Minute, -1},
		{"before epoch uneven", time.Unix(-1, 0), 1500 * time.Millisecond, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Ticks(tt.t, tt.resolution))
		})
	}
}

func TestScore_PreservesOrderAtMillisecondResolution(t *testing.T) {
	base := time.Date(2099, 12, 31, 23, 59, 59, 0, time.UTC)

	a, err := ScoreOf(base, DefaultResolution)
	require.NoError(t, err)
	b, err := ScoreOf(base.Add(time.Millisecond), DefaultResolution)
	require.NoError(t, err)

	assert.Less(t, a, b)
	assert.Equal(t, 1.0, b-a)
}
