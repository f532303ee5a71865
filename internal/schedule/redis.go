package schedule

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

// addScript keeps the score set and both hashes in step:
// KEYS = zset, id->payload, payload->id; ARGV = id, payload, score.
var addScript = redis.NewScript(`
local old = redis.call('HGET', KEYS[2], ARGV[1])
if old then
  redis.call('HDEL', KEYS[3], old)
end
local owner = redis.call('HGET', KEYS[3], ARGV[2])
if owner and owner ~= ARGV[1] then
  redis.call('ZREM', KEYS[1], owner)
  redis.call('HDEL', KEYS[2], owner)
end
redis.call('ZADD', KEYS[1], ARGV[3], ARGV[1])
redis.call('HSET', KEYS[2], ARGV[1], ARGV[2])
redis.call('HSET', KEYS[3], ARGV[2], ARGV[1])
return 1
`)

// removeScript: KEYS as addScript; ARGV = payload.
var removeScript = redis.NewScript(`
local id = redis.call('HGET', KEYS[3], ARGV[1])
if not id then
  return 0
end
redis.call('ZREM', KEYS[1], id)
redis.call('HDEL', KEYS[2], id)
redis.call('HDEL', KEYS[3], ARGV[1])
return 1
`)

// RedisSortedSet stores a queue as a sorted set of member ids plus two
// hashes mapping ids to payloads and back.
type RedisSortedSet struct {
	client redis.Cmdable
}

func NewRedisSortedSet(client redis.Cmdable) *RedisSortedSet {
	return &RedisSortedSet{client: client}
}

var _ SortedSet = (*RedisSortedSet)(nil)

func keys(key string) []string {
	return []string{key, key + ":payloads", key + ":members"}
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

func (s *RedisSortedSet) Add(ctx context.Context, key string, m Member) error {
	err := addScript.Run(ctx, s.client, keys(key), m.ID, string(m.Payload), formatScore(m.Score)).Err()
	if err != nil {
		return fmt.Errorf("redis add: %w", err)
	}

	return nil
}

func (s *RedisSortedSet) RangeByRank(ctx context.Context, key string, start, stop int64, ascending bool) ([]Member, error) {
	var (
		zs  []redis.Z
		err error
	)
	if ascending {
		zs, err = s.client.ZRangeWithScores(ctx, key, start, stop).Result()
	} else {
		zs, err = s.client.ZRevRangeWithScores(ctx, key, start, stop).Result()
	}
	if err != nil {
		return nil, fmt.Errorf("redis range: %w", err)
	}

	if len(zs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(zs))
	for i, z := range zs {
		ids[i] = fmt.Sprint(z.Member)
	}

	payloads, err := s.client.HMGet(ctx, keys(key)[1], ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis payloads: %w", err)
	}

	members := make([]Member, 0, len(zs))
	for i, z := range zs {
		p, ok := payloads[i].(string)
		if !ok {
			// Member without payload: removed between the two reads.
			continue
		}
		members = append(members, Member{ID: ids[i], Payload: []byte(p), Score: z.Score})
	}

	return members, nil
}

func (s *RedisSortedSet) RemoveByPayload(ctx context.Context, key string, payload []byte) (bool, error) {
	n, err := removeScript.Run(ctx, s.client, keys(key), string(payload)).Int64()
	if err != nil {
		return false, fmt.Errorf("redis remove: %w", err)
	}

	return n == 1, nil
}

func (s *RedisSortedSet) Count(ctx context.Context, key string) (int64, error) {
	n, err := s.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis count: %w", err)
	}

	return n, nil
}

func (s *RedisSortedSet) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keys(key)...).Err(); err != nil {
		return fmt.Errorf("redis clear: %w", err)
	}

	return nil
}
