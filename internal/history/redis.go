package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/xtding233/gacha-backend/internal/catalog"
	"github.com/xtding233/gacha-backend/internal/gacha"
)

const scanBatch = 200

// RedisStore keeps one list per user and banner under
// "{prefix}:{region}:{len(user)}:{user}:{banner}", newest entry at the head.
// The length keeps ids and labels that contain ':' from sharing a key.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	opts   options
}

func NewRedisStore(client redis.UniversalClient, prefix string, opts ...Option) *RedisStore {
	if prefix == "" {
		prefix = "gacha:history"
	}
	return &RedisStore{client: client, prefix: prefix, opts: newOptions(opts)}
}

func (s *RedisStore) key(region catalog.Region, userID, banner string) string {
	return fmt.Sprintf("%s:%s:%d:%s:%s", s.prefix, region, len(userID), userID, banner)
}

func (s *RedisStore) RecordDraws(ctx context.Context, userID string, region catalog.Region, bannerLabel string, results []gacha.Result) error {
	recs := newRecords(userID, region, bannerLabel, results, s.opts.now())
	if len(recs) == 0 {
		return nil
	}
	vals := make([]interface{}, 0, len(recs))
	for _, r := range recs {
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode history: %w", err)
		}
		vals = append(vals, b)
	}
	if err := s.client.LPush(ctx, s.key(region, userID, bannerLabel), vals...).Err(); err != nil {
		return fmt.Errorf("push history: %w", err)
	}
	return nil
}

func (s *RedisStore) PurgeHistory(ctx context.Context, region catalog.Region) error {
	pattern := fmt.Sprintf("%s:%s:*", s.prefix, region)
	iter := s.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := s.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("purge history: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan history: %w", err)
	}
	if len(batch) > 0 {
		if err := s.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("purge history: %w", err)
		}
	}
	return nil
}

func (s *RedisStore) UserHistory(ctx context.Context, userID string, region catalog.Region, bannerLabel string) ([]Record, error) {
	raw, err := s.client.LRange(ctx, s.key(region, userID, bannerLabel), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	out := make([]Record, 0, len(raw))
	for _, v := range raw {
		var r Record
		if err := json.Unmarshal([]byte(v), &r); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }
