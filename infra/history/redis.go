package history

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kilianp07/stintplan/config"
	corehistory "github.com/kilianp07/stintplan/core/history"
)

// RedisStore keeps runs in a sorted set scored by solve time in
// milliseconds, so a team can share one archive.
type RedisStore struct {
	rdb *goredis.Client
	key string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Addr, err)
	}
	return &RedisStore{rdb: rdb, key: cfg.Key}, nil
}

// Append adds rec to the set.
func (s *RedisStore) Append(ctx context.Context, rec corehistory.RunRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.ZAdd(ctx, s.key, goredis.Z{Score: float64(rec.Timestamp.UnixMilli()), Member: data}).Err()
}

// Query reads the score window covering q and filters the decoded records.
// Members that fail to decode are skipped.
func (s *RedisStore) Query(ctx context.Context, q corehistory.RunQuery) ([]corehistory.RunRecord, error) {
	lo, hi := scoreRange(q)
	members, err := s.rdb.ZRangeByScore(ctx, s.key, &goredis.ZRangeBy{Min: lo, Max: hi}).Result()
	if err != nil {
		return nil, err
	}
	var res []corehistory.RunRecord
	for _, m := range members {
		var rec corehistory.RunRecord
		if err := json.Unmarshal([]byte(m), &rec); err != nil {
			continue
		}
		if q.Match(rec) {
			res = append(res, rec)
		}
	}
	return res, nil
}

// Close releases the connection pool.
func (s *RedisStore) Close() error { return s.rdb.Close() }

// scoreRange widens q's bounds to whole milliseconds; Match applies the
// exact bounds afterwards.
func scoreRange(q corehistory.RunQuery) (string, string) {
	lo, hi := "-inf", "+inf"
	if !q.Start.IsZero() {
		lo = strconv.FormatInt(int64(math.Floor(float64(q.Start.UnixNano())/1e6)), 10)
	}
	if !q.End.IsZero() {
		hi = strconv.FormatInt(int64(math.Ceil(float64(q.End.UnixNano())/1e6)), 10)
	}
	return lo, hi
}
