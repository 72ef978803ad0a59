package ratewindow

import (
	"context"
	"strconv"
	"time"

	"github.com/pborman/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iamwavecut/ngmod/internal/errors"
)

const redisKeyPrefix = "ngmod:ratewindow:"

// Redis keeps one sorted set per user scored by unix milliseconds, so that
// several bot processes share a window. Every Record runs in MULTI/EXEC.
type Redis struct {
	client   redis.UniversalClient
	limit    int
	interval time.Duration
}

var _ Window = (*Redis)(nil)

func NewRedis(client redis.UniversalClient, limit int, interval time.Duration) *Redis {
	if limit < 1 {
		limit = DefaultLimit
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Redis{client: client, limit: limit, interval: interval}
}

// NewRedisFromURL parses a redis:// URL and verifies the connection.
func NewRedisFromURL(ctx context.Context, url string, limit int, interval time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Transport("parse redis url", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Transport("ping redis", err)
	}
	return NewRedis(client, limit, interval), nil
}

func (r *Redis) Record(ctx context.Context, userID string, now time.Time) (bool, error) {
	key := redisKeyPrefix + userID
	nowMs := now.UnixMilli()
	cutoff := nowMs - r.interval.Milliseconds()

	var card *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(nowMs), Member: strconv.FormatInt(nowMs, 10) + ":" + uuid.New()})
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10))
		card = pipe.ZCard(ctx, key)
		pipe.PExpire(ctx, key, r.interval)
		return nil
	})
	if err != nil {
		return false, errors.Transport("record rate window", err)
	}
	return card.Val() > int64(r.limit), nil
}

func (r *Redis) Start(context.Context) error { return nil }

func (r *Redis) Stop(context.Context) error {
	return r.client.Close()
}
