package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"edgepick/internal/models"
	"edgepick/internal/storage"
)

const (
	scanKeyPrefix = "edgepick:scan:"
	indexKey      = "edgepick:scans"
)

// RedisStore implements the storage.Storer interface on Redis: one JSON
// document per scan plus a sorted set indexing scans by start time.
type RedisStore struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{client: rdb}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Close closes the client.
func (s *RedisStore) Close() error { return s.client.Close() }

func scanKey(id string) string { return scanKeyPrefix + id }

// CreateScan implements the Storer interface.
func (s *RedisStore) CreateScan(ctx context.Context, scan *models.Scan) error {
	if scan.ID == "" {
		scan.ID = storage.NewID("s_")
	}
	data, err := json.Marshal(scan)
	if err != nil {
		return fmt.Errorf("failed to encode scan: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, scanKey(scan.ID), data, 0)
	pipe.ZAdd(ctx, indexKey, redis.Z{Score: float64(scan.StartedAt.UnixMilli()), Member: scan.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store scan: %w", err)
	}
	return nil
}

// GetScan implements the Storer interface.
func (s *RedisStore) GetScan(ctx context.Context, id string) (*models.Scan, error) {
	data, err := s.client.Get(ctx, scanKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}
	var scan models.Scan
	if err := json.Unmarshal(data, &scan); err != nil {
		return nil, fmt.Errorf("failed to decode scan: %w", err)
	}
	return &scan, nil
}

// ListScans implements the Storer interface.
func (s *RedisStore) ListScans(ctx context.Context, params storage.ListScansParams) ([]models.Scan, error) {
	upper := "+inf"
	if !params.Before.IsZero() {
		upper = "(" + strconv.FormatInt(params.Before.UnixMilli(), 10)
	}
	ids, err := s.client.ZRevRangeByScore(ctx, indexKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   upper,
		Count: int64(params.EffectiveLimit()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = scanKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load scans: %w", err)
	}

	scans := make([]models.Scan, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // Indexed but expired or deleted.
		}
		var scan models.Scan
		if err := json.Unmarshal([]byte(raw), &scan); err != nil {
			return nil, fmt.Errorf("failed to decode scan: %w", err)
		}
		scans = append(scans, scan)
	}
	return scans, nil
}
