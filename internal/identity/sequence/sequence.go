// Package sequence issues receipt ordinals. Ordinals are strictly increasing per
// source but may have gaps when a transaction rolls back after drawing one.
package sequence

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	txcontext "minkyc/pkg/platform/tx"
)

// DefaultRedisKey is the counter key used by the Redis source.
const DefaultRedisKey = "minkyc:receipt_sequence"

// Memory is a process-local source.
type Memory struct {
	n atomic.Uint64
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Next(context.Context) (uint64, error) {
	return m.n.Add(1), nil
}

// Redis draws ordinals with INCR so several processes share one sequence.
type Redis struct {
	client redis.Cmdable
	key    string
}

func NewRedis(client redis.Cmdable, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key}
}

func (r *Redis) Next(ctx context.Context) (uint64, error) {
	n, err := r.client.Incr(ctx, r.key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr receipt sequence: %w", err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("receipt sequence returned non-positive value %d", n)
	}
	return uint64(n), nil
}

// Postgres draws ordinals from the receipt_sequence database sequence.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Next(ctx context.Context) (uint64, error) {
	var v string
	// Drawn on the caller's connection; the value is consumed even if the tx rolls back.
	if err := txcontext.Execer(ctx, p.db).QueryRowContext(ctx, `SELECT nextval('receipt_sequence')::text`).Scan(&v); err != nil {
		return 0, fmt.Errorf("nextval receipt_sequence: %w", err)
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse receipt sequence: %w", err)
	}
	return n, nil
}
