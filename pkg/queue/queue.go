// Package queue is an at-least-once work queue on Redis lists. Claimed ids
// move atomically to a processing list and stay there until acknowledged;
// RequeueStale returns unacknowledged ids to the pending list.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JaimeStill/enricher/pkg/lifecycle"
)

// ErrEmpty indicates no id became available before the claim timeout.
var ErrEmpty = errors.New("queue empty")

// Queue is a reliable FIFO of string ids.
type Queue interface {
	Enqueue(ctx context.Context, id string) error
	// Claim blocks up to the configured timeout. Returns ErrEmpty on timeout.
	Claim(ctx context.Context) (string, error)
	Ack(ctx context.Context, id string) error
	// RequeueStale moves up to the reap batch of processing ids back to pending.
	RequeueStale(ctx context.Context) (int64, error)
	// Depth reports pending and processing lengths.
	Depth(ctx context.Context) (pending, processing int64, err error)
}

// System is a Queue bound to a Redis client and the process lifecycle.
type System interface {
	Queue
	Client() *redis.Client
	Start(lc *lifecycle.Coordinator) error
}

type redisQueue struct {
	rdb          *redis.Client
	pendingKey   string
	processKey   string
	claimTimeout time.Duration
	reapBatch    int64
	logger       *slog.Logger
}

// New creates a Redis-backed queue. No connection is made until first use.
func New(cfg *Config, logger *slog.Logger) System {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return newQueue(rdb, cfg, logger)
}

func newQueue(rdb *redis.Client, cfg *Config, logger *slog.Logger) *redisQueue {
	return &redisQueue{
		rdb:          rdb,
		pendingKey:   cfg.Key + ":pending",
		processKey:   cfg.Key + ":processing",
		claimTimeout: cfg.ClaimTimeoutDuration(),
		reapBatch:    cfg.ReapBatch,
		logger:       logger.With("system", "queue"),
	}
}

func (q *redisQueue) Client() *redis.Client {
	return q.rdb
}

func (q *redisQueue) Start(lc *lifecycle.Coordinator) error {
	q.logger.Info("starting queue", "pending", q.pendingKey, "processing", q.processKey)

	lc.AddProbe("queue", func(ctx context.Context) error {
		return q.rdb.Ping(ctx).Err()
	})

	lc.OnStartup(func() {
		if err := q.rdb.Ping(lc.Context()).Err(); err != nil {
			q.logger.Error("redis ping failed", "error", err)
			return
		}

		moved, err := q.RequeueStale(lc.Context())
		if err != nil {
			q.logger.Error("requeue stale failed", "error", err)
			return
		}
		q.logger.Info("queue ready", "requeued", moved)
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := q.rdb.Close(); err != nil {
			q.logger.Error("redis close failed", "error", err)
			return
		}
		q.logger.Info("queue closed")
	})

	return nil
}

func (q *redisQueue) Enqueue(ctx context.Context, id string) error {
	if err := q.rdb.LPush(ctx, q.pendingKey, id).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", id, err)
	}
	return nil
}

func (q *redisQueue) Claim(ctx context.Context) (string, error) {
	id, err := q.rdb.BRPopLPush(ctx, q.pendingKey, q.processKey, q.claimTimeout).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrEmpty
	}
	if err != nil {
		return "", fmt.Errorf("claim: %w", err)
	}
	return id, nil
}

func (q *redisQueue) Ack(ctx context.Context, id string) error {
	if err := q.rdb.LRem(ctx, q.processKey, 1, id).Err(); err != nil {
		return fmt.Errorf("ack %s: %w", id, err)
	}
	return nil
}

func (q *redisQueue) RequeueStale(ctx context.Context) (int64, error) {
	var moved int64
	for moved < q.reapBatch {
		_, err := q.rdb.RPopLPush(ctx, q.processKey, q.pendingKey).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return moved, fmt.Errorf("requeue stale: %w", err)
		}
		moved++
	}
	return moved, nil
}

func (q *redisQueue) Depth(ctx context.Context) (int64, int64, error) {
	pipe := q.rdb.Pipeline()
	pending := pipe.LLen(ctx, q.pendingKey)
	processing := pipe.LLen(ctx, q.processKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("queue depth: %w", err)
	}
	return pending.Val(), processing.Val(), nil
}
