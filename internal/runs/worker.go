package runs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/JaimeStill/enricher/pkg/lifecycle"
	"github.com/JaimeStill/enricher/pkg/queue"
)

const claimBackoff = time.Second

// Task processes one claimed id.
type Task interface {
	Process(ctx context.Context, id string) error
}

// Pool claims ids from the queue and processes up to size of them at once.
// Ids are acknowledged after processing unless the pool is stopping or the
// run store failed, in which case they stay in the processing list and are
// requeued at the next startup.
type Pool struct {
	queue  queue.Queue
	task   Task
	sem    *semaphore.Weighted
	size   int64
	logger *slog.Logger
	done   chan struct{}
}

// NewPool creates a Pool. size below 1 is treated as 1.
func NewPool(q queue.Queue, task Task, size int, logger *slog.Logger) *Pool {
	n := int64(max(size, 1))
	return &Pool{
		queue:  q,
		task:   task,
		sem:    semaphore.NewWeighted(n),
		size:   n,
		logger: logger.With("system", "runs-worker"),
		done:   make(chan struct{}),
	}
}

// Start runs the pool in the background and drains it on shutdown.
func (p *Pool) Start(lc *lifecycle.Coordinator) {
	lc.OnStartup(func() {
		go p.Run(lc.Context())
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		<-p.done
	})
}

// Run claims and dispatches until ctx is cancelled, then waits for
// in-flight work to return.
func (p *Pool) Run(ctx context.Context) {
	defer close(p.done)
	p.logger.Info("worker pool started", "size", p.size)

	for {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			break
		}

		id, err := p.queue.Claim(ctx)
		if err != nil {
			p.sem.Release(1)
			if errors.Is(err, queue.ErrEmpty) {
				continue
			}
			if ctx.Err() != nil {
				break
			}
			p.logger.Error("claim failed", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(claimBackoff):
			}
			continue
		}

		go p.handle(ctx, id)
	}

	p.sem.Acquire(context.Background(), p.size)
	p.logger.Info("worker pool stopped")
}

func (p *Pool) handle(ctx context.Context, id string) {
	defer p.sem.Release(1)

	err := p.task.Process(ctx, id)
	if err != nil {
		p.logger.Error("process failed", "id", id, "error", err)
	}

	if ctx.Err() != nil || errors.Is(err, ErrStore) {
		p.logger.Warn("leaving run for redelivery", "id", id)
		return
	}

	if err := p.queue.Ack(ctx, id); err != nil {
		p.logger.Error("ack failed", "id", id, "error", err)
	}
}
