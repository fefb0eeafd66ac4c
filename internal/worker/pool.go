package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/baharkarakas/blog-backend/internal/metrics"
)

// Task is a best-effort background job. It gets a context bounded by the
// pool's task timeout.
type Task func(ctx context.Context)

type Pool struct {
	wg      sync.WaitGroup
	jobs    chan Task
	timeout time.Duration
	log     *zap.Logger

	mu     sync.RWMutex
	closed bool
}

func NewPool(n, queue int, timeout time.Duration, log *zap.Logger) *Pool {
	if n <= 0 {
		n = 1
	}
	if queue <= 0 {
		queue = 1024
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pool{jobs: make(chan Task, queue), timeout: timeout, log: log}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				metrics.WorkerQueueDepth.Dec()
				p.run(job)
			}
		}()
	}
	return p
}

func (p *Pool) run(job Task) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error("worker task panic", zap.Any("panic", rec))
		}
	}()
	job(ctx)
}

// Submit queues a task without blocking. It reports false when the queue
// is full or the pool is stopped.
func (p *Pool) Submit(f Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.jobs <- f:
		metrics.WorkerQueueDepth.Inc()
		return true
	default:
		p.log.Warn("worker queue full, task dropped")
		return false
	}
}

// Stop drains queued tasks and waits for the workers to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
