package worker

import (
	"log/slog"
	"sync"

	"github.com/JulianaCelis/hatsusound-backend/internal/metrics"
)

type Task func()

// Pool runs background side effects (event publication) off the request path.
type Pool struct {
	wg   sync.WaitGroup
	jobs chan Task
	mu   sync.RWMutex
	done bool
}

func NewPool(n int) *Pool {
	return newPool(n, 1024)
}

func newPool(n, queue int) *Pool {
	if n <= 0 {
		n = 1
	}
	p := &Pool{jobs: make(chan Task, queue)}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				metrics.WorkerQueueDepth.Dec()
				run(job)
			}
		}()
	}
	return p
}

func run(job Task) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("worker task panicked", "err", rec)
		}
	}()
	job()
}

// Submit queues f without blocking. It reports false after Stop or when the
// queue is full; the caller then runs f itself.
func (p *Pool) Submit(f Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.done {
		return false
	}
	metrics.WorkerQueueDepth.Inc()
	select {
	case p.jobs <- f:
		return true
	default:
		metrics.WorkerQueueDepth.Dec()
		return false
	}
}

// Stop drains queued tasks and waits for the workers.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		return
	}
	p.done = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
