package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"voxpipe/internal/config"
	"voxpipe/internal/logging"
	"voxpipe/internal/services"
)

// Processor executes a single job to completion.
type Processor interface {
	Process(ctx context.Context, id string) error
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, id string) error

// Process calls f(ctx, id).
func (f ProcessorFunc) Process(ctx context.Context, id string) error {
	return f(ctx, id)
}

// PoolStats is a point-in-time view of the admission queue.
type PoolStats struct {
	Queued   int
	InFlight int
	Capacity int
	Workers  int
	Running  bool
}

// Pool is a fixed-size worker pool fed by a bounded FIFO of job ids.
type Pool struct {
	logger         *slog.Logger
	processor      Processor
	workers        int
	capacity       int
	dequeueTimeout time.Duration
	queue          chan string

	mu       sync.Mutex
	members  map[string]struct{}
	inFlight map[string]struct{}
	locks    map[string]*sync.Mutex

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPool sizes the pool from the [workflow] config section.
func NewPool(cfg *config.Config, processor Processor, logger *slog.Logger) *Pool {
	workers := cfg.Workflow.WorkerThreads
	if workers <= 0 {
		workers = 1
	}
	capacity := cfg.Workflow.MaxQueueSize
	if capacity <= 0 {
		capacity = 1
	}
	timeout := time.Duration(cfg.Workflow.DequeueTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = time.Second
	}
	return &Pool{
		logger:         logging.NewComponentLogger(logger, "workflow-pool"),
		processor:      processor,
		workers:        workers,
		capacity:       capacity,
		dequeueTimeout: timeout,
		queue:          make(chan string, capacity),
		members:        make(map[string]struct{}),
		inFlight:       make(map[string]struct{}),
		locks:          make(map[string]*sync.Mutex),
	}
}

// Submit admits id for processing. It returns false only when the queue is
// at capacity; an id that is already queued or running is accepted without
// being enqueued again.
func (p *Pool) Submit(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.members[id]; ok {
		return true
	}
	if _, ok := p.inFlight[id]; ok {
		return true
	}
	select {
	case p.queue <- id:
		p.members[id] = struct{}{}
		return true
	default:
		return false
	}
}

// Full reports whether a new id would be refused.
func (p *Pool) Full() bool {
	return len(p.queue) >= p.capacity
}

// Stats snapshots the queue counters.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	inFlight := len(p.inFlight)
	p.mu.Unlock()

	p.runMu.Lock()
	running := p.running
	p.runMu.Unlock()

	return PoolStats{
		Queued:   len(p.queue),
		InFlight: inFlight,
		Capacity: p.capacity,
		Workers:  p.workers,
		Running:  running,
	}
}

// Start launches the worker loops.
func (p *Pool) Start(ctx context.Context) error {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	if p.running {
		return errors.New("worker pool already running")
	}
	if p.processor == nil {
		return errors.New("worker pool has no processor")
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.runWorker(runCtx, i)
	}
	p.logger.Info("worker pool started",
		logging.Int("workers", p.workers),
		logging.Int("capacity", p.capacity),
	)
	return nil
}

// Stop terminates the worker loops and waits for them. Jobs already running
// are finished first.
func (p *Pool) Stop() {
	p.runMu.Lock()
	if !p.running {
		p.runMu.Unlock()
		return
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.runMu.Unlock()

	cancel()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

func (p *Pool) runWorker(ctx context.Context, index int) {
	defer p.wg.Done()
	logger := p.logger.With(logging.Int("worker", index))

	timer := time.NewTimer(p.dequeueTimeout)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(p.dequeueTimeout)

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			continue
		case id := <-p.queue:
			p.handle(ctx, logger, id)
		}
	}
}

func (p *Pool) handle(ctx context.Context, logger *slog.Logger, id string) {
	lock, ok := p.acquire(id)
	if !ok {
		logger.Info("job already being processed; skipping duplicate entry",
			logging.String(logging.FieldJobID, id),
			logging.String(logging.FieldEventType, "job_duplicate_skipped"),
		)
		return
	}
	defer p.release(id, lock)

	jobCtx := services.WithJobID(context.WithoutCancel(ctx), id)
	if err := p.processor.Process(jobCtx, id); err != nil {
		logging.ErrorWithContext(logging.WithContext(jobCtx, logger), "job processing aborted", "job_processing_aborted",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check job database access"),
		)
	}
}

// acquire drops id from the membership set and takes its lock without waiting.
func (p *Pool) acquire(id string) (*sync.Mutex, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.members, id)
	lock, ok := p.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[id] = lock
	}
	if !lock.TryLock() {
		return nil, false
	}
	p.inFlight[id] = struct{}{}
	return lock, true
}

func (p *Pool) release(id string, lock *sync.Mutex) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.inFlight, id)
	lock.Unlock()
	if p.locks[id] == lock {
		delete(p.locks, id)
	}
}
