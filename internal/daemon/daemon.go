package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"voxpipe/internal/api"
	"voxpipe/internal/config"
	"voxpipe/internal/deps"
	"voxpipe/internal/jobs"
	"voxpipe/internal/logging"
	"voxpipe/internal/workflow"
)

// Daemon coordinates the background processing services and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *jobs.Store
	pool    *workflow.Pool
	sweeper *workflow.RetentionSweeper
	jobsSvc *api.JobService
	api     *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Pool         workflow.PoolStats
	JobCounts    map[string]int
	Dependencies []deps.Status
	DatabasePath string
	LockFilePath string
	APIAddress   string
}

// New constructs a daemon with initialized dependencies. The sweeper is optional.
func New(cfg *config.Config, store *jobs.Store, pool *workflow.Pool, sweeper *workflow.RetentionSweeper, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || pool == nil {
		return nil, errors.New("daemon requires config, store, and worker pool")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "voxpipe.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		pool:     pool,
		sweeper:  sweeper,
		jobsSvc:  api.NewJobService(store),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, recovers interrupted jobs, and launches the
// worker pool, retention sweeper, and HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another voxpipe daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.startServices(d.ctx); err != nil {
		d.stopServices()
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("voxpipe daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.Addr()),
	)
	return nil
}

func (d *Daemon) startServices(ctx context.Context) error {
	if _, err := workflow.Recover(ctx, d.store, d.pool, d.logger); err != nil {
		return fmt.Errorf("startup recovery: %w", err)
	}
	if err := d.pool.Start(ctx); err != nil {
		return fmt.Errorf("start worker pool: %w", err)
	}
	if d.sweeper != nil {
		if err := d.sweeper.Start(ctx); err != nil {
			return fmt.Errorf("start retention sweeper: %w", err)
		}
	}
	if err := d.api.start(ctx); err != nil {
		return err
	}
	return nil
}

func (d *Daemon) stopServices() {
	d.api.stop()
	if d.sweeper != nil {
		d.sweeper.Stop()
	}
	d.pool.Stop()
}

// Stop stops background processing and releases the daemon lock. Jobs that
// are already running finish before Stop returns.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.stopServices()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("voxpipe daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Handler exposes the HTTP API without binding a listener.
func (d *Daemon) Handler() http.Handler {
	return d.api.handler()
}

// Addr returns the address the API listens on, or "" when it is not serving.
func (d *Daemon) Addr() string {
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		Pool:         d.pool.Stats(),
		Dependencies: deps.CheckBinaries(deps.Requirements(d.cfg)),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		APIAddress:   d.Addr(),
	}
	counts, err := d.jobsSvc.Stats(ctx)
	if err != nil {
		d.logger.Warn("job stats unavailable", logging.Error(err))
	}
	status.JobCounts = counts
	return status
}
