package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"voxpipe/internal/config"
	"voxpipe/internal/fileutil"
	"voxpipe/internal/jobs"
	"voxpipe/internal/logging"
)

// SweepReport summarizes one retention pass.
type SweepReport struct {
	Deleted      int
	FilesRemoved int
	FileErrors   int
}

// RetentionSweeper deletes jobs older than the retention window together
// with their audio files.
type RetentionSweeper struct {
	cfg      *config.Config
	store    *jobs.Store
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewRetentionSweeper reads the window and interval from the [retention] section.
func NewRetentionSweeper(cfg *config.Config, store *jobs.Store, logger *slog.Logger) *RetentionSweeper {
	interval := time.Duration(cfg.Retention.SweepIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}
	return &RetentionSweeper{
		cfg:      cfg,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "workflow-retention"),
		interval: interval,
		now:      time.Now,
	}
}

// SetClock overrides the time source (for testing).
func (s *RetentionSweeper) SetClock(now func() time.Time) {
	s.now = now
}

// Start runs SweepOnce every interval until Stop or ctx cancellation. The
// first pass happens after one interval.
func (s *RetentionSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("retention sweeper already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go s.loop(runCtx)
	return nil
}

// Stop halts the loop and waits for an in-progress sweep.
func (s *RetentionSweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
}

func (s *RetentionSweeper) loop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				logging.ErrorWithContext(s.logger, "retention sweep failed", "retention_sweep_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check job database access"),
				)
			}
		}
	}
}

// SweepOnce deletes every job created before now minus retention.hours.
// Missing files are ignored; other file errors are logged and skipped.
func (s *RetentionSweeper) SweepOnce(ctx context.Context) (SweepReport, error) {
	var report SweepReport
	cutoff := s.now().Add(-time.Duration(s.cfg.Retention.Hours) * time.Hour)

	expired, err := s.store.List(ctx, jobs.Filter{CreatedBefore: cutoff, Order: jobs.OrderOldest})
	if err != nil {
		return report, fmt.Errorf("retention sweep: %w", err)
	}

	for _, job := range expired {
		for _, path := range s.artifactPaths(job) {
			existed := fileExists(path)
			if err := fileutil.RemoveIfExists(path); err != nil {
				report.FileErrors++
				logging.WarnWithContext(s.logger, "failed to remove expired audio", "retention_file_remove_failed",
					logging.String(logging.FieldJobID, job.ID),
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldImpact, "file remains on disk"),
				)
				continue
			}
			if existed {
				report.FilesRemoved++
			}
		}
		if err := s.store.Delete(ctx, job.ID); err != nil {
			return report, fmt.Errorf("retention sweep: %w", err)
		}
		report.Deleted++
	}

	if report.Deleted > 0 {
		s.logger.Info("expired jobs removed",
			logging.Int("jobs", report.Deleted),
			logging.Int("files", report.FilesRemoved),
			logging.String("cutoff", cutoff.UTC().Format(time.RFC3339)),
		)
	}
	return report, nil
}

// artifactPaths lists the upload, the working audio and every intermediate
// file the pipeline may have written for job.
func (s *RetentionSweeper) artifactPaths(job *jobs.Job) []string {
	candidates := []string{
		job.SourcePath,
		job.WorkingAudioPath,
		s.cfg.StoragePath(config.WavDir, job.ID+".wav"),
		s.cfg.StoragePath(config.ProcessedDir, job.ID+"_suppressed.wav"),
		s.cfg.StoragePath(config.DenoisedDir, job.ID+".wav"),
	}
	seen := make(map[string]struct{}, len(candidates))
	paths := make([]string, 0, len(candidates))
	for _, path := range candidates {
		if path == "" {
			continue
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}
	return paths
}

func fileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
