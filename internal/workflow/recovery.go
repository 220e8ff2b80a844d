package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"voxpipe/internal/jobs"
	"voxpipe/internal/logging"
)

// Submitter admits job ids for processing.
type Submitter interface {
	Submit(id string) bool
}

// RecoveryReport summarizes a startup recovery pass.
type RecoveryReport struct {
	Reset    int64
	Requeued int
	Refused  int
}

// Recover resets jobs abandoned mid-processing and re-admits every queued job,
// oldest first. Jobs the queue cannot take are failed with MessageQueueFull.
// Jobs restart from the beginning.
func Recover(ctx context.Context, store *jobs.Store, pool Submitter, logger *slog.Logger) (RecoveryReport, error) {
	logger = logging.NewComponentLogger(logger, "workflow-recovery")
	var report RecoveryReport

	reset, err := store.ResetProcessing(ctx, ProgressQueued)
	if err != nil {
		return report, fmt.Errorf("recover: %w", err)
	}
	report.Reset = reset

	queued, err := store.List(ctx, jobs.Filter{
		Statuses: []jobs.Status{jobs.StatusQueued},
		Order:    jobs.OrderOldest,
	})
	if err != nil {
		return report, fmt.Errorf("recover: %w", err)
	}

	for _, job := range queued {
		if pool.Submit(job.ID) {
			report.Requeued++
			continue
		}
		report.Refused++
		if err := store.Update(ctx, job.ID, jobs.Fields{
			jobs.ColStatus:       jobs.StatusError,
			jobs.ColErrorMessage: MessageQueueFull,
		}); err != nil {
			return report, fmt.Errorf("recover: mark %s refused: %w", job.ID, err)
		}
		logging.WarnWithContext(logger, "queue full during recovery; job failed", "recovery_queue_full",
			logging.String(logging.FieldJobID, job.ID),
			logging.String(logging.FieldImpact, "job must be uploaded again"),
			logging.String(logging.FieldErrorHint, "raise workflow.max_queue_size"),
		)
	}

	if report.Reset > 0 || report.Requeued > 0 || report.Refused > 0 {
		logger.Info("startup recovery complete",
			logging.Int64("reset", report.Reset),
			logging.Int("requeued", report.Requeued),
			logging.Int("refused", report.Refused),
		)
	}
	return report, nil
}
