package workflow_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"voxpipe/internal/config"
	"voxpipe/internal/jobs"
	"voxpipe/internal/testsupport"
	"voxpipe/internal/workflow"
)

type limitedSubmitter struct {
	limit int
	ids   []string
}

func (s *limitedSubmitter) Submit(id string) bool {
	if len(s.ids) >= s.limit {
		return false
	}
	s.ids = append(s.ids, id)
	return true
}

func TestRecoverResetsProcessingAndRequeuesOldestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	first := createJobAt(t, store, cfg, "first.mp3", base)
	second := createJobAt(t, store, cfg, "second.mp3", base.Add(time.Second))
	third := createJobAt(t, store, cfg, "third.mp3", base.Add(2*time.Second))
	done := createJobAt(t, store, cfg, "done.mp3", base.Add(3*time.Second))

	if err := store.Update(ctx, first.ID, jobs.Fields{jobs.ColStatus: jobs.StatusProcessing, jobs.ColProgress: 35}); err != nil {
		t.Fatalf("seed processing: %v", err)
	}
	if err := store.Update(ctx, second.ID, jobs.Fields{jobs.ColStatus: jobs.StatusProcessing, jobs.ColProgress: 0}); err != nil {
		t.Fatalf("seed processing: %v", err)
	}
	if err := store.Update(ctx, done.ID, jobs.Fields{jobs.ColStatus: jobs.StatusDone, jobs.ColProgress: 100}); err != nil {
		t.Fatalf("seed done: %v", err)
	}

	submitter := &limitedSubmitter{limit: 2}
	report, err := workflow.Recover(ctx, store, submitter, nil)
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if report.Reset != 2 || report.Requeued != 2 || report.Refused != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(submitter.ids) != 2 || submitter.ids[0] != first.ID || submitter.ids[1] != second.ID {
		t.Fatalf("expected oldest-first admission, got %v", submitter.ids)
	}

	if got := testsupport.MustGetJob(t, store, first.ID); got.Status != jobs.StatusQueued || got.Progress != 35 {
		t.Fatalf("expected first queued at 35, got %s at %d", got.Status, got.Progress)
	}
	if got := testsupport.MustGetJob(t, store, second.ID); got.Status != jobs.StatusQueued || got.Progress != 5 {
		t.Fatalf("expected second queued at 5, got %s at %d", got.Status, got.Progress)
	}
	refused := testsupport.MustGetJob(t, store, third.ID)
	if refused.Status != jobs.StatusError || refused.ErrorMessage != workflow.MessageQueueFull || refused.Progress != 5 {
		t.Fatalf("expected refused job failed with queue-full message, got %+v", refused)
	}
	if got := testsupport.MustGetJob(t, store, done.ID); got.Status != jobs.StatusDone {
		t.Fatalf("terminal jobs must be untouched, got %s", got.Status)
	}

	again, err := workflow.Recover(ctx, store, &limitedSubmitter{limit: 10}, nil)
	if err != nil {
		t.Fatalf("second Recover: %v", err)
	}
	if again.Reset != 0 {
		t.Fatalf("processing jobs must be reset exactly once, got %d", again.Reset)
	}
}

func createJobAt(t *testing.T, store *jobs.Store, cfg *config.Config, name string, created time.Time) *jobs.Job {
	t.Helper()
	job := &jobs.Job{
		ID:               jobs.NewID(),
		Status:           jobs.StatusQueued,
		Progress:         5,
		OriginalFilename: name,
		CreatedAt:        created,
	}
	job.SourcePath = filepath.Join(cfg.Paths.StorageDir, config.UploadsDir, job.ID+"_"+name)
	if err := store.Create(context.Background(), job); err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return job
}
