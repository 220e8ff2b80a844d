package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"voxpipe/internal/config"
	"voxpipe/internal/jobs"
)

// MustOpenStore opens a jobs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob inserts a queued job whose source lives under the uploads directory.
func NewJob(t testing.TB, store *jobs.Store, cfg *config.Config, name string) *jobs.Job {
	t.Helper()

	id := jobs.NewID()
	job := &jobs.Job{
		ID:               id,
		Status:           jobs.StatusQueued,
		Progress:         5,
		OriginalFilename: name,
		SourcePath:       filepath.Join(cfg.Paths.StorageDir, config.UploadsDir, id+"_"+name),
	}
	if err := store.Create(context.Background(), job); err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return job
}

// MustGetJob fetches a job and fails the test when it is missing.
func MustGetJob(t testing.TB, store *jobs.Store, id string) *jobs.Job {
	t.Helper()

	job, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	if job == nil {
		t.Fatalf("job %s not found", id)
	}
	return job
}
