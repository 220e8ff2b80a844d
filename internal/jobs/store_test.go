package jobs_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"voxpipe/internal/jobs"
	"voxpipe/internal/services"
	"voxpipe/internal/testsupport"
)

func TestCreateAndGetRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.NewJob(t, store, cfg, "voice.mp3")
	if len(job.ID) != 32 {
		t.Fatalf("expected 32 character id, got %q", job.ID)
	}

	fetched := testsupport.MustGetJob(t, store, job.ID)
	if fetched.Status != jobs.StatusQueued || fetched.Progress != 5 {
		t.Fatalf("unexpected state: %s %d", fetched.Status, fetched.Progress)
	}
	if fetched.OriginalFilename != "voice.mp3" || fetched.SourcePath != job.SourcePath {
		t.Fatalf("unexpected file fields: %+v", fetched)
	}
	if fetched.DurationSeconds != nil || fetched.SpeechRatio != nil {
		t.Fatal("analysis fields should start NULL")
	}
	if fetched.CreatedAt.IsZero() || fetched.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps")
	}

	missing, err := store.Get(ctx, "does-not-exist")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for missing job, got %v %v", missing, err)
	}
}

func TestCreateRequiresSourcePath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	if err := store.Create(context.Background(), &jobs.Job{OriginalFilename: "x"}); err == nil {
		t.Fatal("expected error without source path")
	}
}

func TestUpdateWritesFieldsAndRefreshesTimestamp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	job := testsupport.NewJob(t, store, cfg, "a.wav")
	before := testsupport.MustGetJob(t, store, job.ID).UpdatedAt

	time.Sleep(5 * time.Millisecond)
	duration := 42
	ratio := 0.33
	err := store.Update(ctx, job.ID, jobs.Fields{
		jobs.ColStatus:          jobs.StatusProcessing,
		jobs.ColProgress:        25,
		jobs.ColDurationSeconds: &duration,
		jobs.ColSpeechRatio:     ratio,
		jobs.ColMusicProb:       (*float64)(nil),
		jobs.ColAudioType:       jobs.AudioSpeech,
		jobs.ColASRProfile:      jobs.ProfileBalanced,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	got := testsupport.MustGetJob(t, store, job.ID)
	if got.Status != jobs.StatusProcessing || got.Progress != 25 {
		t.Fatalf("unexpected state %s %d", got.Status, got.Progress)
	}
	if got.DurationSeconds == nil || *got.DurationSeconds != 42 {
		t.Fatalf("unexpected duration %v", got.DurationSeconds)
	}
	if got.SpeechRatio == nil || *got.SpeechRatio != 0.33 {
		t.Fatalf("unexpected speech ratio %v", got.SpeechRatio)
	}
	if got.MusicProbability != nil {
		t.Fatal("expected NULL music probability")
	}
	if !got.UpdatedAt.After(before) {
		t.Fatalf("expected updated_at to advance: %s vs %s", got.UpdatedAt, before)
	}
}

func TestUpdateRejectsUnknownColumnAndMissingJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	job := testsupport.NewJob(t, store, cfg, "a.wav")

	if err := store.Update(ctx, job.ID, jobs.Fields{"id": "other"}); err == nil {
		t.Fatal("expected unknown column error")
	}
	err := store.Update(ctx, "missing", jobs.Fields{jobs.ColProgress: 10})
	if !errors.Is(err, jobs.ErrNotFound) || !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListFiltersAndOrders(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).UTC()
	var ids []string
	for i := 0; i < 4; i++ {
		job := &jobs.Job{
			OriginalFilename: "f.wav",
			SourcePath:       filepath.Join(cfg.Paths.StorageDir, "uploads", "f.wav"),
			Progress:         5,
			CreatedAt:        base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Create(ctx, job); err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, job.ID)
	}
	if err := store.Update(ctx, ids[3], jobs.Fields{jobs.ColStatus: jobs.StatusDone}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	queued, err := store.List(ctx, jobs.Filter{Statuses: []jobs.Status{jobs.StatusQueued}, Order: jobs.OrderOldest})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(queued) != 3 || queued[0].ID != ids[0] || queued[2].ID != ids[2] {
		t.Fatalf("unexpected queued order: %v", jobIDs(queued))
	}

	newest, err := store.List(ctx, jobs.Filter{Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(newest) != 2 || newest[0].ID != ids[3] || newest[1].ID != ids[2] {
		t.Fatalf("unexpected newest: %v", jobIDs(newest))
	}

	old, err := store.List(ctx, jobs.Filter{CreatedBefore: base.Add(90 * time.Second)})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(old) != 2 {
		t.Fatalf("expected 2 jobs before cutoff, got %v", jobIDs(old))
	}
}

func TestResetProcessingFloorsProgress(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	low := testsupport.NewJob(t, store, cfg, "low.wav")
	high := testsupport.NewJob(t, store, cfg, "high.wav")
	done := testsupport.NewJob(t, store, cfg, "done.wav")
	mustUpdate(t, store, low.ID, jobs.Fields{jobs.ColStatus: jobs.StatusProcessing, jobs.ColProgress: 0, jobs.ColErrorMessage: "stale"})
	mustUpdate(t, store, high.ID, jobs.Fields{jobs.ColStatus: jobs.StatusProcessing, jobs.ColProgress: 35})
	mustUpdate(t, store, done.ID, jobs.Fields{jobs.ColStatus: jobs.StatusDone, jobs.ColProgress: 100})

	n, err := store.ResetProcessing(ctx, 5)
	if err != nil {
		t.Fatalf("ResetProcessing: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 resets, got %d", n)
	}

	gotLow := testsupport.MustGetJob(t, store, low.ID)
	if gotLow.Status != jobs.StatusQueued || gotLow.Progress != 5 || gotLow.ErrorMessage != "" {
		t.Fatalf("unexpected low job: %+v", gotLow)
	}
	if gotHigh := testsupport.MustGetJob(t, store, high.ID); gotHigh.Status != jobs.StatusQueued || gotHigh.Progress != 35 {
		t.Fatalf("unexpected high job: %+v", gotHigh)
	}
	if gotDone := testsupport.MustGetJob(t, store, done.ID); gotDone.Status != jobs.StatusDone {
		t.Fatalf("done job should be untouched: %+v", gotDone)
	}

	again, err := store.ResetProcessing(ctx, 5)
	if err != nil || again != 0 {
		t.Fatalf("expected second reset to be a no-op, got %d %v", again, err)
	}
}

func TestDeleteAndStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a := testsupport.NewJob(t, store, cfg, "a.wav")
	b := testsupport.NewJob(t, store, cfg, "b.wav")
	mustUpdate(t, store, b.ID, jobs.Fields{jobs.ColStatus: jobs.StatusError, jobs.ColErrorMessage: "boom"})

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[jobs.StatusQueued] != 1 || stats[jobs.StatusError] != 1 {
		t.Fatalf("unexpected stats %v", stats)
	}

	if err := store.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, a.ID); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
	if got, _ := store.Get(ctx, a.ID); got != nil {
		t.Fatal("expected job to be gone")
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if store.Path() != cfg.DatabasePath() {
		t.Fatalf("unexpected database path %q", store.Path())
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := jobs.Open(cfg); !errors.Is(err, jobs.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := jobs.ParseStatus(" DONE "); !ok || s != jobs.StatusDone {
		t.Fatalf("unexpected parse: %v %v", s, ok)
	}
	if _, ok := jobs.ParseStatus("retrying"); ok {
		t.Fatal("expected unknown status to fail")
	}
	if !jobs.StatusError.IsTerminal() || jobs.StatusProcessing.IsTerminal() {
		t.Fatal("unexpected terminal classification")
	}
}

func mustUpdate(t *testing.T, store *jobs.Store, id string, fields jobs.Fields) {
	t.Helper()
	if err := store.Update(context.Background(), id, fields); err != nil {
		t.Fatalf("Update %s: %v", id, err)
	}
}

func jobIDs(list []*jobs.Job) []string {
	out := make([]string, len(list))
	for i, j := range list {
		out[i] = j.ID
	}
	return out
}
