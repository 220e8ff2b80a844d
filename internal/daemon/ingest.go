package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"voxpipe/internal/api"
	"voxpipe/internal/config"
	"voxpipe/internal/fileutil"
	"voxpipe/internal/jobs"
	"voxpipe/internal/logging"
	"voxpipe/internal/media/ffprobe"
	"voxpipe/internal/workflow"
)

// Client-facing messages.
const (
	msgInvalidFile = "فایل نامعتبر است"
	msgQueueFull   = "صف پردازش پر است، لطفاً بعداً تلاش کنید"
	msgTooLarge    = "حجم فایل بیش از حد مجاز است"
	msgNotFound    = "درخواست پیدا نشد"
	msgNotReady    = "پردازش هنوز کامل نشده است"
	msgInternal    = "خطای داخلی سرور"
)

const maxFilenameRunes = 150

var unsafeFilenameChars = regexp.MustCompile(`[^\p{L}\p{N}_\-.آ-ی]+`)

// SanitizeFilename replaces every run of characters outside letters, digits,
// '_', '-', '.', and the Persian block with '_'. The result is at most 150
// runes and never empty.
func SanitizeFilename(name string) string {
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	if name == "" {
		return "file"
	}
	runes := []rune(name)
	if len(runes) > maxFilenameRunes {
		return string(runes[:maxFilenameRunes])
	}
	return name
}

// rejection is an admission failure that maps onto an HTTP error response.
type rejection struct {
	status  int
	code    string
	message string
}

func (r *rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.code, r.message)
}

func reject(status int, code, message string) error {
	return &rejection{status: status, code: code, message: message}
}

// ingest stores an upload, records it as a queued job, and admits it to the
// pool. Nothing is left on disk when admission fails.
func (d *Daemon) ingest(ctx context.Context, filename string, body io.Reader) (*jobs.Job, error) {
	if d.pool.Full() {
		return nil, reject(http.StatusTooManyRequests, api.CodeQueueFull, msgQueueFull)
	}

	safeName := SanitizeFilename(filename)
	id := jobs.NewID()
	dest := d.cfg.StoragePath(config.UploadsDir, id+"_"+safeName)

	if err := writeLimited(dest, body, d.cfg.MaxUploadBytes()); err != nil {
		_ = fileutil.RemoveIfExists(dest)
		return nil, err
	}
	if err := d.checkDuration(ctx, dest); err != nil {
		_ = fileutil.RemoveIfExists(dest)
		return nil, err
	}

	job := &jobs.Job{
		ID:               id,
		Status:           jobs.StatusQueued,
		Progress:         workflow.ProgressQueued,
		OriginalFilename: safeName,
		SourcePath:       dest,
	}
	if err := d.store.Create(ctx, job); err != nil {
		_ = fileutil.RemoveIfExists(dest)
		return nil, fmt.Errorf("create job: %w", err)
	}

	if !d.pool.Submit(id) {
		if err := d.store.Update(ctx, id, jobs.Fields{
			jobs.ColStatus:       jobs.StatusError,
			jobs.ColErrorMessage: workflow.MessageQueueFull,
		}); err != nil {
			d.logger.Warn("failed to mark refused job", logging.String(logging.FieldJobID, id), logging.Error(err))
		}
		_ = fileutil.RemoveIfExists(dest)
		logging.WarnWithContext(logging.WithContext(ctx, d.logger), "upload refused; queue full", "upload_queue_full",
			logging.String(logging.FieldJobID, id),
			logging.String(logging.FieldImpact, "client must retry later"),
			logging.String(logging.FieldErrorHint, "raise workflow.max_queue_size or worker_threads"),
		)
		return nil, reject(http.StatusTooManyRequests, api.CodeQueueFull, msgQueueFull)
	}

	logging.WithContext(ctx, d.logger).Info("upload queued",
		logging.String(logging.FieldJobID, id),
		logging.String("filename", safeName),
		logging.String(logging.FieldEventType, "upload_queued"),
	)
	return job, nil
}

// writeLimited copies body to path, failing with FILE_TOO_LARGE once more
// than limit bytes arrive.
func writeLimited(path string, body io.Reader, limit int64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure upload directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create upload: %w", err)
	}

	written, copyErr := io.Copy(file, io.LimitReader(body, limit+1))
	closeErr := file.Close()

	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(copyErr, &maxBytesErr), written > limit:
		return reject(http.StatusRequestEntityTooLarge, api.CodeFileTooLarge, msgTooLarge)
	case copyErr != nil:
		return fmt.Errorf("write upload: %w", copyErr)
	case closeErr != nil:
		return fmt.Errorf("close upload: %w", closeErr)
	}
	return nil
}

// checkDuration rejects uploads longer than limits.max_seconds when ffprobe
// can read them. Probe failures are left to the pipeline's own check after
// transcoding.
func (d *Daemon) checkDuration(ctx context.Context, path string) error {
	limit := d.cfg.Limits.MaxSeconds
	if limit <= 0 {
		return nil
	}
	seconds, err := ffprobe.Duration(ctx, d.cfg.FFprobeBinary(), path)
	if err != nil {
		d.logger.Debug("early duration probe skipped", logging.String("path", path), logging.Error(err))
		return nil
	}
	if seconds > float64(limit) {
		return reject(http.StatusBadRequest, api.CodeTooLong, workflow.TooLongMessage(limit))
	}
	return nil
}

func contentDispositionName(original string) string {
	name := strings.TrimSpace(original)
	if name == "" {
		name = "transcript"
	}
	return name + "_cleaned.txt"
}
