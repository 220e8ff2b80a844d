package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"voxpipe/internal/api"
	"voxpipe/internal/config"
	"voxpipe/internal/jobs"
	"voxpipe/internal/logging"
)

// multipartOverhead is the slack allowed on top of limits.max_mb for
// multipart boundaries and headers.
const multipartOverhead = 1 << 20

type apiServer struct {
	bind   string
	token  string
	logger *slog.Logger
	daemon *Daemon
	mux    http.Handler

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		token:  cfg.Paths.APIToken,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload", srv.handleUpload)
	mux.HandleFunc("GET /api/jobs/{id}", srv.handleJob)
	mux.HandleFunc("GET /api/jobs/{id}/result", srv.handleResult)
	mux.HandleFunc("GET /api/jobs/{id}/download", srv.handleDownload)
	mux.HandleFunc("GET /api/history", srv.handleHistory)
	mux.HandleFunc("GET /api/health", srv.handleHealth)

	srv.mux = requestIDMiddleware(authMiddleware(srv.token, mux))
	return srv
}

func (s *apiServer) handler() http.Handler {
	return s.mux
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		s.logger.Info("api server disabled; paths.api_bind is empty")
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

func (s *apiServer) addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.daemon.cfg.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

	reader, err := r.MultipartReader()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, api.CodeBadRequest, msgInvalidFile)
		return
	}
	for {
		part, err := reader.NextPart()
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				s.writeError(w, http.StatusRequestEntityTooLarge, api.CodeFileTooLarge, msgTooLarge)
				return
			}
			s.writeError(w, http.StatusBadRequest, api.CodeBadRequest, msgInvalidFile)
			return
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}
		if strings.TrimSpace(part.FileName()) == "" {
			s.writeError(w, http.StatusBadRequest, api.CodeBadRequest, msgInvalidFile)
			return
		}

		job, err := s.daemon.ingest(r.Context(), part.FileName(), part)
		_ = part.Close()
		if err != nil {
			s.writeFailure(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.JobResponse{OK: true, Job: api.FromJob(job)})
		return
	}
}

func (s *apiServer) handleJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobResponse{OK: true, Job: api.FromJob(job)})
}

func (s *apiServer) handleResult(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupDone(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, api.ResultResponse{OK: true, Result: api.TranscriptOf(job)})
}

func (s *apiServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupDone(w, r)
	if !ok {
		return
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{
		"filename": contentDispositionName(job.OriginalFilename),
	})
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", disposition)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(job.CleanedText))
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := api.DefaultHistoryLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, api.CodeBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	list, err := s.daemon.jobsSvc.ListRecent(r.Context(), limit)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.HistoryResponse{OK: true, Jobs: list})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, api.HealthResponse{
		OK: true,
		Pool: api.PoolStatus{
			Running:  status.Pool.Running,
			Workers:  status.Pool.Workers,
			Capacity: status.Pool.Capacity,
			Queued:   status.Pool.Queued,
			InFlight: status.Pool.InFlight,
		},
		JobCounts:    status.JobCounts,
		Dependencies: api.FromDependencies(status.Dependencies),
	})
}

func (s *apiServer) lookup(w http.ResponseWriter, r *http.Request) (*jobs.Job, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	job, err := s.daemon.store.Get(r.Context(), id)
	if err != nil {
		s.writeFailure(w, r, err)
		return nil, false
	}
	if job == nil {
		s.writeError(w, http.StatusNotFound, api.CodeNotFound, msgNotFound)
		return nil, false
	}
	return job, true
}

func (s *apiServer) lookupDone(w http.ResponseWriter, r *http.Request) (*jobs.Job, bool) {
	job, ok := s.lookup(w, r)
	if !ok {
		return nil, false
	}
	if job.Status != jobs.StatusDone {
		s.writeError(w, http.StatusConflict, api.CodeNotReady, msgNotReady)
		return nil, false
	}
	return job, true
}

func (s *apiServer) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var rej *rejection
	if errors.As(err, &rej) {
		s.writeError(w, rej.status, rej.code, rej.message)
		return
	}
	logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "api request failed", "api_request_failed",
		logging.String("path", r.URL.Path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check storage directory and job database"),
	)
	s.writeError(w, http.StatusInternalServerError, api.CodeInternal, msgInternal)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	writeJSON(w, s.logger, status, payload)
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, api.NewError(code, message))
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Error("failed to encode response", logging.Error(err))
	}
}
