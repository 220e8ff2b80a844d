package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"voxpipe/internal/api"
)

// apiClient talks to a running daemon over its HTTP API.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Minute},
	}
}

// apiError is a decoded {"ok":false} response.
type apiError struct {
	Status int
	Code   string
	Msg    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("daemon returned %d %s: %s", e.Status, e.Code, e.Msg)
}

// Upload streams a local file to POST /api/upload.
func (c *apiClient) Upload(ctx context.Context, path string) (api.Job, error) {
	file, err := os.Open(path)
	if err != nil {
		return api.Job{}, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		part, err := writer.CreateFormFile("file", filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, file)
		}
		if err == nil {
			err = writer.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", pr)
	if err != nil {
		return api.Job{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp api.JobResponse
	if err := c.do(req, &resp); err != nil {
		return api.Job{}, err
	}
	return resp.Job, nil
}

// Job fetches GET /api/jobs/{id}.
func (c *apiClient) Job(ctx context.Context, id string) (api.Job, error) {
	var resp api.JobResponse
	if err := c.get(ctx, "/api/jobs/"+id, &resp); err != nil {
		return api.Job{}, err
	}
	return resp.Job, nil
}

// Result fetches GET /api/jobs/{id}/result.
func (c *apiClient) Result(ctx context.Context, id string) (api.Transcript, error) {
	var resp api.ResultResponse
	if err := c.get(ctx, "/api/jobs/"+id+"/result", &resp); err != nil {
		return api.Transcript{}, err
	}
	return resp.Result, nil
}

// Health fetches GET /api/health.
func (c *apiClient) Health(ctx context.Context) (api.HealthResponse, error) {
	var resp api.HealthResponse
	err := c.get(ctx, "/api/health", &resp)
	return resp, err
}

// WaitTerminal polls a job until it is done or failed.
func (c *apiClient) WaitTerminal(ctx context.Context, id string, interval time.Duration, onProgress func(api.Job)) (api.Job, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		job, err := c.Job(ctx, id)
		if err != nil {
			return api.Job{}, err
		}
		if onProgress != nil {
			onProgress(job)
		}
		if job.Status == "done" || job.Status == "error" {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *apiClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *apiClient) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("connect to daemon at %s: %w (is `voxpipe serve` running?)", c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read daemon response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var failure api.ErrorResponse
		if json.Unmarshal(body, &failure) == nil && failure.Error.Code != "" {
			return &apiError{Status: resp.StatusCode, Code: failure.Error.Code, Msg: failure.Error.Message}
		}
		return &apiError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode), Msg: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode daemon response: %w", err)
	}
	return nil
}

func isAPIError(err error, code string) bool {
	var apiErr *apiError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
