package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains storage locations and the API bind address.
type Paths struct {
	StorageDir string `toml:"storage_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
	APIToken   string `toml:"api_token"`
}

// Limits bounds what an upload may contain.
type Limits struct {
	MaxMB      int `toml:"max_mb"`
	MaxSeconds int `toml:"max_seconds"`
}

// Workflow sizes the worker pool and its admission queue.
type Workflow struct {
	WorkerThreads    int `toml:"worker_threads"`
	MaxQueueSize     int `toml:"max_queue_size"`
	DequeueTimeoutMS int `toml:"dequeue_timeout_ms"`
}

// Retention controls how long finished and failed jobs are kept.
type Retention struct {
	Hours                int `toml:"hours"`
	SweepIntervalMinutes int `toml:"sweep_interval_minutes"`
}

// Prompts holds the initial guidance prompt per transcription profile.
type Prompts struct {
	Balanced   string `toml:"balanced"`
	Noisy      string `toml:"noisy"`
	MusicMixed string `toml:"music_mixed"`
}

// ASR configures both transcription backends.
type ASR struct {
	ModelSize        string  `toml:"model_size"`
	ModelDevice      string  `toml:"model_device"`
	ComputeType      string  `toml:"compute_type"`
	Language         string  `toml:"language"`
	CUDAEnabled      bool    `toml:"cuda_enabled"`
	WhisperCPPBinary string  `toml:"whispercpp_binary"`
	WhisperCPPModel  string  `toml:"whispercpp_model"`
	TimeoutSeconds   int     `toml:"timeout_seconds"`
	Prompts          Prompts `toml:"prompts"`
}

// Enhance configures the external audio tools.
type Enhance struct {
	DemucsEnabled bool   `toml:"demucs_enabled"`
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	DemucsBinary  string `toml:"demucs_binary"`
}

// Text configures transcript cleaning.
type Text struct {
	UseCorrection bool `toml:"use_correction"`
}

// LLM contains connection settings for the optional transcript corrector.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	JobDone        bool   `toml:"job_done"`
	JobError       bool   `toml:"job_error"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for voxpipe.
//
// Configuration sections by subsystem:
//   - Paths: storage root, logs and API bind address
//   - Limits: upload size and duration caps
//   - Workflow: worker pool size and queue capacity
//   - Retention: job expiry and sweep cadence
//   - ASR: whisperx / whisper.cpp settings and per-profile prompts
//   - Enhance: ffmpeg, ffprobe and demucs
//   - Text: transcript correction toggle
//   - LLM: correction backend connection
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Limits        Limits        `toml:"limits"`
	Workflow      Workflow      `toml:"workflow"`
	Retention     Retention     `toml:"retention"`
	ASR           ASR           `toml:"asr"`
	Enhance       Enhance       `toml:"enhance"`
	Text          Text          `toml:"text"`
	LLM           LLM           `toml:"llm"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/voxpipe/config.toml")
}

// Load locates, parses, and validates a configuration file. A .env file in the
// working directory is loaded first so its values act as environment overrides.
// The returned config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, "", false, err
	}

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv never overrides variables that are already set in the process.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("voxpipe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// Storage subdirectories created under Paths.StorageDir.
const (
	UploadsDir   = "uploads"
	WavDir       = "wav"
	ProcessedDir = "processed"
	DenoisedDir  = "denoised"
	ResultsDir   = "results"
)

// EnsureDirectories creates the storage layout and the log directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir}
	for _, sub := range []string{UploadsDir, WavDir, ProcessedDir, DenoisedDir, ResultsDir} {
		dirs = append(dirs, filepath.Join(c.Paths.StorageDir, sub))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StoragePath joins a storage subdirectory and file name under the storage root.
func (c *Config) StoragePath(sub, name string) string {
	return filepath.Join(c.Paths.StorageDir, sub, name)
}

// DatabasePath returns the location of the job database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StorageDir, "jobs.db")
}

// FFmpegBinary returns the ffmpeg executable used for transcoding.
func (c *Config) FFmpegBinary() string {
	if v := strings.TrimSpace(c.Enhance.FFmpegBinary); v != "" {
		return v
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable used for duration probes.
func (c *Config) FFprobeBinary() string {
	if v := strings.TrimSpace(c.Enhance.FFprobeBinary); v != "" {
		return v
	}
	return "ffprobe"
}

// DemucsBinary returns the demucs executable used for vocal isolation.
func (c *Config) DemucsBinary() string {
	if v := strings.TrimSpace(c.Enhance.DemucsBinary); v != "" {
		return v
	}
	return "demucs"
}

// MaxUploadBytes converts the upload cap to bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Limits.MaxMB) * 1024 * 1024
}

// PromptFor returns the initial prompt configured for a transcription profile.
func (c *Config) PromptFor(profile string) string {
	switch profile {
	case "noisy":
		return c.ASR.Prompts.Noisy
	case "music_mixed":
		return c.ASR.Prompts.MusicMixed
	default:
		return c.ASR.Prompts.Balanced
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the LLM connection settings with whitespace trimmed.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the LLM connection settings used by the transcript corrector.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}
