package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"voxpipe/internal/language"
)

func (c *Config) normalize() error {
	if err := c.applyEnvOverrides(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeASR()
	c.normalizeLLM()
	c.normalizeLogging()
	return nil
}

// applyEnvOverrides lets the flat environment names used by container deployments
// take precedence over the TOML file.
func (c *Config) applyEnvOverrides() error {
	strs := map[string]*string{
		"STORAGE_DIR":        &c.Paths.StorageDir,
		"MODEL_SIZE":         &c.ASR.ModelSize,
		"MODEL_DEVICE":       &c.ASR.ModelDevice,
		"COMPUTE_TYPE":       &c.ASR.ComputeType,
		"PROMPT_BALANCED":    &c.ASR.Prompts.Balanced,
		"PROMPT_NOISY":       &c.ASR.Prompts.Noisy,
		"PROMPT_MUSIC_MIXED": &c.ASR.Prompts.MusicMixed,
		"NTFY_TOPIC":         &c.Notifications.NtfyTopic,
		"API_TOKEN":          &c.Paths.APIToken,
	}
	for name, target := range strs {
		if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
			*target = strings.TrimSpace(value)
		}
	}

	ints := map[string]*int{
		"RETENTION_HOURS": &c.Retention.Hours,
		"MAX_MB":          &c.Limits.MaxMB,
		"MAX_SECONDS":     &c.Limits.MaxSeconds,
		"WORKER_THREADS":  &c.Workflow.WorkerThreads,
		"MAX_QUEUE_SIZE":  &c.Workflow.MaxQueueSize,
	}
	for name, target := range ints {
		value, ok := os.LookupEnv(name)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", name, value)
		}
		*target = parsed
	}

	bools := map[string]*bool{
		"USE_MLM_CORRECTION": &c.Text.UseCorrection,
		"DEMUCS_ENABLED":     &c.Enhance.DemucsEnabled,
	}
	for name, target := range bools {
		value, ok := os.LookupEnv(name)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: invalid boolean %q", name, value)
		}
		*target = parsed
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StorageDir) == "" {
		c.Paths.StorageDir = defaultStorageDir
	}
	if c.Paths.StorageDir, err = expandPath(c.Paths.StorageDir); err != nil {
		return fmt.Errorf("paths.storage_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeASR() {
	c.ASR.ModelSize = strings.TrimSpace(c.ASR.ModelSize)
	if c.ASR.ModelSize == "" {
		c.ASR.ModelSize = defaultModelSize
	}
	switch raw := strings.TrimSpace(c.ASR.Language); {
	case raw == "":
		c.ASR.Language = defaultLanguage
	case language.ToISO2(raw) != "":
		c.ASR.Language = language.ToISO2(raw)
	default:
		c.ASR.Language = strings.ToLower(raw)
	}
	c.ASR.ModelDevice = strings.ToLower(strings.TrimSpace(c.ASR.ModelDevice))
	if c.ASR.ModelDevice == "" {
		c.ASR.ModelDevice = defaultModelDevice
	}
	if c.ASR.ModelDevice == "cuda" {
		c.ASR.CUDAEnabled = true
	}
	if strings.TrimSpace(c.ASR.WhisperCPPBinary) == "" {
		c.ASR.WhisperCPPBinary = defaultWhisperCPPBinary
	}
	if c.ASR.WhisperCPPModel != "" {
		if expanded, err := expandPath(c.ASR.WhisperCPPModel); err == nil {
			c.ASR.WhisperCPPModel = expanded
		}
	}
	if c.ASR.TimeoutSeconds < 0 {
		c.ASR.TimeoutSeconds = 0
	}
}

func (c *Config) normalizeLLM() {
	if strings.TrimSpace(c.LLM.BaseURL) == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		c.LLM.Model = defaultLLMModel
	}
	if strings.TrimSpace(c.LLM.Title) == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
