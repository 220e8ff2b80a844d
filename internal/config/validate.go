package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLimits(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateASR(); err != nil {
		return err
	}
	if err := c.validateText(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StorageDir) == "" {
		return errors.New("paths.storage_dir must be set")
	}
	return nil
}

func (c *Config) validateLimits() error {
	return ensurePositiveMap(map[string]int{
		"limits.max_mb":      c.Limits.MaxMB,
		"limits.max_seconds": c.Limits.MaxSeconds,
	})
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.worker_threads":          c.Workflow.WorkerThreads,
		"workflow.max_queue_size":          c.Workflow.MaxQueueSize,
		"workflow.dequeue_timeout_ms":      c.Workflow.DequeueTimeoutMS,
		"retention.hours":                  c.Retention.Hours,
		"retention.sweep_interval_minutes": c.Retention.SweepIntervalMinutes,
		"notifications.request_timeout":    c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateASR() error {
	switch c.ASR.ModelDevice {
	case "cpu", "cuda", "auto":
	default:
		return fmt.Errorf("asr.model_device must be cpu, cuda, or auto (got %q)", c.ASR.ModelDevice)
	}
	if len(c.ASR.Language) != 2 {
		return fmt.Errorf("asr.language must be an ISO 639-1 code or known language name (got %q)", c.ASR.Language)
	}
	if strings.TrimSpace(c.ASR.Prompts.Balanced) == "" {
		return errors.New("asr.prompts.balanced must be set")
	}
	return nil
}

func (c *Config) validateText() error {
	if !c.Text.UseCorrection {
		return nil
	}
	if c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/voxpipe/config.toml"
		}
		return fmt.Errorf("llm.api_key is required when text.use_correction is true. Set OPENROUTER_API_KEY or edit %s (create with 'voxpipe config init')", defaultPath)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
