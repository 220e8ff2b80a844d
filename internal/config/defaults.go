package config

const (
	defaultStorageDir           = "./storage"
	defaultLogDir               = "~/.local/share/voxpipe/logs"
	defaultAPIBind              = "127.0.0.1:8000"
	defaultMaxMB                = 20
	defaultMaxSeconds           = 300
	defaultWorkerThreads        = 2
	defaultMaxQueueSize         = 100
	defaultDequeueTimeoutMS     = 1000
	defaultRetentionHours       = 24
	defaultSweepIntervalMinutes = 60
	defaultModelSize            = "small"
	defaultModelDevice          = "cpu"
	defaultComputeType          = "int8"
	defaultLanguage             = "fa"
	defaultWhisperCPPBinary     = "whisper-cli"
	defaultPromptBalanced       = "محاوره فارسی. لحن روزمره را بنویس."
	defaultPromptNoisy          = "صدا پرنویز است. فقط گفتار فارسی را با لحن محاوره‌ای بنویس."
	defaultPromptMusicMixed     = "موسیقی یا ترانه را نادیده بگیر، فقط گفتار فارسی را بنویس."
	defaultLLMBaseURL           = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel             = "google/gemini-3-flash-preview"
	defaultLLMTitle             = "voxpipe transcript corrector"
	defaultLLMTimeoutSeconds    = 60
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StorageDir: defaultStorageDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Limits: Limits{
			MaxMB:      defaultMaxMB,
			MaxSeconds: defaultMaxSeconds,
		},
		Workflow: Workflow{
			WorkerThreads:    defaultWorkerThreads,
			MaxQueueSize:     defaultMaxQueueSize,
			DequeueTimeoutMS: defaultDequeueTimeoutMS,
		},
		Retention: Retention{
			Hours:                defaultRetentionHours,
			SweepIntervalMinutes: defaultSweepIntervalMinutes,
		},
		ASR: ASR{
			ModelSize:        defaultModelSize,
			ModelDevice:      defaultModelDevice,
			ComputeType:      defaultComputeType,
			Language:         defaultLanguage,
			WhisperCPPBinary: defaultWhisperCPPBinary,
			Prompts: Prompts{
				Balanced:   defaultPromptBalanced,
				Noisy:      defaultPromptNoisy,
				MusicMixed: defaultPromptMusicMixed,
			},
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			JobDone:        true,
			JobError:       true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
