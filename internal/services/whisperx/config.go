package whisperx

// Config captures runtime settings for WhisperX operations.
type Config struct {
	// Model is the WhisperX model to use (e.g., "small", "large-v3").
	Model string
	// CUDAEnabled enables GPU acceleration.
	CUDAEnabled bool
	// ComputeType is passed through on CPU ("int8", "float32").
	ComputeType string
	// Language is the ISO 639-1 transcription language.
	Language string
}

// Options are the per-call decoding parameters.
type Options struct {
	BeamSize            int
	VADFilter           bool
	Temperature         float64
	NoSpeechThreshold   float64
	ConditionOnPrevious bool
	InitialPrompt       string
}

// WhisperX configuration constants.
const (
	DefaultModel       = "small"
	DefaultLanguage    = "fa"
	CUDAIndexURL       = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL       = "https://pypi.org/simple"
	BatchSize          = "4"
	ChunkSize          = "15"
	VADOnset           = "0.08"
	VADOffset          = "0.07"
	OutputFormat       = "json"
	CPUDevice          = "cpu"
	CUDADevice         = "cuda"
	CPUComputeType     = "int8"
	VADMethodSilero    = "silero"
	DefaultBeamSize    = 5
	DefaultNoSpeechThr = 0.6
)

// UVXCommand launches whisperx without a managed virtualenv.
const UVXCommand = "uvx"
