package deps

import (
	"voxpipe/internal/config"
	"voxpipe/internal/services/whisperx"
)

// Requirements lists the external tools the pipeline invokes. Only the
// transcoder and the duration probe are mandatory; every other tool has an
// in-process or secondary fallback.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Transcodes uploads to 16 kHz mono WAV",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Probes upload duration",
		},
		{
			Name:         "RNNoise",
			Alternatives: []string{"rnnoise", "rnnoise-demo", "rnnoise-nu"},
			Description:  "Preferred denoiser (falls back to spectral gating)",
			Optional:     true,
		},
		{
			Name:        "Demucs",
			Command:     cfg.DemucsBinary(),
			Description: "Vocal separation when enhance.demucs_enabled is set (falls back to band-pass)",
			Optional:    true,
		},
		{
			Name:        "uvx",
			Command:     whisperx.UVXCommand,
			Description: "Runs WhisperX, the primary ASR backend",
			Optional:    true,
		},
		{
			Name:        "whisper.cpp",
			Command:     cfg.ASR.WhisperCPPBinary,
			Description: "Secondary ASR backend",
			Optional:    true,
		},
	}
}
