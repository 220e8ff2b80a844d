package transcribe

import (
	"voxpipe/internal/config"
	"voxpipe/internal/jobs"
)

// Profile is a named set of decoding parameters.
type Profile struct {
	Name                string
	BeamSize            int
	VADFilter           bool
	Temperature         float64
	NoSpeechThreshold   float64
	ConditionOnPrevious bool
	Prompt              string
}

// ProfileFor resolves a profile name to its parameters. Unknown names resolve
// to the balanced preset. Prompts come from cfg when it is non-nil.
func ProfileFor(cfg *config.Config, name string) Profile {
	var p Profile
	switch name {
	case jobs.ProfileNoisy:
		p = Profile{Name: jobs.ProfileNoisy, BeamSize: 8, VADFilter: true, NoSpeechThreshold: 0.45}
	case jobs.ProfileMusicMixed:
		p = Profile{Name: jobs.ProfileMusicMixed, BeamSize: 8, VADFilter: true, NoSpeechThreshold: 0.5}
	default:
		p = Profile{Name: jobs.ProfileBalanced, BeamSize: 5, VADFilter: true, NoSpeechThreshold: 0.6, ConditionOnPrevious: true}
	}
	if cfg != nil {
		p.Prompt = cfg.PromptFor(p.Name)
	}
	return p
}
