package synth

import "fmt"

// SpeakerVoice assigns a prebuilt voice to a speaker label used inside
// the prompt text.
type SpeakerVoice struct {
	Speaker string
	Voice   string
}

// VoiceConfig is a tagged variant: either a single prebuilt voice or an
// ordered list of 1-2 speaker/voice assignments. Construct it through
// NewSingleVoice or NewMultiVoice so invalid combinations cannot occur.
type VoiceConfig struct {
	multi    bool
	voice    string
	speakers []SpeakerVoice
}

const maxSpeakers = 2

// NewSingleVoice builds a single-speaker voice configuration.
func NewSingleVoice(voiceName string) (VoiceConfig, error) {
	if voiceName == "" {
		return VoiceConfig{}, newValidationError("voice name must not be empty")
	}
	return VoiceConfig{voice: voiceName}, nil
}

// NewMultiVoice builds a multi-speaker voice configuration. The remote
// service supports at most two speakers per request, and speaker labels
// must be distinct so the prompt text maps unambiguously to voices.
func NewMultiVoice(speakers []SpeakerVoice) (VoiceConfig, error) {
	if len(speakers) == 0 {
		return VoiceConfig{}, newValidationError("multi-speaker config requires at least one speaker")
	}
	if len(speakers) > maxSpeakers {
		return VoiceConfig{}, newValidationError(fmt.Sprintf("multi-speaker config supports at most %d speakers, got %d", maxSpeakers, len(speakers)))
	}
	seen := make(map[string]struct{}, len(speakers))
	for _, s := range speakers {
		if s.Speaker == "" {
			return VoiceConfig{}, newValidationError("speaker name must not be empty")
		}
		if s.Voice == "" {
			return VoiceConfig{}, newValidationError(fmt.Sprintf("speaker %q has no voice assigned", s.Speaker))
		}
		if _, dup := seen[s.Speaker]; dup {
			return VoiceConfig{}, newValidationError(fmt.Sprintf("duplicate speaker name %q", s.Speaker))
		}
		seen[s.Speaker] = struct{}{}
	}
	cfg := VoiceConfig{multi: true, speakers: make([]SpeakerVoice, len(speakers))}
	copy(cfg.speakers, speakers)
	return cfg, nil
}

// Multi reports whether the configuration addresses multiple speakers.
func (v VoiceConfig) Multi() bool { return v.multi }

// VoiceName returns the single-speaker voice, empty for multi-speaker.
func (v VoiceConfig) VoiceName() string { return v.voice }

// Speakers returns a copy of the speaker assignments.
func (v VoiceConfig) Speakers() []SpeakerVoice {
	out := make([]SpeakerVoice, len(v.speakers))
	copy(out, v.speakers)
	return out
}
