package synth

import (
	"fmt"
	"strings"
)

// DefaultModel is the model contracted with the remote service. It is
// part of the service contract, not a caller-configurable knob.
const DefaultModel = "gemini-2.5-flash-preview-tts"

// responseModality is equally fixed: these models only produce audio.
const responseModality = "AUDIO"

// Request is a validated, immutable synthesis request. It is consumed
// once per call and shares no state with other requests.
type Request struct {
	Text   string
	Voice  VoiceConfig
	APIKey string
}

// NewRequest validates caller input and produces a Request. The text is
// treated as opaque: any style guidance has already been applied by the
// caller (see StylePrompt).
func NewRequest(text string, voice VoiceConfig, apiKey string) (Request, error) {
	if apiKey == "" {
		return Request{}, newValidationError("API key is required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Request{}, newValidationError("text must not be empty")
	}
	if !voice.Multi() && voice.VoiceName() == "" {
		return Request{}, newValidationError("voice configuration is required")
	}
	return Request{Text: text, Voice: voice, APIKey: apiKey}, nil
}

// StylePrompt prefixes text with natural-language style guidance. The
// remote service reads delivery hints directly from the prompt.
func StylePrompt(style, text string) string {
	style = strings.TrimSpace(style)
	if style == "" {
		return text
	}
	return fmt.Sprintf("Say in a %s way: %s", style, text)
}
