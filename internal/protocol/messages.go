package protocol

// SpeakerVoice assigns a prebuilt voice to a speaker label referenced
// in the prompt text.
type SpeakerVoice struct {
	Speaker string `json:"speaker"`
	Voice   string `json:"voice"`
}

// SynthesizeRequest is the inbound request from a UI or IPC
// collaborator. The API key rides on the message; a service-level
// default applies when it is absent.
type SynthesizeRequest struct {
	RequestID    string         `json:"request_id,omitempty"`
	Text         string         `json:"text"`
	Style        string         `json:"style,omitempty"`
	Voice        string         `json:"voice,omitempty"`
	MultiSpeaker bool           `json:"multi_speaker,omitempty"`
	Speakers     []SpeakerVoice `json:"speakers,omitempty"`
	APIKey       string         `json:"api_key,omitempty"`
}

// ErrorInfo carries a classified failure: a stable kind plus free-form
// detail. The kind never depends on display language.
type ErrorInfo struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// SynthesizeReply answers a SynthesizeRequest. Exactly one of DataURI
// or Error is set.
type SynthesizeReply struct {
	RequestID  string     `json:"request_id"`
	DataURI    string     `json:"data_uri,omitempty"`
	SampleRate int        `json:"sample_rate,omitempty"`
	Channels   int        `json:"channels,omitempty"`
	BitDepth   int        `json:"bit_depth,omitempty"`
	DurationMS int64      `json:"duration_ms,omitempty"`
	Error      *ErrorInfo `json:"error,omitempty"`
}

// VoiceInfo describes one prebuilt voice in the catalog.
type VoiceInfo struct {
	Name      string `json:"name"`
	Character string `json:"character,omitempty"`
}

// VoicesReply answers a voice catalog request.
type VoicesReply struct {
	Voices []VoiceInfo `json:"voices"`
}

const (
	SubjectSynthRequest = "vox.synth.request"
	SubjectSynthVoices  = "vox.synth.voices"
)
