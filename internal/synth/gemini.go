package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultEndpoint is the public Generative Language API endpoint.
const DefaultEndpoint = "https://generativelanguage.googleapis.com"

// GeminiSynth synthesizes speech through the Gemini generateContent
// API. The credential travels on each request, never through process
// environment, so concurrent calls with different keys do not interact.
type GeminiSynth struct {
	endpoint string
	client   *http.Client
}

func NewGeminiSynth(endpoint string, timeout time.Duration) *GeminiSynth {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GeminiSynth{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiVoiceConfig struct {
	PrebuiltVoiceConfig geminiPrebuiltVoice `json:"prebuiltVoiceConfig"`
}

type geminiPrebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type geminiSpeakerVoiceConfig struct {
	Speaker     string            `json:"speaker"`
	VoiceConfig geminiVoiceConfig `json:"voiceConfig"`
}

type geminiSpeechConfig struct {
	VoiceConfig        *geminiVoiceConfig  `json:"voiceConfig,omitempty"`
	MultiSpeakerConfig *geminiMultiSpeaker `json:"multiSpeakerVoiceConfig,omitempty"`
}

type geminiMultiSpeaker struct {
	SpeakerVoiceConfigs []geminiSpeakerVoiceConfig `json:"speakerVoiceConfigs"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string           `json:"responseModalities"`
	SpeechConfig       geminiSpeechConfig `json:"speechConfig"`
}

type geminiGenerateRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiCandidate struct {
	Content *geminiContent `json:"content"`
}

type geminiGenerateResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

// Synthesize issues one remote call and returns the decoded PCM.
func (g *GeminiSynth) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	data, err := g.fetchInlineAudio(ctx, req)
	if err != nil {
		return nil, err
	}
	return DecodePCM(data)
}

// fetchInlineAudio performs the generateContent call and extracts the
// base64 audio payload from the response envelope. Transport failures
// are returned raw; the caller classifies them.
func (g *GeminiSynth) fetchInlineAudio(ctx context.Context, req Request) (string, error) {
	payload := geminiGenerateRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: req.Text}}}},
		GenerationConfig: geminiGenerationConfig{
			ResponseModalities: []string{responseModality},
			SpeechConfig:       speechConfigFor(req.Voice),
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.endpoint, DefaultModel)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", req.APIKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}

	var envelope geminiGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	// Checks run in order; the first violation wins. Only the first
	// candidate is ever inspected.
	if len(envelope.Candidates) == 0 {
		return "", newServiceError("no_candidates")
	}
	candidate := envelope.Candidates[0]
	if candidate.Content == nil {
		return "", newServiceError("blocked_or_filtered")
	}
	if len(candidate.Content.Parts) == 0 || candidate.Content.Parts[0].InlineData == nil || candidate.Content.Parts[0].InlineData.Data == "" {
		return "", newServiceError("no_audio_payload")
	}
	return candidate.Content.Parts[0].InlineData.Data, nil
}

func speechConfigFor(voice VoiceConfig) geminiSpeechConfig {
	if !voice.Multi() {
		return geminiSpeechConfig{
			VoiceConfig: &geminiVoiceConfig{
				PrebuiltVoiceConfig: geminiPrebuiltVoice{VoiceName: voice.VoiceName()},
			},
		}
	}
	speakers := voice.Speakers()
	configs := make([]geminiSpeakerVoiceConfig, 0, len(speakers))
	for _, s := range speakers {
		configs = append(configs, geminiSpeakerVoiceConfig{
			Speaker: s.Speaker,
			VoiceConfig: geminiVoiceConfig{
				PrebuiltVoiceConfig: geminiPrebuiltVoice{VoiceName: s.Voice},
			},
		})
	}
	return geminiSpeechConfig{
		MultiSpeakerConfig: &geminiMultiSpeaker{SpeakerVoiceConfigs: configs},
	}
}
