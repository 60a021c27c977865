package synth

import (
	"context"
	"time"
)

type mockSynth struct {
	pcm   []byte
	delay time.Duration
}

// NewMockSynth returns a synthesizer that replays a fixed PCM buffer
// after an optional delay. Used for local development and tests.
func NewMockSynth(pcm []byte, delay time.Duration) Synthesizer {
	return &mockSynth{pcm: pcm, delay: delay}
}

func (m *mockSynth) Synthesize(ctx context.Context, _ Request) ([]byte, error) {
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}
	out := make([]byte, len(m.pcm))
	copy(out, m.pcm)
	return out, nil
}
