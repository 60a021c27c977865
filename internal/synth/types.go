package synth

import (
	"context"
	"encoding/base64"
	"time"
)

// Synthesizer is the contract for producing raw PCM from a request.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}

// Result is a finished synthesis: the container bytes and the format
// they declare. It is produced once and never mutated.
type Result struct {
	Container []byte
	Format    Format
	Duration  time.Duration
}

// DataURI renders the container as a self-describing audio/wav data
// URI suitable for direct playback by a media element.
func (r Result) DataURI() string {
	return "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(r.Container)
}

// Generator runs the synthesis pipeline: invoke the backend, then wrap
// the PCM in a playable container. It holds no per-call state, so
// concurrent Generate calls are fully independent. Every failure exits
// through Classify, so callers never see a raw transport error.
type Generator struct {
	synth  Synthesizer
	format Format
}

func NewGenerator(s Synthesizer, f Format) *Generator {
	if f == (Format{}) {
		f = DefaultFormat()
	}
	return &Generator{synth: s, format: f}
}

// Generate performs one synthesis call. The only blocking stage is the
// backend invocation; everything after it is pure and in-memory, so
// cancellation leaves no partial artifacts behind.
func (g *Generator) Generate(ctx context.Context, req Request) (Result, error) {
	pcm, err := g.synth.Synthesize(ctx, req)
	if err != nil {
		return Result{}, Classify(err)
	}
	if len(pcm) == 0 {
		return Result{}, newValidationError("empty_payload")
	}

	container := EncodeWAV(pcm, g.format)
	duration := time.Duration(len(pcm)) * time.Second / time.Duration(g.format.ByteRate())
	return Result{Container: container, Format: g.format, Duration: duration}, nil
}
