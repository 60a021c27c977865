package synth

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/voxlabs/vox-core/internal/bus"
	"github.com/voxlabs/vox-core/internal/config"
	"github.com/voxlabs/vox-core/internal/history"
	"github.com/voxlabs/vox-core/internal/protocol"
)

// Service answers synthesis requests over the bus. Each request runs
// its own Generator call: no state is shared between in-flight jobs.
type Service struct {
	cfg       config.SynthConfig
	bus       *bus.Client
	gen       *Generator
	store     *history.Store
	sub       *nats.Subscription
	voicesSub *nats.Subscription
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	logger    *slog.Logger

	requests metric.Int64Counter
	failures metric.Int64Counter
	bytesOut metric.Int64Counter
}

func NewService(parent context.Context, cfg config.SynthConfig, busClient *bus.Client, gen *Generator, store *history.Store, log *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	s := &Service{
		cfg:    cfg,
		bus:    busClient,
		gen:    gen,
		store:  store,
		ctx:    ctx,
		cancel: cancel,
		logger: log.With(slog.String("component", "synth-service")),
	}
	s.initMetrics()
	return s
}

func (s *Service) initMetrics() {
	meter := otel.Meter("github.com/voxlabs/vox-core/synth")
	var err error
	if s.requests, err = meter.Int64Counter("vox.synth.requests"); err != nil {
		s.logger.Warn("failed to create requests counter", slogError(err))
	}
	if s.failures, err = meter.Int64Counter("vox.synth.failures"); err != nil {
		s.logger.Warn("failed to create failures counter", slogError(err))
	}
	if s.bytesOut, err = meter.Int64Counter("vox.synth.audio_bytes"); err != nil {
		s.logger.Warn("failed to create audio bytes counter", slogError(err))
	}
}

func (s *Service) Start() error {
	if !s.cfg.Enabled {
		return nil
	}
	sub, err := s.bus.Conn().Subscribe(protocol.SubjectSynthRequest, s.handleRequest)
	if err != nil {
		return err
	}
	s.sub = sub

	voicesSub, err := s.bus.Conn().Subscribe(protocol.SubjectSynthVoices, s.handleVoices)
	if err != nil {
		_ = sub.Drain()
		return err
	}
	s.voicesSub = voicesSub
	return nil
}

func (s *Service) Close() {
	s.cancel()
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	if s.voicesSub != nil {
		_ = s.voicesSub.Drain()
	}
	s.wg.Wait()
}

func (s *Service) Healthy() bool { return !s.cfg.Enabled || s.sub != nil }

func (s *Service) handleRequest(msg *nats.Msg) {
	var req protocol.SynthesizeRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("failed to decode synth request", slogError(err))
		s.respondError(msg, "", newValidationError("malformed request message"))
		return
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(s.ctx, time.Duration(s.cfg.RequestTimeout)*time.Millisecond)
		defer cancel()

		started := time.Now()
		result, err := s.synthesize(ctx, req)
		elapsed := time.Since(started)

		if s.requests != nil {
			s.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", s.cfg.Mode)))
		}

		if err != nil {
			classified := Classify(err)
			s.logger.Warn("synthesis failed",
				slog.String("request_id", req.RequestID),
				slog.String("kind", string(classified.Kind)),
				slog.String("detail", classified.Detail))
			if s.failures != nil {
				s.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(classified.Kind))))
			}
			s.record(req, history.Job{RequestID: req.RequestID, ErrorKind: string(classified.Kind)})
			s.respondError(msg, req.RequestID, classified)
			return
		}

		if s.bytesOut != nil {
			s.bytesOut.Add(ctx, int64(len(result.Container)))
		}
		s.record(req, history.Job{
			RequestID:  req.RequestID,
			AudioBytes: len(result.Container),
			DurationMS: result.Duration.Milliseconds(),
		})
		s.logger.Info("synthesis complete",
			slog.String("request_id", req.RequestID),
			slog.Int("audio_bytes", len(result.Container)),
			slog.Duration("took", elapsed))

		s.respond(msg, protocol.SynthesizeReply{
			RequestID:  req.RequestID,
			DataURI:    result.DataURI(),
			SampleRate: result.Format.SampleRate,
			Channels:   result.Format.Channels,
			BitDepth:   result.Format.BitDepth,
			DurationMS: result.Duration.Milliseconds(),
		})
	}()
}

// synthesize turns the wire request into a validated pipeline call.
func (s *Service) synthesize(ctx context.Context, req protocol.SynthesizeRequest) (Result, error) {
	voice, err := s.buildVoice(req)
	if err != nil {
		return Result{}, err
	}

	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = s.cfg.APIKey
	}

	text := StylePrompt(req.Style, req.Text)
	request, err := NewRequest(text, voice, apiKey)
	if err != nil {
		return Result{}, err
	}
	return s.gen.Generate(ctx, request)
}

func (s *Service) buildVoice(req protocol.SynthesizeRequest) (VoiceConfig, error) {
	if req.MultiSpeaker {
		speakers := make([]SpeakerVoice, 0, len(req.Speakers))
		for _, sp := range req.Speakers {
			speakers = append(speakers, SpeakerVoice{Speaker: sp.Speaker, Voice: sp.Voice})
		}
		return NewMultiVoice(speakers)
	}

	name := req.Voice
	if name == "" {
		name = s.cfg.Voice
	}
	if !KnownVoice(name) {
		s.logger.Debug("voice not in prebuilt catalog", slog.String("voice", name))
	}
	return NewSingleVoice(name)
}

func (s *Service) handleVoices(msg *nats.Msg) {
	voices := Voices()
	reply := protocol.VoicesReply{Voices: make([]protocol.VoiceInfo, 0, len(voices))}
	for _, v := range voices {
		reply.Voices = append(reply.Voices, protocol.VoiceInfo{Name: v.Name, Character: v.Character})
	}
	data, err := json.Marshal(reply)
	if err != nil {
		s.logger.Warn("failed to marshal voices reply", slogError(err))
		return
	}
	if err := msg.Respond(data); err != nil {
		s.logger.Warn("failed to respond with voices", slogError(err))
	}
}

func (s *Service) record(req protocol.SynthesizeRequest, job history.Job) {
	if s.store == nil {
		return
	}
	job.Mode = s.cfg.Mode
	job.Voice = req.Voice
	job.TextChars = len(req.Text)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Append(ctx, job); err != nil {
		s.logger.Warn("failed to record job", slogError(err))
	}
}

func (s *Service) respond(msg *nats.Msg, reply protocol.SynthesizeReply) {
	data, err := json.Marshal(reply)
	if err != nil {
		s.logger.Warn("failed to marshal synth reply", slogError(err))
		return
	}
	if err := msg.Respond(data); err != nil {
		s.logger.Warn("failed to respond to synth request", slogError(err))
	}
}

func (s *Service) respondError(msg *nats.Msg, requestID string, classified *Error) {
	s.respond(msg, protocol.SynthesizeReply{
		RequestID: requestID,
		Error:     &protocol.ErrorInfo{Kind: string(classified.Kind), Detail: classified.Detail},
	})
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
