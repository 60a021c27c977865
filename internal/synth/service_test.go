package synth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/voxlabs/vox-core/internal/bus"
	"github.com/voxlabs/vox-core/internal/config"
	"github.com/voxlabs/vox-core/internal/protocol"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func startTestBus(t *testing.T) (*bus.Client, *nats.Conn) {
	t.Helper()

	ns, err := server.NewServer(&server.Options{Host: "127.0.0.1", Port: -1})
	if err != nil {
		t.Fatalf("create nats server: %v", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("nats server did not start")
	}
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	busCfg := config.BusConfig{Servers: []string{ns.ClientURL()}, ConnectTimeout: 2000, ConnectRetries: 3}
	client, err := bus.Connect(context.Background(), busCfg, newTestLogger())
	if err != nil {
		t.Fatalf("connect bus client: %v", err)
	}
	t.Cleanup(client.Close)

	nc, err := nats.Connect(ns.ClientURL())
	if err != nil {
		t.Fatalf("connect test client: %v", err)
	}
	t.Cleanup(nc.Close)

	return client, nc
}

func testSynthConfig() config.SynthConfig {
	return config.SynthConfig{
		Enabled:        true,
		Mode:           "mock",
		Voice:          "Kore",
		SampleRate:     24000,
		Channels:       1,
		BitDepth:       16,
		RequestTimeout: 5000,
	}
}

func startTestService(t *testing.T, pcm []byte) *nats.Conn {
	t.Helper()
	busClient, nc := startTestBus(t)

	gen := NewGenerator(NewMockSynth(pcm, 0), DefaultFormat())
	svc := NewService(context.Background(), testSynthConfig(), busClient, gen, nil, newTestLogger())
	if err := svc.Start(); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Close)
	return nc
}

func TestServiceSynthesize(t *testing.T) {
	pcm := bytes.Repeat([]byte{0x10, 0x20}, 600)
	nc := startTestService(t, pcm)

	req := protocol.SynthesizeRequest{
		RequestID: "job-1",
		Text:      "Have a wonderful day!",
		Style:     "cheerful",
		Voice:     "Kore",
		APIKey:    "valid-key",
	}
	data, _ := json.Marshal(req)
	msg, err := nc.Request(protocol.SubjectSynthRequest, data, 5*time.Second)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	var reply protocol.SynthesizeReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if reply.Error != nil {
		t.Fatalf("unexpected error reply: %+v", reply.Error)
	}
	if reply.RequestID != "job-1" {
		t.Fatalf("request id = %q, want job-1", reply.RequestID)
	}
	if reply.SampleRate != 24000 || reply.Channels != 1 || reply.BitDepth != 16 {
		t.Fatalf("unexpected format in reply: %+v", reply)
	}

	const prefix = "data:audio/wav;base64,"
	if !strings.HasPrefix(reply.DataURI, prefix) {
		t.Fatalf("unexpected data URI %q", reply.DataURI[:30])
	}
	container, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(reply.DataURI, prefix))
	if err != nil {
		t.Fatalf("decode container: %v", err)
	}
	if !bytes.Equal(container[44:], pcm) {
		t.Fatal("container payload must equal the synthesized PCM")
	}
}

func TestServiceAssignsRequestID(t *testing.T) {
	nc := startTestService(t, []byte{0x01, 0x02})

	data, _ := json.Marshal(protocol.SynthesizeRequest{Text: "hi", APIKey: "valid-key"})
	msg, err := nc.Request(protocol.SubjectSynthRequest, data, 5*time.Second)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var reply protocol.SynthesizeReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if reply.RequestID == "" {
		t.Fatal("expected an assigned request id")
	}
}

func TestServiceRejectsInvalidInput(t *testing.T) {
	nc := startTestService(t, []byte{0x01, 0x02})

	cases := []struct {
		name string
		req  protocol.SynthesizeRequest
	}{
		{"empty text", protocol.SynthesizeRequest{Text: "  ", APIKey: "valid-key"}},
		{"missing credential", protocol.SynthesizeRequest{Text: "hello"}},
		{"three speakers", protocol.SynthesizeRequest{
			Text:         "hello",
			APIKey:       "valid-key",
			MultiSpeaker: true,
			Speakers: []protocol.SpeakerVoice{
				{Speaker: "A", Voice: "Kore"},
				{Speaker: "B", Voice: "Puck"},
				{Speaker: "C", Voice: "Charon"},
			},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, _ := json.Marshal(tc.req)
			msg, err := nc.Request(protocol.SubjectSynthRequest, data, 5*time.Second)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			var reply protocol.SynthesizeReply
			if err := json.Unmarshal(msg.Data, &reply); err != nil {
				t.Fatalf("decode reply: %v", err)
			}
			if reply.Error == nil || reply.Error.Kind != string(KindValidation) {
				t.Fatalf("expected validation error, got %+v", reply.Error)
			}
		})
	}
}

func TestServiceVoicesCatalog(t *testing.T) {
	nc := startTestService(t, []byte{0x01, 0x02})

	msg, err := nc.Request(protocol.SubjectSynthVoices, nil, 5*time.Second)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var reply protocol.VoicesReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if len(reply.Voices) != 30 {
		t.Fatalf("expected 30 voices, got %d", len(reply.Voices))
	}
	found := false
	for _, v := range reply.Voices {
		if v.Name == "Kore" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected Kore in the voice catalog")
	}
}

func TestGeneratorRejectsEmptyPCM(t *testing.T) {
	gen := NewGenerator(NewMockSynth(nil, 0), DefaultFormat())
	req, err := NewRequest("hello", mustSingleVoice(t, "Kore"), "valid-key")
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	_, err = gen.Generate(context.Background(), req)
	assertKind(t, err, KindValidation)
	if Classify(err).Detail != "empty_payload" {
		t.Fatalf("expected empty_payload detail, got %q", Classify(err).Detail)
	}
}
