package synth

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/go-audio/wav"
)

func TestEncodeWAVHeaderFields(t *testing.T) {
	pcm := bytes.Repeat([]byte{0x01, 0x02}, 512)
	out := EncodeWAV(pcm, DefaultFormat())

	if len(out) != 44+len(pcm) {
		t.Fatalf("expected %d bytes, got %d", 44+len(pcm), len(out))
	}
	if string(out[0:4]) != "RIFF" || string(out[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE markers")
	}
	if got := binary.LittleEndian.Uint32(out[4:8]); got != uint32(36+len(pcm)) {
		t.Fatalf("RIFF size = %d, want %d", got, 36+len(pcm))
	}
	if got := binary.LittleEndian.Uint16(out[20:22]); got != 1 {
		t.Fatalf("format code = %d, want 1 (linear PCM)", got)
	}
	if got := binary.LittleEndian.Uint16(out[22:24]); got != 1 {
		t.Fatalf("channels = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(out[24:28]); got != 24000 {
		t.Fatalf("sample rate = %d, want 24000", got)
	}
	if got := binary.LittleEndian.Uint32(out[28:32]); got != 48000 {
		t.Fatalf("byte rate = %d, want 48000", got)
	}
	if got := binary.LittleEndian.Uint16(out[32:34]); got != 2 {
		t.Fatalf("block align = %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint16(out[34:36]); got != 16 {
		t.Fatalf("bits per sample = %d, want 16", got)
	}
	if string(out[36:40]) != "data" {
		t.Fatal("missing data chunk marker")
	}
	if got := binary.LittleEndian.Uint32(out[40:44]); got != uint32(len(pcm)) {
		t.Fatalf("data size = %d, want %d", got, len(pcm))
	}
	if !bytes.Equal(out[44:], pcm) {
		t.Fatal("payload must pass through unmodified")
	}
}

func TestEncodeWAVDeterministic(t *testing.T) {
	pcm := bytes.Repeat([]byte{0xaa, 0x55}, 1000)
	a := EncodeWAV(pcm, DefaultFormat())
	b := EncodeWAV(pcm, DefaultFormat())
	if !bytes.Equal(a, b) {
		t.Fatal("identical inputs must yield byte-identical output")
	}
}

// Odd-length payloads are padded to even with one zero byte. The pad
// counts toward the RIFF size but not toward the data chunk size.
func TestEncodeWAVOddPayloadPadding(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03}
	out := EncodeWAV(pcm, DefaultFormat())

	if len(out) != 44+4 {
		t.Fatalf("expected padded length %d, got %d", 44+4, len(out))
	}
	if got := binary.LittleEndian.Uint32(out[4:8]); got != uint32(36+4) {
		t.Fatalf("RIFF size = %d, want %d", got, 36+4)
	}
	if got := binary.LittleEndian.Uint32(out[40:44]); got != 3 {
		t.Fatalf("data size = %d, want 3", got)
	}
	if out[47] != 0 {
		t.Fatalf("pad byte = %#x, want 0", out[47])
	}
}

// An independent decoder must agree with the header we wrote.
func TestEncodeWAVParsesWithReferenceDecoder(t *testing.T) {
	pcm := make([]byte, 48000) // one second of silence
	for i := 0; i < len(pcm); i += 2 {
		binary.LittleEndian.PutUint16(pcm[i:i+2], uint16(i%256))
	}
	out := EncodeWAV(pcm, DefaultFormat())

	decoder := wav.NewDecoder(bytes.NewReader(out))
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		t.Fatal("reference decoder rejected the container")
	}
	if decoder.NumChans != 1 {
		t.Fatalf("decoder channels = %d, want 1", decoder.NumChans)
	}
	if decoder.SampleRate != 24000 {
		t.Fatalf("decoder sample rate = %d, want 24000", decoder.SampleRate)
	}
	if decoder.BitDepth != 16 {
		t.Fatalf("decoder bit depth = %d, want 16", decoder.BitDepth)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode PCM: %v", err)
	}
	if len(buf.Data) != len(pcm)/2 {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), len(pcm)/2)
	}
	if int16(buf.Data[1]) != int16(binary.LittleEndian.Uint16(pcm[2:4])) {
		t.Fatal("decoded samples disagree with the source PCM")
	}
}

func TestFormatByteRate(t *testing.T) {
	if got := DefaultFormat().ByteRate(); got != 48000 {
		t.Fatalf("byte rate = %d, want 48000", got)
	}
	stereo := Format{Channels: 2, SampleRate: 44100, BitDepth: 16}
	if got := stereo.ByteRate(); got != 176400 {
		t.Fatalf("byte rate = %d, want 176400", got)
	}
}
