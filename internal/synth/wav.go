package synth

import "encoding/binary"

// Format describes the PCM layout of a sample buffer. The remote
// service always returns 24kHz 16-bit mono, see DefaultFormat.
type Format struct {
	Channels   int
	SampleRate int
	BitDepth   int
}

// DefaultFormat is the format contracted with the remote service.
func DefaultFormat() Format {
	return Format{Channels: 1, SampleRate: 24000, BitDepth: 16}
}

// ByteRate returns bytes of PCM per second for the format.
func (f Format) ByteRate() int {
	return f.SampleRate * f.Channels * f.BitDepth / 8
}

func (f Format) blockAlign() int {
	return f.Channels * f.BitDepth / 8
}

const wavHeaderSize = 44

// EncodeWAV wraps raw PCM samples in a canonical 44-byte RIFF/WAVE
// header, entirely in memory. Identical inputs yield byte-identical
// output. An odd-length payload is padded with a single zero byte; per
// RIFF convention the pad byte counts toward the RIFF size field but
// not toward the data chunk size.
func EncodeWAV(pcm []byte, f Format) []byte {
	pad := len(pcm) & 1
	out := make([]byte, wavHeaderSize+len(pcm)+pad)
	h := out[:wavHeaderSize]

	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], uint32(36+len(pcm)+pad))
	copy(h[8:12], "WAVE")

	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(h[20:22], 1)  // linear PCM
	binary.LittleEndian.PutUint16(h[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(h[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(h[28:32], uint32(f.ByteRate()))
	binary.LittleEndian.PutUint16(h[32:34], uint16(f.blockAlign()))
	binary.LittleEndian.PutUint16(h[34:36], uint16(f.BitDepth))

	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], uint32(len(pcm)))

	copy(out[wavHeaderSize:], pcm)
	return out
}
