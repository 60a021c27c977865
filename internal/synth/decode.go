package synth

import "encoding/base64"

// DecodePCM decodes the transport-encoded audio payload into raw PCM
// bytes. It does not inspect or convert the sample format: the remote
// service contract fixes it at 24kHz 16-bit mono.
func DecodePCM(data string) ([]byte, error) {
	pcm, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, newValidationError("malformed_payload")
	}
	if len(pcm) == 0 {
		return nil, newValidationError("empty_payload")
	}
	return pcm, nil
}
