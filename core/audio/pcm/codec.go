// Package pcm converts between float sample buffers and the text-safe
// payloads exchanged with the realtime endpoint: 16-bit little-endian
// signed samples, packed consecutively and base64 encoded.
package pcm

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrMalformedPayload is returned by Decode for payloads that are not valid
// base64 or do not contain whole 16-bit samples.
var ErrMalformedPayload = errors.New("malformed audio payload")

const bytesPerSample = 2

// Encode quantizes samples in [-1, 1] to s16le and base64 encodes the
// packed result. Samples outside the range are clamped.
func Encode(samples []float32) string {
	buf := make([]byte, len(samples)*bytesPerSample)
	for i, sample := range samples {
		if sample > 1 {
			sample = 1
		} else if sample < -1 {
			sample = -1
		}
		quantized := int16(math.Round(float64(sample) * math.MaxInt16))
		binary.LittleEndian.PutUint16(buf[i*bytesPerSample:], uint16(quantized))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// Decode is the inverse of [Encode], scaling back to [-1, 1].
func Decode(payload string) ([]float32, error) {
	buf, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if len(buf)%bytesPerSample != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of samples", ErrMalformedPayload, len(buf))
	}

	samples := make([]float32, len(buf)/bytesPerSample)
	for i := range samples {
		quantized := int16(binary.LittleEndian.Uint16(buf[i*bytesPerSample:]))
		samples[i] = float32(quantized) / math.MaxInt16
	}
	return samples, nil
}
