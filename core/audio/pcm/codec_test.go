package pcm

import (
	"errors"
	"math"
	"testing"
)

func TestRoundTripWithinOneQuantizationStep(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1, -1, 0.123, -0.987, 1.0 / 3.0}

	decoded, err := Decode(Encode(samples))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(decoded) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(decoded))
	}

	step := 1.0 / float64(math.MaxInt16)
	for i, sample := range samples {
		if diff := math.Abs(float64(sample) - float64(decoded[i])); diff > step {
			t.Fatalf("sample %d drifted by %f, more than one quantization step", i, diff)
		}
	}
}

func TestEncodeClampsOutOfRangeSamples(t *testing.T) {
	decoded, err := Decode(Encode([]float32{2.5, -3}))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if decoded[0] != 1 {
		t.Fatalf("expected overdriven sample to clamp to 1, got %f", decoded[0])
	}
	if decoded[1] != -1 {
		t.Fatalf("expected overdriven sample to clamp to -1, got %f", decoded[1])
	}
}

func TestDecodeRejectsInvalidBase64(t *testing.T) {
	if _, err := Decode("not base64!"); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestDecodeRejectsPartialSamples(t *testing.T) {
	// Three bytes cannot hold whole 16-bit samples.
	if _, err := Decode("AAAA"); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestEncodeEmptyInput(t *testing.T) {
	decoded, err := Decode(Encode(nil))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(decoded) != 0 {
		t.Fatalf("expected no samples, got %d", len(decoded))
	}
}
