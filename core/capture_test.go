package session

import (
	"context"
	"time"

	"testing"

	"github.com/parley-ai/parley-core/core/audio"
	"github.com/parley-ai/parley-core/core/audio/pcm"
)

// scriptedInput replays a fixed set of frames, then blocks until cancelled.
type scriptedInput struct {
	frames [][]float32
}

func (f *scriptedInput) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultInputEncodingInfo()
}

func (f *scriptedInput) Stream(ctx context.Context, onFrame func(samples []float32)) error {
	for _, frame := range f.frames {
		onFrame(frame)
	}
	<-ctx.Done()
	return nil
}

func (f *scriptedInput) Close() error { return nil }

func TestCaptureEncodesAndForwardsFrames(t *testing.T) {
	frame := make([]float32, 480)
	for i := range frame {
		frame[i] = 0.25
	}
	pipeline := newCapturePipeline(&scriptedInput{frames: [][]float32{frame, frame}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sent := make(chan string, 4)
	err := pipeline.Start(ctx, func(payload string) error {
		sent <- payload
		return nil
	})
	if err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}

	for i := range 2 {
		select {
		case payload := <-sent:
			samples, err := pcm.Decode(payload)
			if err != nil {
				t.Fatalf("expected a decodable payload, got %v", err)
			}
			if len(samples) != len(frame) {
				t.Errorf("expected frame %d to carry %d samples, got %d", i, len(frame), len(samples))
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for frame %d", i)
		}
	}
}

func TestCaptureStartWithoutClient(t *testing.T) {
	pipeline := newCapturePipeline(nil)

	err := pipeline.Start(context.Background(), func(string) error { return nil })
	if err != ErrMicrophoneUnavailable {
		t.Fatalf("expected %v, got %v", ErrMicrophoneUnavailable, err)
	}
}

func TestCaptureRestartsAfterStop(t *testing.T) {
	pipeline := newCapturePipeline(&scriptedInput{frames: [][]float32{make([]float32, 480)}})

	ctx, cancel := context.WithCancel(context.Background())
	sent := make(chan string, 4)
	send := func(payload string) error {
		sent <- payload
		return nil
	}

	if err := pipeline.Start(ctx, send); err != nil {
		t.Fatalf("expected first start to succeed, got %v", err)
	}
	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for first session's frame")
	}

	cancel()
	pipeline.Stop()

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	if err := pipeline.Start(ctx, send); err != nil {
		t.Fatalf("expected restart to succeed, got %v", err)
	}
	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for second session's frame")
	}
}
