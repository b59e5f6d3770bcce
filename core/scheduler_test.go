package session

import (
	"sync"
	"time"

	"testing"

	"github.com/parley-ai/parley-core/core/audio"
	"github.com/parley-ai/parley-core/core/audio/pcm"
)

type fakeSink struct {
	mu     sync.Mutex
	now    time.Duration
	plays  []*fakePlay
	closed bool
}

type fakePlay struct {
	samples []float32
	at      time.Duration
	onDone  func()
	stopped bool
}

func (p *fakePlay) Stop() { p.stopped = true }

func (s *fakeSink) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultOutputEncodingInfo()
}

func (s *fakeSink) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *fakeSink) PlayAt(samples []float32, at time.Duration, onDone func()) (audio.PlaybackHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	play := &fakePlay{samples: samples, at: at, onDone: onDone}
	s.plays = append(s.plays, play)
	return play, nil
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSink) advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now += d
}

func (s *fakeSink) playAt(t *testing.T, i int) *fakePlay {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= len(s.plays) {
		t.Fatalf("expected at least %d scheduled plays, got %d", i+1, len(s.plays))
	}
	return s.plays[i]
}

// chunk encodes d worth of silence at the output sample rate.
func chunk(d time.Duration) string {
	samples := audio.GetDefaultOutputEncodingInfo().Samples(d)
	return pcm.Encode(make([]float32, samples))
}

func TestEnqueueSchedulesChunksBackToBack(t *testing.T) {
	sink := &fakeSink{}
	scheduler := newPlaybackScheduler()
	scheduler.setSink(sink)

	for range 3 {
		if err := scheduler.Enqueue(chunk(500 * time.Millisecond)); err != nil {
			t.Fatalf("expected enqueue to succeed, got %v", err)
		}
	}

	expected := []time.Duration{0, 500 * time.Millisecond, time.Second}
	for i, at := range expected {
		if got := sink.playAt(t, i).at; got != at {
			t.Errorf("expected chunk %d scheduled at %v, got %v", i, at, got)
		}
	}
	if got := scheduler.activeSegments(); got != 3 {
		t.Errorf("expected 3 active segments, got %d", got)
	}
}

func TestEnqueueAfterDrainSchedulesAtClock(t *testing.T) {
	sink := &fakeSink{}
	scheduler := newPlaybackScheduler()
	scheduler.setSink(sink)

	if err := scheduler.Enqueue(chunk(500 * time.Millisecond)); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}

	// Clock moves past everything scheduled; the next chunk must not be
	// placed in the past.
	sink.advance(2 * time.Second)

	if err := scheduler.Enqueue(chunk(500 * time.Millisecond)); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if got := sink.playAt(t, 1).at; got != 2*time.Second {
		t.Errorf("expected chunk scheduled at clock time 2s, got %v", got)
	}
	if err := scheduler.Enqueue(chunk(250 * time.Millisecond)); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if got := sink.playAt(t, 2).at; got != 2500*time.Millisecond {
		t.Errorf("expected chunk scheduled at 2.5s, got %v", got)
	}
}

func TestInterruptStopsEverythingAndRewinds(t *testing.T) {
	sink := &fakeSink{}
	scheduler := newPlaybackScheduler()
	scheduler.setSink(sink)

	for range 2 {
		if err := scheduler.Enqueue(chunk(time.Second)); err != nil {
			t.Fatalf("expected enqueue to succeed, got %v", err)
		}
	}

	scheduler.Interrupt()

	if got := scheduler.activeSegments(); got != 0 {
		t.Errorf("expected no active segments after interrupt, got %d", got)
	}
	for i := range 2 {
		if !sink.playAt(t, i).stopped {
			t.Errorf("expected segment %d stopped after interrupt", i)
		}
	}

	// Post-interrupt audio plays immediately at the live clock, not after
	// the abandoned queue.
	sink.advance(750 * time.Millisecond)
	if err := scheduler.Enqueue(chunk(500 * time.Millisecond)); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if got := sink.playAt(t, 2).at; got != 750*time.Millisecond {
		t.Errorf("expected post-interrupt chunk at clock time 750ms, got %v", got)
	}
}

func TestEnqueueRejectsMalformedPayload(t *testing.T) {
	sink := &fakeSink{}
	scheduler := newPlaybackScheduler()
	scheduler.setSink(sink)

	if err := scheduler.Enqueue("not valid base64!!!"); err == nil {
		t.Fatal("expected enqueue of malformed payload to fail")
	}
	if len(sink.plays) != 0 {
		t.Errorf("expected no scheduled plays, got %d", len(sink.plays))
	}

	// The bad chunk must not poison subsequent ones.
	if err := scheduler.Enqueue(chunk(500 * time.Millisecond)); err != nil {
		t.Fatalf("expected enqueue after a bad chunk to succeed, got %v", err)
	}
	if got := sink.playAt(t, 0).at; got != 0 {
		t.Errorf("expected chunk scheduled at 0, got %v", got)
	}
}

func TestSegmentCompletionReleasesIt(t *testing.T) {
	sink := &fakeSink{}
	scheduler := newPlaybackScheduler()
	scheduler.setSink(sink)

	if err := scheduler.Enqueue(chunk(500 * time.Millisecond)); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if got := scheduler.activeSegments(); got != 1 {
		t.Fatalf("expected 1 active segment, got %d", got)
	}

	sink.playAt(t, 0).onDone()

	if got := scheduler.activeSegments(); got != 0 {
		t.Errorf("expected 0 active segments after completion, got %d", got)
	}
}

func TestEnqueueWithoutSinkIsIgnored(t *testing.T) {
	scheduler := newPlaybackScheduler()
	if err := scheduler.Enqueue(chunk(500 * time.Millisecond)); err != nil {
		t.Fatalf("expected enqueue without a sink to be a no-op, got %v", err)
	}
}
