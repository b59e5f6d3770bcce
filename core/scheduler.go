package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parley-ai/parley-core/core/audio"
	"github.com/parley-ai/parley-core/core/audio/pcm"
)

// playbackScheduler places inbound audio chunks on the output clock so they
// are heard back to back. Chunks arrive in small pieces with network
// jitter; scheduling against a monotonically advancing cursor instead of
// playing on arrival keeps playback gapless as long as arrival keeps up
// with the playback rate.
type playbackScheduler struct {
	mu sync.Mutex

	sink OutputSink

	// cursor is the end time of the last scheduled segment on the output
	// clock. Reset to zero on session start and on interruption.
	cursor time.Duration

	// active holds every segment between scheduling and natural completion
	// or forced stop.
	active map[string]audio.PlaybackHandle
}

func newPlaybackScheduler() *playbackScheduler {
	return &playbackScheduler{active: map[string]audio.PlaybackHandle{}}
}

func (s *playbackScheduler) setSink(sink OutputSink) {
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

func (s *playbackScheduler) isConfigured() bool {
	if s == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink != nil
}

func (s *playbackScheduler) encodingInfo() audio.EncodingInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sink == nil {
		return audio.GetDefaultOutputEncodingInfo()
	}
	return s.sink.EncodingInfo()
}

// Enqueue decodes one chunk and schedules it immediately after whatever is
// already queued, or at the current clock time if the queue has drained.
// A decode failure only drops that chunk.
func (s *playbackScheduler) Enqueue(payload string) error {
	samples, err := pcm.Decode(payload)
	if err != nil {
		return fmt.Errorf("failed to decode audio chunk: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sink == nil {
		return nil
	}

	duration := s.sink.EncodingInfo().Duration(len(samples))
	start := s.cursor
	if now := s.sink.Now(); now > start {
		start = now
	}

	id := uuid.NewString()
	handle, err := s.sink.PlayAt(samples, start, func() {
		s.mu.Lock()
		delete(s.active, id)
		s.mu.Unlock()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule audio chunk: %w", err)
	}

	s.active[id] = handle
	s.cursor = start + duration
	return nil
}

// Interrupt stops every in-flight segment and rewinds the cursor, so the
// next Enqueue schedules at the live clock time. Called on remote barge-in;
// everything queued past this point is stale.
func (s *playbackScheduler) Interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, handle := range s.active {
		handle.Stop()
		delete(s.active, id)
	}
	s.cursor = 0
}

func (s *playbackScheduler) activeSegments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Reset prepares the scheduler for a fresh session.
func (s *playbackScheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = 0
	s.active = map[string]audio.PlaybackHandle{}
}

// Close releases the output device, stopping anything still scheduled.
func (s *playbackScheduler) Close() error {
	s.mu.Lock()
	sink := s.sink
	for id, handle := range s.active {
		handle.Stop()
		delete(s.active, id)
	}
	s.cursor = 0
	s.mu.Unlock()

	if sink == nil {
		return nil
	}
	return sink.Close()
}
