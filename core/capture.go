package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/parley-ai/parley-core/core/audio"
	"github.com/parley-ai/parley-core/core/audio/pcm"
)

const outboundQueueCapacity = 32

// capturePipeline turns microphone frames into outbound transport payloads.
// Encoding happens on the capture callback; the transport send runs on its
// own goroutine fed by a bounded queue, so the capture callback never waits
// on the network. Overflow frames are dropped rather than queued.
type capturePipeline struct {
	// client stores the configured input client used for streaming audio.
	client InputClient

	// send forwards one encoded payload to the live transport session.
	// Replaced at session start; send failures are not retried here, they
	// surface through the transport's own error callback.
	send atomic.Pointer[func(payload string) error]

	queue chan string

	mu        sync.Mutex
	capturing bool
	// session distinguishes capture sessions, so a stream goroutine left
	// over from a stopped session cannot clear a newer session's state.
	session int
}

func newCapturePipeline(client InputClient) *capturePipeline {
	return &capturePipeline{
		client: client,
		queue:  make(chan string, outboundQueueCapacity),
	}
}

func (p *capturePipeline) set(client InputClient) {
	if p == nil {
		return
	}
	p.client = client
}

func (p *capturePipeline) isConfigured() bool {
	return p != nil && p.client != nil
}

func (p *capturePipeline) encodingInfo() audio.EncodingInfo {
	if p == nil || p.client == nil {
		return audio.GetDefaultInputEncodingInfo()
	}
	return p.client.EncodingInfo()
}

// Start begins streaming frames to the given sender. Frames are emitted
// continuously for the life of the capture session regardless of
// conversational state; cancelling ctx ends the session's capture without
// releasing the underlying device.
func (p *capturePipeline) Start(ctx context.Context, send func(payload string) error) error {
	if !p.isConfigured() {
		return ErrMicrophoneUnavailable
	}

	p.mu.Lock()
	if p.capturing {
		p.mu.Unlock()
		return nil
	}
	p.capturing = true
	p.session++
	session := p.session
	p.mu.Unlock()

	// Anything still queued belongs to the previous session.
	for drained := false; !drained; {
		select {
		case <-p.queue:
		default:
			drained = true
		}
	}
	p.send.Store(&send)

	go p.drainQueue(ctx)
	go func() {
		if err := p.client.Stream(ctx, p.onFrame); err != nil {
			logger.Error("audio capture stream ended", "error", err)
		}
		p.mu.Lock()
		if p.session == session {
			p.capturing = false
		}
		p.mu.Unlock()
	}()

	return nil
}

// onFrame runs on the capture callback. It must not block: the queue send
// is best effort and drops the frame when the sender has fallen behind.
func (p *capturePipeline) onFrame(samples []float32) {
	if p.send.Load() == nil {
		return
	}

	select {
	case p.queue <- pcm.Encode(samples):
	default:
		logger.Warn("outbound audio queue full, dropping frame")
	}
}

func (p *capturePipeline) drainQueue(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-p.queue:
			send := p.send.Load()
			if send == nil {
				continue
			}
			if err := (*send)(payload); err != nil {
				logger.Warn("failed to send audio frame", "error", err)
			}
		}
	}
}

// Stop ends the current capture session but keeps the device configured so
// a later Start can reuse it.
func (p *capturePipeline) Stop() {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.capturing = false
	p.session++
	p.mu.Unlock()
	p.send.Store(nil)
}

// Close releases the underlying input device.
func (p *capturePipeline) Close() error {
	p.Stop()
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}
