package session

import (
	"context"
	"time"

	"github.com/parley-ai/parley-core/core/audio"
	"github.com/parley-ai/parley-core/core/transport"
)

// InputClient is a live microphone stream yielding fixed-size float sample
// frames at its declared sample rate.
type InputClient interface {
	EncodingInfo() audio.EncodingInfo
	Stream(ctx context.Context, onFrame func(samples []float32)) error
	Close() error
}

// OutputSink is a schedulable playback device. Its clock starts at zero
// when the sink is created and advances monotonically with rendered audio.
type OutputSink interface {
	EncodingInfo() audio.EncodingInfo
	// Now reports the current position of the output clock.
	Now() time.Duration
	// PlayAt schedules samples to begin playing at the given output-clock
	// time. onDone fires once, asynchronously, when the segment finishes
	// naturally; it does not fire for segments stopped through the handle.
	PlayAt(samples []float32, at time.Duration, onDone func()) (audio.PlaybackHandle, error)
	Close() error
}

type EngineOption func(*Engine)

func WithTransport(t transport.Transport) EngineOption {
	return func(e *Engine) { e.transport = t }
}

func WithAudioInput(client InputClient) EngineOption {
	return func(e *Engine) { e.input.set(client) }
}

func WithAudioOutput(sink OutputSink) EngineOption {
	return func(e *Engine) { e.scheduler.setSink(sink) }
}

func WithModel(model string) EngineOption {
	return func(e *Engine) { e.config.Model = model }
}

// WithVoice sets the persona/voice identifier requested from the remote
// endpoint.
func WithVoice(voice string) EngineOption {
	return func(e *Engine) { e.config.Voice = voice }
}

func WithInstructions(instructions string) EngineOption {
	return func(e *Engine) { e.config.Instructions = instructions }
}

func WithTools(tools ...transport.Tool) EngineOption {
	return func(e *Engine) { e.config.Tools = append(e.config.Tools, tools...) }
}

// WithMessageCallback registers a callback for every message appended to
// the conversation log. Messages are delivered in append order.
func WithMessageCallback(callback func(message ConversationMessage)) EngineOption {
	return func(e *Engine) { e.onMessage = callback }
}

// WithStateCallback registers a callback for session state transitions.
func WithStateCallback(callback func(state SessionState)) EngineOption {
	return func(e *Engine) { e.onState = callback }
}

// WithToolCallCallback registers a callback for remote tool execution
// requests. Without it, tool calls are ignored.
func WithToolCallCallback(callback func(call transport.ToolCall)) EngineOption {
	return func(e *Engine) { e.onToolCall = callback }
}
