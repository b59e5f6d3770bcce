// Package session implements the realtime voice session engine: it streams
// microphone audio to a remote conversational endpoint, schedules returned
// speech for gapless playback, reacts to barge-in, and folds streamed
// transcripts into a turn-based conversation log.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/parley-ai/parley-core/core/transport"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultModel = "parley-realtime-1"
	DefaultVoice = "aster"
)

// Engine is the top-level session controller. It owns the transport
// session handle and the audio clients for the lifetime of one session and
// releases them deterministically on stop, error and remote close.
type Engine struct {
	mu sync.Mutex

	state    SessionState
	messages []ConversationMessage

	transport transport.Transport
	config    transport.Config

	input      *capturePipeline
	scheduler  *playbackScheduler
	transcript *transcriptAggregator

	// session is the live transport handle; at most one is open at a time.
	session       transport.Session
	sessionCancel context.CancelFunc

	closeOnce sync.Once

	onMessage  func(ConversationMessage)
	onState    func(SessionState)
	onToolCall func(transport.ToolCall)
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		state: stateIdle(),
		config: transport.Config{
			Model:               DefaultModel,
			Voice:               DefaultVoice,
			InputTranscription:  true,
			OutputTranscription: true,
		},
		input:      newCapturePipeline(nil),
		scheduler:  newPlaybackScheduler(),
		transcript: newTranscriptAggregator(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// State returns the current session state.
func (e *Engine) State() SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Messages returns the conversation log in append order.
func (e *Engine) Messages() []ConversationMessage {
	e.mu.Lock()
	defer e.mu.Unlock()

	messages := make([]ConversationMessage, len(e.messages))
	copy(messages, e.messages)
	return messages
}

// Start opens a session: it verifies the microphone client, opens the
// transport with audio responses, the configured voice and both-direction
// transcription, and begins the capture pipeline once the open is
// acknowledged. Only valid from idle or errored; otherwise a no-op.
func (e *Engine) Start(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "start voice session")
	defer span.End()

	e.mu.Lock()
	if e.state.IsConnecting || e.state.IsActive {
		e.mu.Unlock()
		return nil
	}

	if !e.input.isConfigured() {
		e.state = stateErrored(ErrMicrophoneUnavailable)
		e.mu.Unlock()
		e.emitState()
		span.RecordError(ErrMicrophoneUnavailable)
		span.SetStatus(codes.Error, ErrMicrophoneUnavailable.Error())
		return ErrMicrophoneUnavailable
	}

	if e.transport == nil {
		e.state = stateErrored(ErrTransportOpen)
		e.mu.Unlock()
		e.emitState()
		span.RecordError(ErrTransportOpen)
		span.SetStatus(codes.Error, ErrTransportOpen.Error())
		return ErrTransportOpen
	}

	e.state = stateConnecting()
	config := e.config
	e.mu.Unlock()
	e.emitState()

	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	// The open handshake is the one genuine asynchronous wait in the
	// engine; inbound events are suppressed until the state is active.
	handle, err := e.transport.Open(ctx, config, transport.Callbacks{
		OnAudio:            e.handleAudio,
		OnInputTranscript:  e.handleInputTranscript,
		OnOutputTranscript: e.handleOutputTranscript,
		OnTurnComplete:     e.handleTurnComplete,
		OnInterrupted:      e.handleInterrupted,
		OnToolCall:         e.handleToolCall,
		OnError:            e.handleTransportError,
		OnClosed:           e.handleTransportClosed,
	})
	if err != nil {
		cancel()
		e.mu.Lock()
		e.state = stateErrored(ErrTransportOpen)
		e.mu.Unlock()
		e.emitState()
		recordedErr := fmt.Errorf("failed to open transport session: %w", err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
		return ErrTransportOpen
	}

	e.mu.Lock()
	if !e.state.IsConnecting {
		// Stopped while the handshake was in flight; the handle is stale.
		e.mu.Unlock()
		cancel()
		_ = handle.Close()
		return nil
	}
	e.session = handle
	e.sessionCancel = cancel
	e.scheduler.Reset()
	e.state = stateActive()
	e.mu.Unlock()
	e.emitState()

	if err := e.input.Start(sessionCtx, handle.SendAudio); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.mu.Lock()
		e.teardownLocked(stateErrored(ErrMicrophoneUnavailable))
		return ErrMicrophoneUnavailable
	}

	return nil
}

// Stop tears the session down: transport handle first, then capture, then
// playback, skipping whatever was never acquired. Valid from connecting or
// active; a no-op from idle.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.state.IsConnecting && !e.state.IsActive {
		e.mu.Unlock()
		return
	}
	e.teardownLocked(stateIdle())
}

// teardownLocked releases session resources and transitions to next. The
// caller must hold e.mu; the lock is released before returning.
func (e *Engine) teardownLocked(next SessionState) {
	handle := e.session
	cancel := e.sessionCancel
	e.session = nil
	e.sessionCancel = nil
	e.state = next
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if handle != nil {
		if err := handle.Close(); err != nil {
			logger.Warn("failed to close transport session", "error", err)
		}
	}
	e.input.Stop()
	e.scheduler.Interrupt()
	e.emitState()
}

// Close releases the audio devices as well. The engine is unusable
// afterwards.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.Stop()

		if err := e.input.Close(); err != nil {
			logger.Error("failed to close audio input", "error", err)
		}
		if err := e.scheduler.Close(); err != nil {
			logger.Error("failed to close audio output", "error", err)
		}
	})
}

func (e *Engine) emitState() {
	e.mu.Lock()
	state := e.state
	onState := e.onState
	e.mu.Unlock()

	if onState != nil {
		onState(state)
	}
}

func (e *Engine) isActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.IsActive
}

func (e *Engine) handleAudio(payload string) {
	if !e.isActive() {
		return
	}

	// A bad chunk is dropped on its own; segments before and after it are
	// unaffected.
	if err := e.scheduler.Enqueue(payload); err != nil {
		logger.Warn("dropping inbound audio chunk", "error", err)
	}
}

func (e *Engine) handleInputTranscript(text string) {
	if !e.isActive() {
		return
	}
	e.transcript.AppendUser(text)
}

func (e *Engine) handleOutputTranscript(text string) {
	if !e.isActive() {
		return
	}
	e.transcript.AppendAssistant(text)
}

// handleTurnComplete drains the transcript buffers into the conversation
// log, user side before assistant side.
func (e *Engine) handleTurnComplete() {
	if !e.isActive() {
		return
	}

	userText, assistantText := e.transcript.FlushTurn()

	var appended []ConversationMessage
	e.mu.Lock()
	if userText != "" {
		message := newConversationMessage(userText, SenderUser)
		e.messages = append(e.messages, message)
		appended = append(appended, message)
	}
	if assistantText != "" {
		message := newConversationMessage(assistantText, SenderAssistant)
		e.messages = append(e.messages, message)
		appended = append(appended, message)
	}
	onMessage := e.onMessage
	e.mu.Unlock()

	if onMessage != nil {
		for _, message := range appended {
			onMessage(message)
		}
	}
}

func (e *Engine) handleInterrupted() {
	if !e.isActive() {
		return
	}
	e.scheduler.Interrupt()
}

// handleToolCall executes the registered handler, reports the result back
// on the session, and notifies the tool call callback. Execution runs off
// the transport's read loop so a slow tool cannot stall inbound audio.
func (e *Engine) handleToolCall(call transport.ToolCall) {
	if !e.isActive() {
		return
	}

	e.mu.Lock()
	handle := e.session
	onToolCall := e.onToolCall
	e.mu.Unlock()

	if onToolCall != nil {
		onToolCall(call)
	}

	if !e.hasToolHandler(call.Name) {
		if onToolCall == nil {
			logger.Warn("ignoring tool call without a registered handler", "tool", call.Name)
		}
		return
	}

	go func() {
		result, err := e.callTool(context.Background(), call)
		if err != nil {
			logger.Error("tool execution failed", "tool", call.Name, "error", err)
			result = map[string]any{"error": err.Error()}
		}
		if handle == nil {
			return
		}
		if err := handle.SendToolResult(call.ID, result); err != nil {
			logger.Warn("failed to send tool result", "tool", call.Name, "error", err)
		}
	}()
}

func (e *Engine) handleTransportError(err error) {
	e.mu.Lock()
	if !e.state.IsConnecting && !e.state.IsActive {
		e.mu.Unlock()
		return
	}
	logger.Error("transport session failed", "error", err)
	e.teardownLocked(stateErrored(ErrTransportRuntime))
}

func (e *Engine) handleTransportClosed() {
	e.mu.Lock()
	if !e.state.IsConnecting && !e.state.IsActive {
		e.mu.Unlock()
		return
	}
	e.teardownLocked(stateIdle())
}
