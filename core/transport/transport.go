// Package transport defines the contract between the session engine and a
// realtime conversational endpoint. Concrete adapters live in subpackages;
// the engine only depends on the interfaces here.
package transport

import "context"

// Config describes the session requested from the remote endpoint.
type Config struct {
	Model        string
	Voice        string
	Instructions string

	// InputTranscription and OutputTranscription request in-band
	// transcription of the user and assistant sides respectively.
	InputTranscription  bool
	OutputTranscription bool

	Tools []Tool
}

// Tool declares a client-executed function the remote model may call.
// Parameters is an optional Go value whose type is reflected into a JSON
// schema by the adapter. Handler, when set, is executed locally and its
// result reported back on the session; it never rides the wire itself.
type Tool struct {
	Name        string
	Description string
	Parameters  any
	Handler     func(arguments map[string]any) (any, error)
}

// ToolCall is a remote request to execute a declared tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Callbacks receive inbound session events. Delivery is in arrival order
// within a single kind; no ordering is guaranteed across kinds. Nil
// callbacks are skipped.
type Callbacks struct {
	// OnAudio receives an encoded audio payload ready for playback
	// scheduling.
	OnAudio func(payload string)
	// OnInputTranscript receives a partial transcript fragment of the
	// user's speech.
	OnInputTranscript func(text string)
	// OnOutputTranscript receives a partial transcript fragment of the
	// assistant's speech.
	OnOutputTranscript func(text string)
	// OnTurnComplete signals that the current conversational turn finished
	// on the remote side.
	OnTurnComplete func()
	// OnInterrupted signals that the user spoke over the assistant and all
	// queued assistant audio is stale.
	OnInterrupted func()
	// OnToolCall receives client tool execution requests.
	OnToolCall func(call ToolCall)
	// OnError reports a terminal session error. The session is unusable
	// afterwards.
	OnError func(err error)
	// OnClosed reports a remote-initiated close without error.
	OnClosed func()
}

// Session is a live connection handle.
type Session interface {
	// SendAudio forwards an encoded audio payload. Fire-and-forget; send
	// failures surface through Callbacks.OnError.
	SendAudio(payload string) error
	// SendToolResult reports the outcome of a tool execution requested
	// through Callbacks.OnToolCall.
	SendToolResult(id string, result any) error
	// Close releases the connection. Idempotent.
	Close() error
}

// Transport opens sessions against a remote endpoint. Open blocks until
// the session is acknowledged or fails.
type Transport interface {
	Open(ctx context.Context, config Config, callbacks Callbacks) (Session, error)
}
