// Package realtime is the websocket adapter for the parley realtime voice
// endpoint. It implements the transport contract the session engine
// depends on: an acknowledged session open, fire-and-forget audio sends
// and in-order delivery of inbound audio, transcript and control frames.
package realtime

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/parley-ai/parley-core/core/transport"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultEndpoint       = "wss://api.parley.ai/v1/realtime"
	defaultConnectTimeout = 15 * time.Second
)

var _ transport.Transport = (*Client)(nil)

type Client struct {
	endpoint      string
	tokenEndpoint string
	apiKey        string
	dialer        *websocket.Dialer
}

type ClientOption func(*Client)

func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) { c.apiKey = apiKey }
}

func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithTokenEndpoint enables ephemeral session token minting before dialing
// instead of presenting the long-lived API key on the socket.
func WithTokenEndpoint(endpoint string) ClientOption {
	return func(c *Client) { c.tokenEndpoint = endpoint }
}

func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		endpoint: defaultEndpoint,
		dialer:   websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(c)
	}

	if endpoint, ok := os.LookupEnv("PARLEY_REALTIME_URL"); ok && c.endpoint == defaultEndpoint {
		c.endpoint = endpoint
	}
	if c.apiKey == "" {
		apiKey, ok := os.LookupEnv("PARLEY_API_KEY")
		if !ok {
			return nil, fmt.Errorf("parley api key not found")
		}
		c.apiKey = apiKey
	}

	return c, nil
}

// Open dials the endpoint, sends the session setup frame and waits for the
// ready acknowledgment before handing the session back.
func (c *Client) Open(ctx context.Context, config transport.Config, callbacks transport.Callbacks) (transport.Session, error) {
	ctx, span := tracer.Start(ctx, "open realtime session")
	defer span.End()

	fail := func(err error) (transport.Session, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	token, err := c.sessionToken(ctx)
	if err != nil {
		return fail(fmt.Errorf("failed to acquire session token: %w", err))
	}

	dialCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, defaultConnectTimeout)
		defer cancel()
	}

	conn, _, err := c.dialer.DialContext(dialCtx, c.endpoint,
		http.Header{"Authorization": {"Bearer " + token}})
	if err != nil {
		return fail(fmt.Errorf("failed to open socket connection: %w", err))
	}

	setup, err := buildSetup(config)
	if err != nil {
		_ = conn.Close()
		return fail(err)
	}
	if err := conn.WriteJSON(setup); err != nil {
		_ = conn.Close()
		return fail(fmt.Errorf("failed to send session setup: %w", err))
	}

	_ = conn.SetReadDeadline(time.Now().Add(defaultConnectTimeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return fail(fmt.Errorf("failed to read session acknowledgment: %w", err))
	}
	_ = conn.SetReadDeadline(time.Time{})

	frame, err := decodeServerFrame(payload)
	if err != nil {
		_ = conn.Close()
		return fail(err)
	}
	switch frame.Type {
	case frameSessionReady:
	case frameError:
		_ = conn.Close()
		return fail(fmt.Errorf("session rejected: %s", frame.Message))
	default:
		_ = conn.Close()
		return fail(fmt.Errorf("unexpected first frame %q", frame.Type))
	}

	session := &Session{
		conn:      conn,
		callbacks: callbacks,
		done:      make(chan struct{}),
	}
	go session.readLoop()
	return session, nil
}

// Session is a live websocket session.
type Session struct {
	conn      *websocket.Conn
	callbacks transport.Callbacks

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool
	done      chan struct{}
}

var _ transport.Session = (*Session)(nil)

// SendAudio forwards one encoded audio payload.
func (s *Session) SendAudio(payload string) error {
	return s.sendJSON(clientAudioFrame{Type: frameInputAudio, Data: payload})
}

// SendToolResult reports the outcome of a client tool execution.
func (s *Session) SendToolResult(id string, result any) error {
	return s.sendJSON(clientToolResult{Type: frameToolResult, ID: id, Result: result})
}

func (s *Session) sendJSON(v any) error {
	if s.closed.Load() {
		return fmt.Errorf("session is closed")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(v); err != nil {
		return fmt.Errorf("failed to write to realtime endpoint: %w", err)
	}
	return nil
}

// Close shuts the connection down. Idempotent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(2*time.Second))
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
	<-s.done
	return nil
}

func (s *Session) readLoop() {
	// The terminal callback runs after done is closed: its receiver is
	// expected to call Close, and Close waits on done.
	var terminal func()
	defer func() {
		close(s.done)
		if terminal != nil {
			terminal()
		}
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				terminal = s.callbacks.OnClosed
				return
			}
			if s.callbacks.OnError != nil {
				readErr := fmt.Errorf("failed to read from realtime endpoint: %w", err)
				terminal = func() { s.callbacks.OnError(readErr) }
			}
			return
		}

		frame, err := decodeServerFrame(data)
		if err != nil {
			logger.Warn("skipping undecodable server frame", "error", err)
			continue
		}
		if frame.Type == frameError {
			// Terminal like a read failure, and delivered the same way.
			if s.callbacks.OnError != nil {
				remoteErr := fmt.Errorf("remote session error: %s (%s)", frame.Message, frame.Code)
				terminal = func() { s.callbacks.OnError(remoteErr) }
			}
			return
		}
		s.dispatch(frame)
	}
}

func (s *Session) dispatch(frame serverFrame) {
	switch frame.Type {
	case frameOutputAudio:
		if s.callbacks.OnAudio != nil {
			s.callbacks.OnAudio(frame.Data)
		}
	case frameInputTranscript:
		if s.callbacks.OnInputTranscript != nil {
			s.callbacks.OnInputTranscript(frame.Text)
		}
	case frameOutputTranscript:
		if s.callbacks.OnOutputTranscript != nil {
			s.callbacks.OnOutputTranscript(frame.Text)
		}
	case frameTurnComplete:
		s.invoke(s.callbacks.OnTurnComplete)
	case frameInterrupted:
		s.invoke(s.callbacks.OnInterrupted)
	case frameToolCall:
		if s.callbacks.OnToolCall != nil {
			s.callbacks.OnToolCall(transport.ToolCall{
				ID:        frame.ID,
				Name:      frame.Name,
				Arguments: frame.Arguments,
			})
		}
	default:
		// Forward-compatible: unknown frame kinds are ignored.
	}
}

func (s *Session) invoke(callback func()) {
	if callback != nil {
		callback()
	}
}
