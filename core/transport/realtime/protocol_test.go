package realtime

import (
	"encoding/json"
	"strings"

	"testing"

	"github.com/parley-ai/parley-core/core/transport"
)

func TestDecodeServerFrame(t *testing.T) {
	for _, tc := range []struct {
		name     string
		payload  string
		expected serverFrame
	}{
		{
			name:     "audio",
			payload:  `{"type":"output_audio","data":"AAAA"}`,
			expected: serverFrame{Type: frameOutputAudio, Data: "AAAA"},
		},
		{
			name:     "transcript",
			payload:  `{"type":"input_transcript","text":"hello"}`,
			expected: serverFrame{Type: frameInputTranscript, Text: "hello"},
		},
		{
			name:     "turn boundary",
			payload:  `{"type":"turn_complete"}`,
			expected: serverFrame{Type: frameTurnComplete},
		},
		{
			name:    "tool call",
			payload: `{"type":"tool_call","id":"call-1","name":"lookup","arguments":{"city":"Zagreb"}}`,
			expected: serverFrame{
				Type: frameToolCall, ID: "call-1", Name: "lookup",
				Arguments: map[string]any{"city": "Zagreb"},
			},
		},
		{
			name:     "error",
			payload:  `{"type":"error","message":"quota exceeded","code":"quota"}`,
			expected: serverFrame{Type: frameError, Message: "quota exceeded", Code: "quota"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			frame, err := decodeServerFrame([]byte(tc.payload))
			if err != nil {
				t.Fatalf("expected frame to decode, got %v", err)
			}
			if frame.Type != tc.expected.Type || frame.Data != tc.expected.Data ||
				frame.Text != tc.expected.Text || frame.ID != tc.expected.ID ||
				frame.Name != tc.expected.Name || frame.Message != tc.expected.Message ||
				frame.Code != tc.expected.Code {
				t.Errorf("expected %+v, got %+v", tc.expected, frame)
			}
			if len(frame.Arguments) != len(tc.expected.Arguments) {
				t.Errorf("expected arguments %+v, got %+v", tc.expected.Arguments, frame.Arguments)
			}
		})
	}
}

func TestDecodeServerFrameRejectsGarbage(t *testing.T) {
	if _, err := decodeServerFrame([]byte("not json")); err == nil {
		t.Error("expected non-json payload to fail")
	}
	if _, err := decodeServerFrame([]byte(`{"data":"AAAA"}`)); err == nil {
		t.Error("expected untyped frame to fail")
	}
}

type weatherQuery struct {
	City string `json:"city" jsonschema:"description=City to look up"`
	Days int    `json:"days,omitempty"`
}

func TestBuildSetup(t *testing.T) {
	setup, err := buildSetup(transport.Config{
		Model:               "parley-realtime-1",
		Voice:               "aster",
		Instructions:        "Be brief.",
		InputTranscription:  true,
		OutputTranscription: true,
		Tools: []transport.Tool{{
			Name:        "weather",
			Description: "Look up a forecast",
			Parameters:  weatherQuery{},
		}},
	})
	if err != nil {
		t.Fatalf("expected setup to build, got %v", err)
	}

	if setup.Type != frameSessionSetup {
		t.Errorf("expected type %q, got %q", frameSessionSetup, setup.Type)
	}
	if setup.ResponseModality != "audio" {
		t.Errorf("expected audio response modality, got %q", setup.ResponseModality)
	}
	if !setup.InputTranscription || !setup.OutputTranscription {
		t.Errorf("expected transcription enabled in both directions, got %+v", setup)
	}
	if len(setup.Tools) != 1 {
		t.Fatalf("expected 1 tool declaration, got %d", len(setup.Tools))
	}

	tool := setup.Tools[0]
	if tool.Name != "weather" || tool.Description != "Look up a forecast" {
		t.Errorf("unexpected tool declaration %+v", tool)
	}
	if tool.Parameters == nil {
		t.Fatal("expected a parameter schema")
	}

	schema, err := json.Marshal(tool.Parameters)
	if err != nil {
		t.Fatalf("expected schema to marshal, got %v", err)
	}
	for _, property := range []string{`"city"`, `"days"`} {
		if !json.Valid(schema) || !strings.Contains(string(schema), property) {
			t.Errorf("expected schema to declare %s, got %s", property, schema)
		}
	}
}

func TestBuildSetupWithoutTools(t *testing.T) {
	setup, err := buildSetup(transport.Config{Model: "parley-realtime-1"})
	if err != nil {
		t.Fatalf("expected setup to build, got %v", err)
	}
	if len(setup.Tools) != 0 {
		t.Errorf("expected no tool declarations, got %+v", setup.Tools)
	}

	payload, err := json.Marshal(setup)
	if err != nil {
		t.Fatalf("expected setup to marshal, got %v", err)
	}
	if strings.Contains(string(payload), `"tools"`) {
		t.Errorf("expected tools omitted from the wire frame, got %s", payload)
	}
}
