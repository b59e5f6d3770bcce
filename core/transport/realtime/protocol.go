package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/jinzhu/copier"
	"github.com/parley-ai/parley-core/core/transport"
)

// Client frame types.
const (
	frameSessionSetup = "session.setup"
	frameInputAudio   = "input_audio"
	frameToolResult   = "tool_result"
)

// Server frame types.
const (
	frameSessionReady     = "session.ready"
	frameOutputAudio      = "output_audio"
	frameInputTranscript  = "input_transcript"
	frameOutputTranscript = "output_transcript"
	frameTurnComplete     = "turn_complete"
	frameInterrupted      = "interrupted"
	frameToolCall         = "tool_call"
	frameError            = "error"
)

type clientSetup struct {
	Type                string            `json:"type"`
	Model               string            `json:"model"`
	Voice               string            `json:"voice"`
	Instructions        string            `json:"instructions,omitempty"`
	ResponseModality    string            `json:"response_modality"`
	InputTranscription  bool              `json:"input_transcription"`
	OutputTranscription bool              `json:"output_transcription"`
	Tools               []toolDeclaration `json:"tools,omitempty"`
}

type toolDeclaration struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

type clientAudioFrame struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

type clientToolResult struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Result any    `json:"result"`
}

// serverFrame is the superset of all inbound frame payloads; Type selects
// which fields are meaningful.
type serverFrame struct {
	Type      string         `json:"type"`
	Data      string         `json:"data,omitempty"`
	Text      string         `json:"text,omitempty"`
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Message   string         `json:"message,omitempty"`
	Code      string         `json:"code,omitempty"`
}

func decodeServerFrame(data []byte) (serverFrame, error) {
	var frame serverFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return serverFrame{}, fmt.Errorf("failed to decode server frame: %w", err)
	}
	if frame.Type == "" {
		return serverFrame{}, fmt.Errorf("server frame missing type")
	}
	return frame, nil
}

func buildSetup(config transport.Config) (clientSetup, error) {
	var tools []transport.Tool
	if err := copier.Copy(&tools, config.Tools); err != nil {
		return clientSetup{}, fmt.Errorf("failed to copy tool declarations: %w", err)
	}

	setup := clientSetup{
		Type:                frameSessionSetup,
		Model:               config.Model,
		Voice:               config.Voice,
		Instructions:        config.Instructions,
		ResponseModality:    "audio",
		InputTranscription:  config.InputTranscription,
		OutputTranscription: config.OutputTranscription,
	}

	reflector := jsonschema.Reflector{DoNotReference: true}
	for _, tool := range tools {
		declaration := toolDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
		}
		if tool.Parameters != nil {
			declaration.Parameters = reflector.Reflect(tool.Parameters)
		}
		setup.Tools = append(setup.Tools, declaration)
	}

	return setup, nil
}
