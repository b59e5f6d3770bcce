// Command parley is a terminal client for the realtime voice session
// engine: it talks to the parley realtime endpoint over the default
// microphone and speakers and shows the conversation as it happens.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	session "github.com/parley-ai/parley-core/core"
	"github.com/parley-ai/parley-core/core/audio/miniaudio"
	"github.com/parley-ai/parley-core/core/transport/realtime"
)

func main() {
	transportClient, err := realtime.NewClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to configure realtime client: %v\n", err)
		os.Exit(1)
	}

	audioClient, err := miniaudio.NewClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open audio devices: %v\n", err)
		os.Exit(1)
	}
	defer audioClient.Close()

	// The engine callbacks only fire after a session is started from
	// inside the program, by which point program is assigned.
	var program *tea.Program
	engine := session.NewEngine(
		session.WithTransport(transportClient),
		session.WithAudioInput(audioClient.Capture()),
		session.WithAudioOutput(audioClient.Playback()),
		session.WithMessageCallback(func(message session.ConversationMessage) {
			program.Send(conversationMsg{message: message})
		}),
		session.WithStateCallback(func(state session.SessionState) {
			program.Send(stateMsg{state: state})
		}),
	)
	defer engine.Close()

	program = tea.NewProgram(newModel(engine), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to run: %v\n", err)
		os.Exit(1)
	}
}
