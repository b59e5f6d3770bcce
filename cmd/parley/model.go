package main

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	session "github.com/parley-ai/parley-core/core"
)

type stateMsg struct {
	state session.SessionState
}

type conversationMsg struct {
	message session.ConversationMessage
}

type model struct {
	engine *session.Engine

	state    session.SessionState
	messages []session.ConversationMessage

	viewport viewport.Model
	spinner  spinner.Model
	styles   styles

	width  int
	height int
	ready  bool
}

func newModel(engine *session.Engine) model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return model{
		engine:  engine,
		state:   engine.State(),
		spinner: s,
		styles:  newStyles(),
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "s":
			return m, m.toggleSession()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, max(msg.Height-chromeHeight, 1))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = max(msg.Height-chromeHeight, 1)
		}
		m.viewport.SetContent(renderConversation(m.messages, m.width, m.styles))

	case stateMsg:
		m.state = msg.state

	case conversationMsg:
		m.messages = append(m.messages, msg.message)
		m.viewport.SetContent(renderConversation(m.messages, m.width, m.styles))
		m.viewport.GotoBottom()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// toggleSession starts a session when there is none and stops the live one
// otherwise. Start blocks on the connection handshake, so it runs as a
// command instead of inside Update.
func (m model) toggleSession() tea.Cmd {
	if m.state.IsConnecting || m.state.IsActive {
		return func() tea.Msg {
			m.engine.Stop()
			return nil
		}
	}
	return func() tea.Msg {
		_ = m.engine.Start(context.Background())
		return nil
	}
}
