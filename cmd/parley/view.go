package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	session "github.com/parley-ai/parley-core/core"
)

// chromeHeight is the number of terminal rows used around the viewport.
const chromeHeight = 4

func (m model) View() string {
	if !m.ready {
		return "Starting up..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.viewport.View(),
		m.helpView(),
	)
}

func (m model) headerView() string {
	title := m.styles.title.Render("parley")

	var status string
	switch {
	case m.state.IsConnecting:
		status = m.styles.connect.Render(m.spinner.View() + "connecting")
	case m.state.IsActive:
		status = m.styles.active.Render("● live")
	case m.state.Err != nil:
		status = m.styles.errored.Render(fmt.Sprintf("✗ %v", m.state.Err))
	default:
		status = m.styles.idle.Render("○ idle")
	}

	return title + "  " + status + "\n"
}

func (m model) helpView() string {
	return "\n" + m.styles.help.Render("s: start/stop session • q: quit")
}

func renderConversation(messages []session.ConversationMessage, width int, s styles) string {
	if len(messages) == 0 {
		return s.empty.Render("No conversation yet. Press s and start talking.")
	}

	lines := make([]string, 0, len(messages)*2)
	for _, message := range messages {
		label := s.assistant.Render("assistant")
		if message.Sender == session.SenderUser {
			label = s.user.Render("you")
		}

		text := wordwrap.String(message.Text, max(width-2, 20))
		lines = append(lines,
			fmt.Sprintf("%s %s", label, message.Timestamp.Format("15:04:05")),
			s.text.Render(text),
			"",
		)
	}

	return strings.Join(lines, "\n")
}
