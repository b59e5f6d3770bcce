package session

import (
	"strings"
	"sync"
)

// transcriptAggregator reassembles the many small transcript fragments the
// remote endpoint streams per utterance into whole turn texts. The
// conversation log must only ever show finished utterances.
type transcriptAggregator struct {
	mu        sync.Mutex
	user      strings.Builder
	assistant strings.Builder
}

func newTranscriptAggregator() *transcriptAggregator {
	return &transcriptAggregator{}
}

func (a *transcriptAggregator) AppendUser(fragment string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.user.WriteString(fragment)
}

func (a *transcriptAggregator) AppendAssistant(fragment string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.assistant.WriteString(fragment)
}

// FlushTurn returns the pending text for both sides and clears both
// buffers unconditionally, whether or not they held anything.
func (a *transcriptAggregator) FlushTurn() (userText, assistantText string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	userText = a.user.String()
	assistantText = a.assistant.String()
	a.user.Reset()
	a.assistant.Reset()
	return userText, assistantText
}
