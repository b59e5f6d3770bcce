package session

import (
	"time"

	"github.com/google/uuid"
)

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// ConversationMessage is one finished utterance in the conversation log.
// Messages are only ever created from completed turns, never from partial
// transcript fragments, and are immutable once appended.
type ConversationMessage struct {
	ID        string
	Text      string
	Sender    Sender
	Timestamp time.Time
}

func newConversationMessage(text string, sender Sender) ConversationMessage {
	return ConversationMessage{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    sender,
		Timestamp: time.Now(),
	}
}
