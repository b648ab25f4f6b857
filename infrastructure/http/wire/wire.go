// Package wire defines the JSON request/response schemas of the chat API.
// Both the server handlers and the polling client are built against these
// types, so the field contract lives in exactly one place.
package wire

import (
	"fmt"

	"github.com/samber/lo"

	"httpchat/domain"
)

// MessageIDPrefix tags numeric store ids on the wire, keeping the
// identifier space opaque to clients.
const MessageIDPrefix = "msg_"

func MessageID(id int64) string {
	return fmt.Sprintf("%s%d", MessageIDPrefix, id)
}

// SendMessageRequest is the body of POST /api/messages. Text is a pointer so
// a missing field and a non-string field are both rejected before reaching
// the core; an empty string is accepted.
type SendMessageRequest struct {
	Conversation string  `json:"conversation"`
	Text         *string `json:"text"`
	From         string  `json:"from"`
}

type SendMessageResponse struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
}

type Message struct {
	ID           string `json:"id"`
	Conversation string `json:"conversation"`
	From         string `json:"from"`
	Text         string `json:"text"`
	Timestamp    int64  `json:"timestamp"`
}

type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
}

type Conversation struct {
	Conversation     string `json:"conversation"`
	OtherParticipant string `json:"otherParticipant"`
	LastMessage      string `json:"lastMessage"`
	LastTimestamp    int64  `json:"lastTimestamp"`
}

type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func FromMessage(msg domain.Message) Message {
	return Message{
		ID:           MessageID(msg.ID),
		Conversation: msg.Conversation,
		From:         msg.Sender,
		Text:         msg.Text,
		Timestamp:    msg.Timestamp,
	}
}

func FromMessages(messages []domain.Message) []Message {
	return lo.Map(messages, func(msg domain.Message, _ int) Message {
		return FromMessage(msg)
	})
}

func FromSummaries(summaries []domain.ConversationSummary) []Conversation {
	return lo.Map(summaries, func(s domain.ConversationSummary, _ int) Conversation {
		return Conversation{
			Conversation:     s.Conversation,
			OtherParticipant: s.OtherParticipant,
			LastMessage:      s.LastMessage,
			LastTimestamp:    s.LastTimestamp,
		}
	})
}
