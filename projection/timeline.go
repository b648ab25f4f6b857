// Package projection builds local timelines from server reads.
// Handles ordering, deduplication, and the per-conversation watermark.
// Does not perform network calls or interact with UI directly.
package projection

import (
	"httpchat/infrastructure/http/wire"
)

// Timeline is one client's rendered view of a conversation. The server
// pre-sorts the initial window and every delta, so merging is append-at-tail
// and the view stays timestamp-ascending without re-sorting. Deduplication
// is by message id: on a timestamp tie a delta fetch can re-deliver a
// message already rendered, and the watermark alone cannot filter it.
type Timeline struct {
	Conversation string
	Messages     []wire.Message

	watermark int64
	seen      map[string]struct{}
}

func NewTimeline(conversation string) *Timeline {
	return &Timeline{
		Conversation: conversation,
		seen:         make(map[string]struct{}),
	}
}

// Apply merges a server-ordered batch into the view and returns the
// messages that were actually new, in the order they were appended.
func (t *Timeline) Apply(batch []wire.Message) []wire.Message {
	var appended []wire.Message
	for _, msg := range batch {
		if _, ok := t.seen[msg.ID]; ok {
			continue
		}
		t.seen[msg.ID] = struct{}{}
		t.Messages = append(t.Messages, msg)
		if msg.Timestamp > t.watermark {
			t.watermark = msg.Timestamp
		}
		appended = append(appended, msg)
	}
	return appended
}

// Watermark is the highest timestamp rendered so far, 0 for a fresh view.
// It is the "since" value of the next delta fetch.
func (t *Timeline) Watermark() int64 {
	return t.watermark
}
