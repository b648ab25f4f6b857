// Package search maintains a full-text index of message text next to the
// primary log. The index is a convenience projection: losing it never
// affects the append-only store.
package search

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/blugelabs/bluge"

	"httpchat/domain"
)

type IMessageIndex interface {
	Index(msg domain.Message) error
	Search(ctx context.Context, conversation, query string, limit int) ([]domain.Message, error)
}

type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(path string, log *slog.Logger) (*MessageIndex, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, err
	}
	return &MessageIndex{writer: writer, log: log}, nil
}

func (m *MessageIndex) Close() error {
	return m.writer.Close()
}

// Index upserts one document per message. All attributes are stored so a
// search hit can be rebuilt without a trip to the primary log.
func (m *MessageIndex) Index(msg domain.Message) error {
	id := strconv.FormatInt(msg.ID, 10)
	doc := bluge.NewDocument(id).
		AddField(bluge.NewKeywordField("conversation", msg.Conversation).StoreValue()).
		AddField(bluge.NewTextField("text", msg.Text).StoreValue()).
		AddField(bluge.NewKeywordField("sender", msg.Sender).StoreValue()).
		AddField(bluge.NewNumericField("timestamp", float64(msg.Timestamp))).
		AddField(bluge.NewStoredOnlyField("timestamp_ms", []byte(strconv.FormatInt(msg.Timestamp, 10))))
	return m.writer.Update(doc.ID(), doc)
}

// Search returns messages of one conversation matching the query, ascending
// by timestamp, at most limit entries.
func (m *MessageIndex) Search(ctx context.Context, conversation, query string, limit int) ([]domain.Message, error) {
	reader, err := m.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = reader.Close()
	}()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(conversation).SetField("conversation")).
		AddMust(bluge.NewMatchQuery(query).SetField("text"))
	req := bluge.NewTopNSearch(limit, q).SortBy([]string{"timestamp"})

	it, err := reader.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	var messages []domain.Message
	match, err := it.Next()
	for err == nil && match != nil {
		var msg domain.Message
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				msg.ID, _ = strconv.ParseInt(string(value), 10, 64)
			case "conversation":
				msg.Conversation = string(value)
			case "sender":
				msg.Sender = string(value)
			case "text":
				msg.Text = string(value)
			case "timestamp_ms":
				msg.Timestamp, _ = strconv.ParseInt(string(value), 10, 64)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
		match, err = it.Next()
	}
	if err != nil {
		return nil, err
	}
	return messages, nil
}
