//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"httpchat/domain"
	"httpchat/errors"
)

const (
	// DefaultWindow is the window size used when the caller does not ask
	// for a specific one.
	DefaultWindow = 50
	// MaxWindow bounds how many messages a single windowed read may return.
	MaxWindow = 100
)

type IMessageRepository interface {
	Append(conversation, sender, text string) (domain.Message, error)
	ListRecent(conversation string, limit int) ([]domain.Message, error)
	ListSince(conversation string, since int64) ([]domain.Message, error)
	ListConversationsFor(participant string) ([]domain.ConversationSummary, error)
}

// MessageRepository is an append-only message log on BadgerDB.
//
// Message keys are formatted as "msg:{conversation}:{timestamp_ms}:{id}" with
// the timestamp zero-padded to 13 digits and the id to 20, so that
// lexicographic key order equals (timestamp, id) ascending within one
// conversation. A second keyspace "conv:{sender}:{conversation}" indexes the
// conversations each sender has written to.
type MessageRepository struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger

	mu     sync.Mutex
	lastTS int64
	now    func() time.Time
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte("seq:messages"), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	return &MessageRepository{db: db, seq: seq, log: log, now: time.Now}, nil
}

// Close releases the id sequence. Unused ids from the reserved band are
// discarded, which keeps ids increasing but not dense across restarts.
func (r *MessageRepository) Close() error {
	return r.seq.Release()
}

// messageRecord is the persisted form of a message. The record carries every
// attribute so reads never have to parse anything back out of the key.
type messageRecord struct {
	ID           int64  `json:"id"`
	Conversation string `json:"conversation"`
	Sender       string `json:"sender"`
	Text         string `json:"text"`
	Timestamp    int64  `json:"timestamp"`
}

type senderRecord struct {
	Sender       string `json:"sender"`
	Conversation string `json:"conversation"`
}

// Append validates, assigns id and timestamp, and persists the message and
// its sender index entry in one transaction. Retrying after an error may
// persist the message twice: there is no client-supplied idempotency key.
func (r *MessageRepository) Append(conversation, sender, text string) (domain.Message, error) {
	conversation = strings.TrimSpace(conversation)
	if conversation == "" {
		return domain.Message{}, errors.ErrEmptyConversation
	}
	sender = domain.NormalizeAddress(sender)
	if err := domain.ValidateAddress(sender); err != nil {
		return domain.Message{}, err
	}

	next, err := r.seq.Next()
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	msg := domain.Message{
		ID:           int64(next) + 1,
		Conversation: conversation,
		Sender:       sender,
		Text:         strings.TrimSpace(text),
		Timestamp:    r.nextTimestamp(),
	}

	payload, err := json.Marshal(messageRecord(msg))
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	index, err := json.Marshal(senderRecord{Sender: sender, Conversation: conversation})
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(messageKey(conversation, msg.Timestamp, msg.ID), payload); err != nil {
			return err
		}
		return txn.Set(senderKey(sender, conversation), index)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	return msg, nil
}

// nextTimestamp returns the current unix milliseconds, clamped so the
// assigned value never decreases across the whole store. Rapid successive
// appends routinely share a timestamp; the id is the tiebreaker.
func (r *MessageRepository) nextTimestamp() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ts := r.now().UnixMilli()
	if ts < r.lastTS {
		ts = r.lastTS
	}
	r.lastTS = ts
	return ts
}

// ListRecent returns at most limit most recent messages of the conversation,
// re-ordered ascending by (timestamp, id). Unknown conversations yield an
// empty result, not an error.
func (r *MessageRepository) ListRecent(conversation string, limit int) ([]domain.Message, error) {
	conversation = strings.TrimSpace(conversation)
	limit = clampWindow(limit)

	var messages []domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix(conversation))
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse scan needs a seek key past every key of the prefix.
		for it.Seek(append(prefix, 0xFF)); it.ValidForPrefix(prefix) && len(messages) < limit; it.Next() {
			msg, ok, err := decodeMessage(it.Item(), prefix)
			if err != nil {
				return err
			}
			if ok {
				messages = append(messages, msg)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	return lo.Reverse(messages), nil
}

// ListSince returns every message of the conversation with timestamp
// strictly greater than since, ascending, unbounded. Repeated calls with the
// same watermark and no intervening appends return identical sequences.
func (r *MessageRepository) ListSince(conversation string, since int64) ([]domain.Message, error) {
	conversation = strings.TrimSpace(conversation)

	var messages []domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix(conversation))
		seek := []byte(fmt.Sprintf("%s%013d", messagePrefix(conversation), since+1))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			msg, ok, err := decodeMessage(it.Item(), prefix)
			if err != nil {
				return err
			}
			if ok && msg.Timestamp > since {
				messages = append(messages, msg)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	return messages, nil
}

// ListConversationsFor returns a summary for every conversation in which the
// participant has sent at least one message, most recent first. Conversations
// where the participant only ever received messages are not surfaced.
func (r *MessageRepository) ListConversationsFor(participant string) ([]domain.ConversationSummary, error) {
	participant = domain.NormalizeAddress(participant)

	var summaries []domain.ConversationSummary
	err := r.db.View(func(txn *badger.Txn) error {
		conversations, err := sentConversations(txn, participant)
		if err != nil {
			return err
		}
		for _, conversation := range conversations {
			last, ok, err := latestMessage(txn, conversation)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			summaries = append(summaries, domain.ConversationSummary{
				Conversation:     conversation,
				OtherParticipant: domain.OtherParticipant(conversation, participant),
				LastMessage:      last.Text,
				LastTimestamp:    last.Timestamp,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastTimestamp > summaries[j].LastTimestamp
	})
	return summaries, nil
}

// sentConversations collects the distinct conversations participant has
// written to, via the sender index keyspace.
func sentConversations(txn *badger.Txn, participant string) ([]string, error) {
	prefix := []byte("conv:" + participant + ":")
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	var conversations []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var rec senderRecord
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
		if err != nil {
			return nil, err
		}
		// Addresses may contain the key delimiter, so a prefix match alone
		// is not proof of ownership. The stored record is authoritative.
		if rec.Sender != participant {
			continue
		}
		conversations = append(conversations, rec.Conversation)
	}
	return conversations, nil
}

func latestMessage(txn *badger.Txn, conversation string) (domain.Message, bool, error) {
	prefix := []byte(messagePrefix(conversation))
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(append(prefix, 0xFF)); it.ValidForPrefix(prefix); it.Next() {
		msg, ok, err := decodeMessage(it.Item(), prefix)
		if err != nil || ok {
			return msg, ok, err
		}
	}
	return domain.Message{}, false, nil
}

func clampWindow(limit int) int {
	if limit == 0 {
		return DefaultWindow
	}
	if limit < 1 {
		return 1
	}
	if limit > MaxWindow {
		return MaxWindow
	}
	return limit
}

func messagePrefix(conversation string) string {
	return "msg:" + conversation + ":"
}

func messageKey(conversation string, ts, id int64) []byte {
	return []byte(fmt.Sprintf("%s%013d:%020d", messagePrefix(conversation), ts, id))
}

func senderKey(sender, conversation string) []byte {
	return []byte("conv:" + sender + ":" + conversation)
}

// decodeMessage unmarshals the item value when the key truly belongs to the
// scanned conversation. A conversation name may itself contain ':', so the
// key remainder must be exactly "{13 digits}:{20 digits}" to count; keys of
// a longer conversation name sharing the prefix fail that shape check.
func decodeMessage(item *badger.Item, prefix []byte) (domain.Message, bool, error) {
	rest := item.Key()[len(prefix):]
	if !wellFormedSuffix(rest) {
		return domain.Message{}, false, nil
	}
	var rec messageRecord
	err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return domain.Message{}, false, err
	}
	return domain.Message(rec), true, nil
}

func wellFormedSuffix(rest []byte) bool {
	if len(rest) != 13+1+20 || rest[13] != ':' {
		return false
	}
	for i, b := range rest {
		if i == 13 {
			continue
		}
		if b < '0' || b > '9' {
			return false
		}
	}
	return true
}
