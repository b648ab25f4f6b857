package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"httpchat/errors"
)

const conv = "alice@x.com__bob@y.com"

func newTestRepository(t *testing.T) *MessageRepository {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repository, err := NewMessageRepository(db, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repository.Close() })
	return repository
}

func Test_Append_Assigns_Monotonic_Ids_And_Timestamps(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	var lastID, lastTS int64
	for _, text := range []string{"hello", "are you there?", "ping"} {
		msg, err := repository.Append(conv, "alice@x.com", text)
		req.NoError(err)
		req.Greater(msg.ID, lastID)
		req.GreaterOrEqual(msg.Timestamp, lastTS)
		lastID, lastTS = msg.ID, msg.Timestamp
	}
}

func Test_Append_Normalizes_The_Sender(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	msg, err := repository.Append(conv, " Alice@X.COM ", "hi")
	req.NoError(err)
	req.Equal("alice@x.com", msg.Sender)
}

func Test_List_Recent_Is_Ascending_And_Bounded(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	texts := []string{"one", "two", "three"}
	for _, text := range texts {
		_, err := repository.Append(conv, "alice@x.com", text)
		req.NoError(err)
	}

	all, err := repository.ListRecent(conv, 50)
	req.NoError(err)
	req.Len(all, 3)
	for i, msg := range all {
		req.Equal(texts[i], msg.Text)
		if i > 0 {
			req.GreaterOrEqual(msg.Timestamp, all[i-1].Timestamp)
			req.Greater(msg.ID, all[i-1].ID)
		}
	}

	window, err := repository.ListRecent(conv, 2)
	req.NoError(err)
	req.Len(window, 2)
	req.Equal("two", window[0].Text)
	req.Equal("three", window[1].Text)
}

func Test_List_Since_Excludes_The_Watermark(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	// Deterministic clock: one distinct millisecond per append.
	base := time.Now()
	step := 0
	repository.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Millisecond)
	}

	first, err := repository.Append(conv, "alice@x.com", "t1")
	req.NoError(err)
	second, err := repository.Append(conv, "bob@y.com", "t2")
	req.NoError(err)
	third, err := repository.Append(conv, "alice@x.com", "t3")
	req.NoError(err)

	delta, err := repository.ListSince(conv, first.Timestamp)
	req.NoError(err)
	req.Len(delta, 2)
	req.Equal(second.ID, delta[0].ID)
	req.Equal(third.ID, delta[1].ID)

	// An append at ts is visible from ts-1 and invisible from ts.
	included, err := repository.ListSince(conv, first.Timestamp-1)
	req.NoError(err)
	req.Len(included, 3)
	req.Equal(first.ID, included[0].ID)

	after, err := repository.ListSince(conv, third.Timestamp)
	req.NoError(err)
	req.Empty(after)
}

func Test_List_Since_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	for _, text := range []string{"a", "b", "c"} {
		_, err := repository.Append(conv, "alice@x.com", text)
		req.NoError(err)
	}

	first, err := repository.ListSince(conv, 0)
	req.NoError(err)
	second, err := repository.ListSince(conv, 0)
	req.NoError(err)
	req.Equal(first, second)
}

func Test_Timestamp_Ties_Are_Ordered_By_Id(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	// Frozen clock forces every append onto the same millisecond.
	frozen := time.Now()
	repository.now = func() time.Time { return frozen }

	first, err := repository.Append(conv, "alice@x.com", "tie-1")
	req.NoError(err)
	second, err := repository.Append(conv, "bob@y.com", "tie-2")
	req.NoError(err)
	req.Equal(first.Timestamp, second.Timestamp)

	messages, err := repository.ListRecent(conv, 50)
	req.NoError(err)
	req.Len(messages, 2)
	req.Equal(first.ID, messages[0].ID)
	req.Equal(second.ID, messages[1].ID)

	// Both tied messages are part of the same delta.
	delta, err := repository.ListSince(conv, first.Timestamp-1)
	req.NoError(err)
	req.Len(delta, 2)
}

func Test_Unknown_Conversation_Yields_Empty_Not_Error(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	messages, err := repository.ListRecent("carol@z.com__dave@w.com", 50)
	req.NoError(err)
	req.Empty(messages)

	delta, err := repository.ListSince("carol@z.com__dave@w.com", 0)
	req.NoError(err)
	req.Empty(delta)
}

func Test_Append_Rejects_Invalid_Input(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	_, err := repository.Append(conv, "not-an-email", "hello")
	req.ErrorIs(err, errors.ErrInvalidAddress)

	_, err = repository.Append("   ", "alice@x.com", "hello")
	req.ErrorIs(err, errors.ErrEmptyConversation)

	// Nothing may have been persisted.
	messages, err := repository.ListRecent(conv, 50)
	req.NoError(err)
	req.Empty(messages)
}

func Test_List_Conversations_For_Is_Sender_Only(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	_, err := repository.Append(conv, "alice@x.com", "hi bob")
	req.NoError(err)

	summaries, err := repository.ListConversationsFor("alice@x.com")
	req.NoError(err)
	req.Len(summaries, 1)
	req.Equal(conv, summaries[0].Conversation)
	req.Equal("bob@y.com", summaries[0].OtherParticipant)
	req.Equal("hi bob", summaries[0].LastMessage)

	// Bob only ever received, so the conversation is not listed for him.
	received, err := repository.ListConversationsFor("bob@y.com")
	req.NoError(err)
	req.Empty(received)
}

func Test_List_Conversations_Sorted_By_Last_Timestamp_Descending(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	base := time.Now()
	step := 0
	repository.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Millisecond)
	}

	older := "alice@x.com__bob@y.com"
	newer := "alice@x.com__carol@z.com"
	_, err := repository.Append(older, "alice@x.com", "first thread")
	req.NoError(err)
	latest, err := repository.Append(newer, "alice@x.com", "second thread")
	req.NoError(err)

	summaries, err := repository.ListConversationsFor("alice@x.com")
	req.NoError(err)
	req.Len(summaries, 2)
	req.Equal(newer, summaries[0].Conversation)
	req.Equal(latest.Timestamp, summaries[0].LastTimestamp)
	req.Equal(older, summaries[1].Conversation)
}
