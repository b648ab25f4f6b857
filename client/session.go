package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"httpchat/domain"
	"httpchat/infrastructure/http/wire"
	"httpchat/projection"
)

// InitialWindow is the number of messages fetched when a conversation is
// opened. Everything older is reachable through a delta fetch from 0.
const InitialWindow = 50

var ErrNoOpenConversation = fmt.Errorf("no conversation is open")

// Session owns one client's synchronization state: the active conversation,
// one timeline per conversation it has opened, and at most one live poll
// task. All mutation funnels through the session so the convergence logic
// never relies on ambient globals.
type Session struct {
	client    *Client
	log       *slog.Logger
	self      string
	interval  time.Duration
	onMessage func(wire.Message)

	mu         sync.Mutex
	active     string
	generation int
	timelines  map[string]*projection.Timeline
	cancel     context.CancelFunc
}

// NewSession creates a session for the asserted identity self. onMessage is
// invoked for every newly rendered message and may be nil.
func NewSession(log *slog.Logger, c *Client, self string, interval time.Duration,
	onMessage func(wire.Message)) *Session {
	return &Session{
		client:    c,
		log:       log,
		self:      domain.NormalizeAddress(self),
		interval:  interval,
		onMessage: onMessage,
		timelines: make(map[string]*projection.Timeline),
	}
}

// Open makes conversation the active one: the previous poll task is
// cancelled, a catch-up fetch is merged, and a fresh poll task starts. A
// first open fetches the initial window; reopening a retained timeline
// fetches a delta from its watermark instead, so everything that arrived
// while the conversation was closed lands in order with no hole.
func (s *Session) Open(ctx context.Context, conversation string) error {
	s.mu.Lock()
	s.stopLocked()
	s.generation++
	generation := s.generation
	s.active = conversation
	timeline, ok := s.timelines[conversation]
	if !ok {
		timeline = projection.NewTimeline(conversation)
		s.timelines[conversation] = timeline
	}
	watermark := timeline.Watermark()
	s.mu.Unlock()

	var batch []wire.Message
	var err error
	if watermark > 0 {
		batch, err = s.client.ListMessages(ctx, conversation, &watermark, 0)
	} else {
		batch, err = s.client.ListMessages(ctx, conversation, nil, InitialWindow)
	}
	if err != nil {
		return err
	}
	s.deliver(s.applyIfCurrent(generation, timeline, batch))

	pollCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	if s.generation != generation {
		// Another Open or Close won the race while the window was loading.
		s.mu.Unlock()
		cancel()
		return nil
	}
	s.cancel = cancel
	s.mu.Unlock()

	go s.poll(pollCtx, generation, conversation, timeline)
	return nil
}

// Close tears down the poll task. The session keeps its timelines, so a
// later Open resumes from the retained watermark.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.generation++
	s.active = ""
}

// Send posts to the active conversation and applies the server receipt
// optimistically: the message is rendered and the watermark advanced from
// the response, not from a later poll. Failures are returned to the caller;
// nothing is retried and nothing is rendered.
func (s *Session) Send(ctx context.Context, text string) (wire.Message, error) {
	s.mu.Lock()
	conversation := s.active
	s.mu.Unlock()
	if conversation == "" {
		return wire.Message{}, ErrNoOpenConversation
	}

	receipt, err := s.client.Send(ctx, conversation, text, s.self)
	if err != nil {
		return wire.Message{}, err
	}

	msg := wire.Message{
		ID:           receipt.ID,
		Conversation: conversation,
		From:         s.self,
		Text:         text,
		Timestamp:    receipt.Timestamp,
	}
	s.mu.Lock()
	if timeline, ok := s.timelines[conversation]; ok {
		s.mu.Unlock()
		s.deliver(s.apply(timeline, []wire.Message{msg}))
		return msg, nil
	}
	s.mu.Unlock()
	return msg, nil
}

// Conversations lists the participant's conversations. The active
// conversation is surfaced even when the server does not list it yet, which
// happens until the participant has sent a first message.
func (s *Session) Conversations(ctx context.Context) ([]wire.Conversation, error) {
	listed, err := s.client.ListConversations(ctx, s.self)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if active == "" {
		return listed, nil
	}
	for _, c := range listed {
		if c.Conversation == active {
			return listed, nil
		}
	}
	return append([]wire.Conversation{{
		Conversation:     active,
		OtherParticipant: domain.OtherParticipant(active, s.self),
		LastTimestamp:    time.Now().UnixMilli(),
	}}, listed...), nil
}

// Messages returns a snapshot of the rendered view of a conversation.
func (s *Session) Messages(conversation string) []wire.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	timeline, ok := s.timelines[conversation]
	if !ok {
		return nil
	}
	out := make([]wire.Message, len(timeline.Messages))
	copy(out, timeline.Messages)
	return out
}

// Watermark returns the highest timestamp rendered for a conversation.
func (s *Session) Watermark(conversation string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	timeline, ok := s.timelines[conversation]
	if !ok {
		return 0
	}
	return timeline.Watermark()
}

func (s *Session) poll(ctx context.Context, generation int, conversation string,
	timeline *projection.Timeline) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, generation, conversation, timeline)
		}
	}
}

// tick issues one delta fetch. A failed tick is logged and skipped; the loop
// keeps scheduling. A response that lands after the session moved on is
// discarded.
func (s *Session) tick(ctx context.Context, generation int, conversation string,
	timeline *projection.Timeline) {
	s.mu.Lock()
	since := timeline.Watermark()
	s.mu.Unlock()

	delta, err := s.client.ListMessages(ctx, conversation, &since, 0)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Warn("poll tick failed", "conversation", conversation, "error", err)
		return
	}
	s.deliver(s.applyIfCurrent(generation, timeline, delta))
}

// applyIfCurrent merges a batch only when the session still runs the
// generation the fetch was issued for.
func (s *Session) applyIfCurrent(generation int, timeline *projection.Timeline,
	batch []wire.Message) []wire.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		return nil
	}
	return timeline.Apply(batch)
}

func (s *Session) apply(timeline *projection.Timeline, batch []wire.Message) []wire.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return timeline.Apply(batch)
}

func (s *Session) deliver(appended []wire.Message) {
	if s.onMessage == nil {
		return
	}
	for _, msg := range appended {
		s.onMessage(msg)
	}
}

// stopLocked cancels the live poll task. Callers hold s.mu.
func (s *Session) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
