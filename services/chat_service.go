package services

import (
	"context"
	"log/slog"
	"strings"

	"httpchat/domain"
	"httpchat/domain/chat"
	"httpchat/errors"
	"httpchat/moderation"
	"httpchat/repositories"
	"httpchat/search"
)

type IChatService interface {
	Send(ctx context.Context, cmd chat.SendMessageCommand) (domain.Message, error)
	ListMessages(cmd chat.ListMessagesCommand) ([]domain.Message, error)
	ListConversations(cmd chat.ListConversationsCommand) ([]domain.ConversationSummary, error)
	SearchMessages(ctx context.Context, cmd chat.SearchMessagesCommand) ([]domain.Message, error)
}

// ChatService is the stateless operation surface clients synchronize
// against. Every request is independent; all state lives in the repository.
type ChatService struct {
	repository repositories.IMessageRepository
	moderator  *moderation.Moderator
	index      search.IMessageIndex
	log        *slog.Logger
}

// NewChatService wires the service. moderator and index may be nil, which
// disables censoring and search respectively.
func NewChatService(log *slog.Logger, repository repositories.IMessageRepository,
	moderator *moderation.Moderator, index search.IMessageIndex) *ChatService {
	return &ChatService{
		repository: repository,
		moderator:  moderator,
		index:      index,
		log:        log,
	}
}

// Send validates the asserted sender identity, censors the text when a
// dictionary is configured, and appends. The returned message carries the
// store-assigned id and timestamp the caller needs to advance its watermark
// without waiting for the next poll.
func (s *ChatService) Send(_ context.Context, cmd chat.SendMessageCommand) (domain.Message, error) {
	if strings.TrimSpace(cmd.Conversation) == "" {
		return domain.Message{}, errors.ErrEmptyConversation
	}
	from := domain.NormalizeAddress(cmd.From)
	if err := domain.ValidateAddress(from); err != nil {
		return domain.Message{}, err
	}

	text := cmd.Text
	if s.moderator != nil {
		text = s.moderator.Censor(text)
	}

	msg, err := s.repository.Append(cmd.Conversation, from, text)
	if err != nil {
		return domain.Message{}, err
	}

	if s.index != nil {
		// Index loss only degrades search results, never the log itself.
		if err := s.index.Index(msg); err != nil {
			s.log.Warn("failed to index message", "id", msg.ID, "error", err)
		}
	}
	return msg, nil
}

// ListMessages serves both read modes: a present Since selects the
// unbounded delta fetch, an absent one the bounded initial window.
// Both are side-effect-free and idempotent with respect to store state.
func (s *ChatService) ListMessages(cmd chat.ListMessagesCommand) ([]domain.Message, error) {
	if strings.TrimSpace(cmd.Conversation) == "" {
		return nil, errors.ErrEmptyConversation
	}
	if cmd.Since != nil {
		return s.repository.ListSince(cmd.Conversation, *cmd.Since)
	}
	return s.repository.ListRecent(cmd.Conversation, cmd.Limit)
}

func (s *ChatService) ListConversations(cmd chat.ListConversationsCommand) ([]domain.ConversationSummary, error) {
	from := domain.NormalizeAddress(cmd.From)
	if err := domain.ValidateAddress(from); err != nil {
		return nil, err
	}
	return s.repository.ListConversationsFor(from)
}

// SearchMessages runs a full-text query scoped to one conversation. An empty
// query or a missing index yields an empty result.
func (s *ChatService) SearchMessages(ctx context.Context, cmd chat.SearchMessagesCommand) ([]domain.Message, error) {
	if strings.TrimSpace(cmd.Conversation) == "" {
		return nil, errors.ErrEmptyConversation
	}
	if s.index == nil || strings.TrimSpace(cmd.Query) == "" {
		return nil, nil
	}
	limit := cmd.Limit
	if limit <= 0 {
		limit = repositories.DefaultWindow
	}
	if limit > repositories.MaxWindow {
		limit = repositories.MaxWindow
	}
	return s.index.Search(ctx, strings.TrimSpace(cmd.Conversation), cmd.Query, limit)
}
