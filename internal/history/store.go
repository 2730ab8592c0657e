// Package history holds the ordered chat transcripts of the current session.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/saithsab877/hivechat/internal/api"
	apierrors "github.com/saithsab877/hivechat/internal/errors"
	"github.com/saithsab877/hivechat/internal/logging"
	"github.com/saithsab877/hivechat/internal/models"
)

// Store keeps chat messages per chat in arrival order. It is created once
// at start-up and shared by reference; the REST client backs its load,
// send and title operations.
type Store struct {
	client       api.ClientInterface
	logger       *slog.Logger
	historyLimit int

	mu       sync.RWMutex
	messages map[string][]models.ChatMessage
	chats    map[string]models.Chat
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithLogger sets the diagnostic logger
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = l
	}
}

// WithHistoryLimit sets the page size used when loading history
func WithHistoryLimit(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// NewStore creates an empty store backed by client
func NewStore(client api.ClientInterface, opts ...StoreOption) *Store {
	s := &Store{
		client:       client,
		historyLimit: models.DefaultHistoryLimit,
		messages:     make(map[string][]models.ChatMessage),
		chats:        make(map[string]models.Chat),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDiscard(s.logger)
	return s
}

// LoadChatHistory fetches the stored messages of a chat. Messages that
// arrived over the socket before the fetch completed and are not part of
// the fetched page are kept after it, in their arrival order.
func (s *Store) LoadChatHistory(ctx context.Context, chatID string) error {
	fetched, err := s.client.ChatHistory(ctx, chatID, s.historyLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to load chat history: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(fetched))
	merged := make([]models.ChatMessage, 0, len(fetched))
	for _, m := range fetched {
		if m.ChatID == "" {
			m.ChatID = chatID
		}
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		merged = append(merged, m)
	}
	for _, m := range s.messages[chatID] {
		if !seen[m.ID] {
			merged = append(merged, m)
		}
	}
	s.messages[chatID] = merged

	s.logger.Debug("chat history loaded", "chat_id", chatID, "fetched", len(fetched), "total", len(merged))
	return nil
}

// LoadChat fetches a chat's metadata and caches it
func (s *Store) LoadChat(ctx context.Context, chatID string) (models.Chat, error) {
	chat, err := s.client.GetChat(ctx, chatID)
	if err != nil {
		return models.Chat{}, fmt.Errorf("failed to load chat: %w", err)
	}
	if chat == nil {
		chat = &models.Chat{}
	}
	if chat.ID == "" {
		chat.ID = chatID
	}

	s.mu.Lock()
	s.chats[chatID] = *chat
	s.mu.Unlock()
	return *chat, nil
}

// LoadChats fetches the chats of a workspace, most recently updated first
func (s *Store) LoadChats(ctx context.Context, workspaceID string) ([]models.Chat, error) {
	chats, err := s.client.ListChats(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}

	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})

	s.mu.Lock()
	for _, c := range chats {
		s.chats[c.ID] = c
	}
	s.mu.Unlock()

	return chats, nil
}

// GetChat returns the cached chat metadata
func (s *Store) GetChat(chatID string) (models.Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats[chatID]
	return c, ok
}

// Messages returns a copy of a chat's messages in order
func (s *Store) Messages(chatID string) []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ChatMessage(nil), s.messages[chatID]...)
}

// Len returns the number of messages in a chat
func (s *Store) Len(chatID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages[chatID])
}

// AddMessage appends msg to the chat. A message whose id is already
// present replaces the stored one in place instead, so a send echo and the
// socket copy of the same message never produce duplicates. It reports
// whether the list grew.
func (s *Store) AddMessage(chatID string, msg models.ChatMessage) bool {
	if msg.ChatID == "" {
		msg.ChatID = chatID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.messages[chatID]
	for i := range list {
		if list[i].ID == msg.ID {
			list[i] = mergeMessage(list[i], msg)
			return false
		}
	}
	s.messages[chatID] = append(list, msg)
	return true
}

// UpdateMessage patches the message with the given id. It never creates a
// message; the result reports whether one was found.
func (s *Store) UpdateMessage(chatID, id string, update models.ChatMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.messages[chatID]
	for i := range list {
		if list[i].ID == id {
			list[i] = mergeMessage(list[i], update)
			return true
		}
	}
	return false
}

// SendMessage sends a user message and stores the server's copy
func (s *Store) SendMessage(ctx context.Context, req models.SendRequest) (models.ChatMessage, error) {
	if strings.TrimSpace(req.Message) == "" {
		return models.ChatMessage{}, apierrors.ErrEmptyMessage
	}

	msg, err := s.client.SendMessage(ctx, req)
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("failed to send message: %w", err)
	}
	if msg == nil || msg.ID == "" {
		return models.ChatMessage{}, apierrors.NewParseError("send message: response has no message id", "")
	}

	s.AddMessage(req.ChatID, *msg)
	s.logger.Info("message sent", "chat_id", req.ChatID, "message_id", msg.ID, "model", req.ModelSelection)
	return *msg, nil
}

// UpdateChatTitle writes a new title and updates the cached chat
func (s *Store) UpdateChatTitle(ctx context.Context, chatID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title is empty")
	}

	if _, err := s.client.UpdateChatTitle(ctx, chatID, title); err != nil {
		return fmt.Errorf("failed to update chat title: %w", err)
	}

	s.mu.Lock()
	c := s.chats[chatID]
	c.ID = chatID
	c.Title = title
	s.chats[chatID] = c
	s.mu.Unlock()

	s.logger.Info("chat title updated", "chat_id", chatID)
	return nil
}

// mergeMessage applies the non-empty fields of update onto base. The body
// is always taken from update so a stream can shrink or clear it.
func mergeMessage(base, update models.ChatMessage) models.ChatMessage {
	base.Message = update.Message
	if update.Role != "" {
		base.Role = update.Role
	}
	if update.Status != "" {
		base.Status = update.Status
	}
	if update.Source != "" {
		base.Source = update.Source
	}
	if !update.Timestamp.IsZero() {
		base.Timestamp = update.Timestamp
	}
	if update.WorkspaceUUID != "" {
		base.WorkspaceUUID = update.WorkspaceUUID
	}
	return base
}
