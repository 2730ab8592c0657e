package api

import (
	"context"
	"sync"

	"github.com/saithsab877/hivechat/internal/models"
)

// MockClient is a mock implementation of ClientInterface for testing
type MockClient struct {
	mu sync.Mutex

	// Mock return values
	History       []models.ChatMessage
	HistoryErr    error
	Chat          *models.Chat
	ChatErr       error
	Chats         []models.Chat
	ChatsErr      error
	SendVal       *models.ChatMessage
	SendErr       error
	UpdateTitle   *models.Chat
	UpdateErr     error
	LogsPage      *models.LogsPage
	LogsErr       error
	Cards         []models.BountyCard
	CardsErr      error

	// SendFunc, when set, overrides SendVal/SendErr
	SendFunc func(req models.SendRequest) (*models.ChatMessage, error)

	// Call counters/recorders
	SendCalls     []models.SendRequest
	TitleCalls    []string
	HistoryCalls  int
	LogsCalls     int
	CloseCalled   bool
	LastWorkspace string
}

var _ ClientInterface = (*MockClient)(nil)

func (m *MockClient) ChatHistory(ctx context.Context, chatID string, limit, offset int) ([]models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HistoryCalls++
	if m.HistoryErr != nil {
		return nil, m.HistoryErr
	}
	out := make([]models.ChatMessage, len(m.History))
	copy(out, m.History)
	return out, nil
}

func (m *MockClient) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Chat, m.ChatErr
}

func (m *MockClient) ListChats(ctx context.Context, workspaceID string) ([]models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastWorkspace = workspaceID
	return m.Chats, m.ChatsErr
}

func (m *MockClient) SendMessage(ctx context.Context, req models.SendRequest) (*models.ChatMessage, error) {
	m.mu.Lock()
	m.SendCalls = append(m.SendCalls, req)
	fn := m.SendFunc
	val, err := m.SendVal, m.SendErr
	m.mu.Unlock()

	if fn != nil {
		return fn(req)
	}
	return val, err
}

func (m *MockClient) UpdateChatTitle(ctx context.Context, chatID, title string) (*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TitleCalls = append(m.TitleCalls, title)
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	if m.UpdateTitle != nil {
		return m.UpdateTitle, nil
	}
	return &models.Chat{ID: chatID, Title: title}, nil
}

func (m *MockClient) ChatLogs(ctx context.Context, chatID string, limit, offset int) (*models.LogsPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LogsCalls++
	return m.LogsPage, m.LogsErr
}

func (m *MockClient) BountyCards(ctx context.Context, workspaceUUID string) ([]models.BountyCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastWorkspace = workspaceUUID
	return m.Cards, m.CardsErr
}

func (m *MockClient) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
}

// SendCount returns the number of SendMessage calls so far
func (m *MockClient) SendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SendCalls)
}

// TitleWrites returns the titles written so far
func (m *MockClient) TitleWrites() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.TitleCalls...)
}
