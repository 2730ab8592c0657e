package tui

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/saithsab877/hivechat/internal/logging"
	"github.com/saithsab877/hivechat/internal/models"
)

// NoLogsText is shown when a chat has no stored log records
const NoLogsText = "No logs available."

// CopiedDuration is how long the copied indicator stays visible
const CopiedDuration = 2 * time.Second

// writeClipboard is replaced in tests
var writeClipboard = clipboard.WriteAll

// LogsFetcher loads stored log records of a chat
type LogsFetcher interface {
	ChatLogs(ctx context.Context, chatID string, limit, offset int) (*models.LogsPage, error)
}

// SortLogs orders records by update time, newest first
func SortLogs(msgs []models.SSEMessage) []models.SSEMessage {
	out := append([]models.SSEMessage(nil), msgs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// LogLines returns the message text of each record
func LogLines(msgs []models.SSEMessage) []string {
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = m.Text()
	}
	return lines
}

type (
	logsLoadedMsg struct {
		page *models.LogsPage
		err  error
	}
	copiedMsg struct{ err error }
	copiedResetMsg struct{ id int }
)

// LogsModel shows the stored log records of one chat
type LogsModel struct {
	fetcher LogsFetcher
	chatID  string
	limit   int
	logger  *slog.Logger

	viewport viewport.Model

	logs    []models.SSEMessage
	total   int
	loading bool
	err     error

	copied   bool
	copyErr  error
	copiedID int

	width  int
	height int
	ready  bool
}

// NewLogsModel creates a logs view for chatID; limit <= 0 uses the default
// page size.
func NewLogsModel(fetcher LogsFetcher, chatID string, limit int, logger *slog.Logger) LogsModel {
	if limit <= 0 {
		limit = models.DefaultLogsLimit
	}
	return LogsModel{
		fetcher: fetcher,
		chatID:  chatID,
		limit:   limit,
		logger:  logging.OrDiscard(logger).With("view", "logs", "chat_id", chatID),
		loading: true,
	}
}

// Init starts loading the logs
func (m LogsModel) Init() tea.Cmd {
	return m.load()
}

func (m LogsModel) load() tea.Cmd {
	fetcher, chatID, limit := m.fetcher, m.chatID, m.limit
	return func() tea.Msg {
		page, err := fetcher.ChatLogs(context.Background(), chatID, limit, 0)
		return logsLoadedMsg{page: page, err: err}
	}
}

// Update handles messages and updates the model
func (m LogsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w, h := max(msg.Width-4, 20), max(msg.Height-8, 3)
		if !m.ready {
			m.viewport = viewport.New(w, h)
			m.ready = true
		} else {
			m.viewport.Width = w
			m.viewport.Height = h
		}
		m.viewport.SetContent(m.content())

	case logsLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			m.logger.Error("logs load failed", "error", msg.err)
		} else if msg.page != nil {
			m.logs = SortLogs(msg.page.Messages)
			m.total = msg.page.Total
		}
		if m.ready {
			m.viewport.SetContent(m.content())
			m.viewport.GotoTop()
		}

	case copiedMsg:
		m.copied = msg.err == nil
		m.copyErr = msg.err
		if msg.err != nil {
			m.logger.Warn("copy to clipboard failed", "error", msg.err)
		}
		m.copiedID++
		id := m.copiedID
		return m, tea.Tick(CopiedDuration, func(time.Time) tea.Msg {
			return copiedResetMsg{id: id}
		})

	case copiedResetMsg:
		if msg.id == m.copiedID {
			m.copied = false
			m.copyErr = nil
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit
		case "c", "y":
			if m.loading || len(m.logs) == 0 {
				return m, nil
			}
			return m, m.copyAll()
		case "r":
			if !m.loading {
				m.loading = true
				m.err = nil
				return m, m.load()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// CopyText is the text the copy action writes: message texts joined by
// newlines, in display order.
func (m LogsModel) CopyText() string {
	return strings.Join(LogLines(m.logs), "\n")
}

func (m LogsModel) copyAll() tea.Cmd {
	text := m.CopyText()
	return func() tea.Msg {
		return copiedMsg{err: writeClipboard(text)}
	}
}

func (m LogsModel) content() string {
	if m.loading {
		return loadingStyle.Render("Loading logs...")
	}
	if m.err != nil {
		return FormatError(m.err)
	}
	if len(m.logs) == 0 {
		return hintStyle.Render(NoLogsText)
	}

	var b strings.Builder
	for i, l := range m.logs {
		if i > 0 {
			b.WriteString("\n")
		}
		if !l.UpdatedAt.IsZero() {
			b.WriteString(timeStyle.Render(l.UpdatedAt.Local().Format("15:04:05")))
			b.WriteString(" ")
		}
		b.WriteString(listItemStyle.Render(l.Text()))
	}
	return b.String()
}

// View renders the logs view
func (m LogsModel) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	width := m.viewport.Width
	title := titleStyle.Render("Logs")
	if len(m.logs) > 0 {
		title += hintStyle.Render(fmt.Sprintf("  %d of %d", len(m.logs), m.total))
	}

	feedback := ""
	switch {
	case m.copied:
		feedback = toastOkStyle.Render("✓ Copied!")
	case m.copyErr != nil:
		feedback = toastErrorStyle.Render("⚠ Copy failed: " + m.copyErr.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Width(width).Render(title),
		messagesAreaStyle.Width(width).Render(m.viewport.View()),
		feedback,
		renderShortcuts(width, []shortcut{
			{"c", "Copy all"},
			{"r", "Refresh"},
			{"↑↓", "Scroll"},
			{"q", "Quit"},
		}),
	)
}

// RunLogs runs the logs view until the user quits
func RunLogs(m LogsModel) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
