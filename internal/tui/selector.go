package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/saithsab877/hivechat/internal/models"
)

// ChatLister lists the chats of a workspace, most recently updated first
type ChatLister interface {
	LoadChats(ctx context.Context, workspaceID string) ([]models.Chat, error)
}

type chatsLoadedMsg struct {
	chats []models.Chat
	err   error
}

// ChatSelectorModel lets the user pick a chat of a workspace
type ChatSelectorModel struct {
	lister    ChatLister
	workspace string
	now       func() time.Time

	chats  []models.Chat
	cursor int
	filter string

	loading   bool
	err       error
	confirmed bool
	selected  models.Chat

	width  int
	height int
	ready  bool
}

// NewChatSelectorModel creates a selector for the chats of workspace
func NewChatSelectorModel(lister ChatLister, workspace string) ChatSelectorModel {
	return ChatSelectorModel{
		lister:    lister,
		workspace: workspace,
		now:       time.Now,
		loading:   true,
	}
}

// Init starts loading the chats
func (m ChatSelectorModel) Init() tea.Cmd {
	lister, workspace := m.lister, m.workspace
	return func() tea.Msg {
		chats, err := lister.LoadChats(context.Background(), workspace)
		return chatsLoadedMsg{chats: chats, err: err}
	}
}

// Update handles messages and updates the model
func (m ChatSelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case chatsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.chats = msg.chats

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.loading {
			return m, nil
		}

		visible := m.visible()
		switch msg.String() {
		case "esc":
			if m.filter != "" {
				m.filter = ""
				m.cursor = 0
				return m, nil
			}
			return m, tea.Quit

		case "up", "ctrl+p":
			if len(visible) > 0 {
				m.cursor = (m.cursor - 1 + len(visible)) % len(visible)
			}

		case "down", "ctrl+n":
			if len(visible) > 0 {
				m.cursor = (m.cursor + 1) % len(visible)
			}

		case "home":
			m.cursor = 0

		case "end":
			m.cursor = max(len(visible)-1, 0)

		case "enter":
			if m.cursor < len(visible) {
				m.selected = visible[m.cursor]
				m.confirmed = true
				return m, tea.Quit
			}

		case "backspace":
			if m.filter != "" {
				r := []rune(m.filter)
				m.filter = string(r[:len(r)-1])
				m.cursor = 0
			}

		default:
			if msg.Type == tea.KeyRunes {
				m.filter += string(msg.Runes)
				m.cursor = 0
			}
		}
	}

	return m, nil
}

// visible returns the chats whose title or id contains the filter
func (m ChatSelectorModel) visible() []models.Chat {
	if m.filter == "" {
		return m.chats
	}
	q := strings.ToLower(m.filter)
	var out []models.Chat
	for _, c := range m.chats {
		if strings.Contains(strings.ToLower(c.Title), q) || strings.Contains(strings.ToLower(c.ID), q) {
			out = append(out, c)
		}
	}
	return out
}

// View renders the selector
func (m ChatSelectorModel) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}
	if m.loading {
		return loadingStyle.Render("  Loading chats...")
	}
	if m.err != nil {
		return FormatError(m.err)
	}

	width := max(m.width-4, 40)

	header := listHeaderStyle.Width(width).Render("Select Chat" + hintStyle.Render("  "+m.workspace))

	lines := []string{}
	if m.filter != "" {
		lines = append(lines, inputLabelStyle.Render("Filter:")+m.filter+"_", "")
	}

	visible := m.visible()
	if len(visible) == 0 {
		lines = append(lines, hintStyle.Render("  No chats found"))
	} else {
		maxItems := max(5, m.height-10)
		offset := 0
		if m.cursor >= maxItems {
			offset = m.cursor - maxItems + 1
		}
		end := min(offset+maxItems, len(visible))

		if offset > 0 {
			lines = append(lines, hintStyle.Render("  ..."))
		}
		for i := offset; i < end; i++ {
			lines = append(lines, m.renderItem(i, visible[i]))
		}
		if end < len(visible) {
			lines = append(lines, hintStyle.Render("  ..."))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		listPanelStyle.Width(width).Render(strings.Join(lines, "\n")),
		renderShortcuts(width, []shortcut{
			{"↑↓", "Navigate"},
			{"Type", "Filter"},
			{"Enter", "Open"},
			{"Esc", "Quit"},
		}),
	)
}

func (m ChatSelectorModel) renderItem(i int, c models.Chat) string {
	cursor := "  "
	style := listItemStyle
	if i == m.cursor {
		cursor = cursorStyle.Render("> ")
		style = listSelectedStyle
	}

	title := c.Title
	if title == "" {
		title = c.ID
	}
	line := cursor + style.Render(title)
	if ago := relativeTime(m.now(), c.UpdatedAt); ago != "" {
		line += timeStyle.Render(" - " + ago)
	}
	return line
}

// relativeTime formats t relative to now, or "" for a zero time
func relativeTime(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

// Result returns the chosen chat and whether the user confirmed one
func (m ChatSelectorModel) Result() (models.Chat, bool) {
	return m.selected, m.confirmed
}

// RunChatSelector runs the selector and returns the chosen chat
func RunChatSelector(lister ChatLister, workspace string) (models.Chat, bool, error) {
	p := tea.NewProgram(NewChatSelectorModel(lister, workspace), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return models.Chat{}, false, err
	}
	if sm, ok := final.(ChatSelectorModel); ok {
		c, confirmed := sm.Result()
		return c, confirmed, nil
	}
	return models.Chat{}, false, nil
}
