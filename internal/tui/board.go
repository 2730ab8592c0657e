package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/saithsab877/hivechat/internal/logging"
	"github.com/saithsab877/hivechat/internal/models"
	"github.com/saithsab877/hivechat/internal/planner"
)

// Board panes, in tab order
const (
	paneFeatures = iota
	panePhases
	paneStatuses
	paneSearch
	paneCount
)

var paneTitles = [paneCount]string{"Features", "Phases", "Statuses", "Search"}

type searchApplyMsg struct{ seq uint64 }

// BoardModel browses the bounty cards of a workspace and filters them by
// feature, phase, status and text as the user toggles values
type BoardModel struct {
	cards   []models.BountyCard
	filters *planner.Filters
	logger  *slog.Logger

	search  textinput.Model
	pane    int
	cursors [paneCount]int

	width  int
	height int
	ready  bool
}

// NewBoardModel creates a board view over cards, starting from filters
func NewBoardModel(cards []models.BountyCard, filters *planner.Filters, logger *slog.Logger) BoardModel {
	if filters == nil {
		filters = &planner.Filters{}
	}

	ti := textinput.New()
	ti.Placeholder = "title or assignee"
	ti.Prompt = ""
	ti.CharLimit = 100
	ti.SetValue(filters.Draft())

	return BoardModel{
		cards:   cards,
		filters: filters,
		logger:  logging.OrDiscard(logger).With("view", "board"),
		search:  ti,
	}
}

// Init implements tea.Model
func (m BoardModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case searchApplyMsg:
		if m.filters.ApplySearch(msg.seq) {
			m.logger.Debug("search applied", "search", m.filters.Search())
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			return m.focus((m.pane + 1) % paneCount)
		case "shift+tab":
			return m.focus((m.pane + paneCount - 1) % paneCount)
		}

		if m.pane == paneSearch {
			return m.updateSearch(msg)
		}

		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "up", "k":
			m.moveCursor(-1)
		case "down", "j":
			m.moveCursor(1)
		case " ", "enter":
			m.toggle()
		case "c":
			m.clear()
		}
	}
	return m, nil
}

func (m BoardModel) focus(pane int) (tea.Model, tea.Cmd) {
	m.pane = pane
	if pane == paneSearch {
		return m, m.search.Focus()
	}
	m.search.Blur()
	return m, nil
}

func (m BoardModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		if m.filters.SubmitSearch() {
			m.logger.Debug("search submitted", "search", m.filters.Search())
		}
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}

	seq := m.filters.TypeSearch(m.search.Value())
	apply := tea.Tick(planner.SearchDebounce, func(time.Time) tea.Msg {
		return searchApplyMsg{seq: seq}
	})
	return m, tea.Batch(cmd, apply)
}

// options returns the values offered by an option pane
func (m BoardModel) options(pane int) []planner.Option {
	switch pane {
	case paneFeatures:
		return planner.FeatureOptions(m.cards)
	case panePhases:
		if !m.filters.PhaseEnabled() {
			return nil
		}
		return planner.PhaseOptions(m.cards, m.filters.Features())
	case paneStatuses:
		return planner.StatusOptions()
	}
	return nil
}

func (m BoardModel) selected(pane int) map[string]bool {
	var ids []string
	switch pane {
	case paneFeatures:
		ids = m.filters.Features()
	case panePhases:
		ids = m.filters.Phases()
	case paneStatuses:
		ids = m.filters.Statuses()
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// cursor returns the pane's cursor kept inside its current options
func (m BoardModel) cursor(pane int) int {
	n := len(m.options(pane))
	if n == 0 {
		return 0
	}
	return min(max(m.cursors[pane], 0), n-1)
}

func (m *BoardModel) moveCursor(delta int) {
	n := len(m.options(m.pane))
	if n == 0 {
		return
	}
	m.cursors[m.pane] = (m.cursor(m.pane) + delta + n) % n
}

func (m *BoardModel) toggle() {
	opts := m.options(m.pane)
	if len(opts) == 0 {
		return
	}
	id := opts[m.cursor(m.pane)].ID
	switch m.pane {
	case paneFeatures:
		m.filters.ToggleFeature(id)
	case panePhases:
		m.filters.TogglePhase(id)
	case paneStatuses:
		m.filters.ToggleStatus(id)
	}
}

func (m *BoardModel) clear() {
	switch m.pane {
	case paneFeatures:
		m.filters.ClearFeatures()
	case panePhases:
		m.filters.ClearPhases()
	case paneStatuses:
		m.filters.ClearStatuses()
	}
}

// Visible returns the cards passing the applied filters
func (m BoardModel) Visible() []models.BountyCard {
	return m.filters.Apply(m.cards)
}

// Filters returns the filter state
func (m BoardModel) Filters() *planner.Filters {
	return m.filters
}

func (m BoardModel) renderPane(pane, width, rows int) string {
	head := paneTitles[pane]
	if pane == m.pane {
		head = cursorStyle.Render("▸ ") + listHeaderStyle.Render(head)
	} else {
		head = listHeaderStyle.Render("  " + head)
	}

	lines := []string{head}
	opts := m.options(pane)
	switch {
	case pane == panePhases && !m.filters.PhaseEnabled():
		lines = append(lines, hintStyle.Render("  select a feature first"))
	case len(opts) == 0:
		lines = append(lines, hintStyle.Render("  none"))
	}

	chosen := m.selected(pane)
	cur := m.cursor(pane)
	start := max(0, min(cur-rows+1, len(opts)-rows))
	for i := start; i < len(opts) && i < start+rows; i++ {
		box := "[ ] "
		if chosen[opts[i].ID] {
			box = "[x] "
		}
		line := truncate(box+opts[i].Label, width-2)
		if pane == m.pane && i == cur {
			lines = append(lines, listSelectedStyle.Render(line))
		} else {
			lines = append(lines, listItemStyle.Render(line))
		}
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

func (m BoardModel) renderCards(cards []models.BountyCard, rows int) string {
	if len(cards) == 0 {
		return hintStyle.Render(fmt.Sprintf("No bounties match (%d total).", len(m.cards)))
	}

	lines := make([]string, 0, min(len(cards), rows)+1)
	for i, c := range cards {
		if i == rows {
			lines = append(lines, hintStyle.Render(fmt.Sprintf("… %d more", len(cards)-rows)))
			break
		}
		status := strings.ToUpper(c.Status)
		if status == "" {
			status = "-"
		}
		meta := strings.Trim(strings.Join([]string{c.Features.Name, c.Phase.Name, c.AssigneeName}, " · "), " ·")
		lines = append(lines, fmt.Sprintf("%s  %s  %s",
			timeStyle.Render(fmt.Sprintf("%-11s", status)),
			listItemStyle.Render(truncate(c.Title, 48)),
			hintStyle.Render(meta),
		))
	}
	return strings.Join(lines, "\n")
}

// View renders the board
func (m BoardModel) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	width := max(m.width-4, 40)
	visible := m.Visible()

	title := titleStyle.Render("Board") +
		hintStyle.Render(fmt.Sprintf("  %d of %d bounties", len(visible), len(m.cards)))

	paneRows := 6
	colWidth := width / 3
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderPane(paneFeatures, colWidth, paneRows),
		m.renderPane(panePhases, colWidth, paneRows),
		m.renderPane(paneStatuses, colWidth, paneRows),
	)

	searchHead := "  " + paneTitles[paneSearch] + ": "
	if m.pane == paneSearch {
		searchHead = cursorStyle.Render("▸ ") + paneTitles[paneSearch] + ": "
	}
	searchLine := inputLabelStyle.Render(searchHead) + m.search.View()
	if m.filters.Draft() != m.filters.Search() {
		searchLine += hintStyle.Render("  (pending)")
	}

	cardRows := max(m.height-paneRows-12, 3)
	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Width(width).Render(title),
		listPanelStyle.Width(width).Render(panes+"\n\n"+searchLine),
		messagesAreaStyle.Width(width).Render(m.renderCards(visible, cardRows)),
		renderShortcuts(width, []shortcut{
			{"Tab", "Pane"},
			{"↑↓", "Move"},
			{"Space", "Toggle"},
			{"c", "Clear"},
			{"Enter", "Search now"},
			{"Esc", "Quit"},
		}),
	)
}

// RunBoard runs the board view until the user quits
func RunBoard(m BoardModel) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// truncate cuts s to n runes, marking the cut with an ellipsis
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
