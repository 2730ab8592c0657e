package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/saithsab877/hivechat/internal/models"
	"github.com/saithsab877/hivechat/internal/planner"
)

func boardCards() []models.BountyCard {
	auth := models.Named{UUID: "f-auth", Name: "Auth"}
	return []models.BountyCard{
		{ID: "b1", Title: "Login form", Status: models.StatusTodo, Features: auth, Phase: models.Named{UUID: "p1", Name: "MVP"}, AssigneeName: "ana"},
		{ID: "b2", Title: "Password reset", Status: models.StatusInProgress, Features: auth, Phase: models.Named{UUID: "p2", Name: "Beta"}},
		{ID: "b3", Title: "Invoices", Status: models.StatusTodo, Features: models.Named{UUID: "f-bill", Name: "Billing"}},
		{ID: "b4", Title: "Logo", Status: models.StatusPaid},
	}
}

func newTestBoard(t *testing.T) BoardModel {
	t.Helper()
	m := NewBoardModel(boardCards(), nil, nil)
	return updateBoard(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

func updateBoard(t *testing.T, m BoardModel, msg tea.Msg) BoardModel {
	t.Helper()
	next, _ := m.Update(msg)
	bm, ok := next.(BoardModel)
	if !ok {
		t.Fatalf("Update returned %T, want BoardModel", next)
	}
	return bm
}

func pressBoard(t *testing.T, m BoardModel, keys ...tea.KeyMsg) BoardModel {
	t.Helper()
	for _, k := range keys {
		m = updateBoard(t, m, k)
	}
	return m
}

var (
	tabKey   = tea.KeyMsg{Type: tea.KeyTab}
	spaceKey = tea.KeyMsg{Type: tea.KeySpace}
	downKey  = tea.KeyMsg{Type: tea.KeyDown}
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
)

func visibleIDs(m BoardModel) []string {
	var ids []string
	for _, c := range m.Visible() {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestBoardModel_FeatureEnablesPhases(t *testing.T) {
	m := newTestBoard(t)
	if len(m.options(panePhases)) != 0 {
		t.Fatal("phases should be unavailable before a feature is chosen")
	}

	// options: No Feature, Auth, Billing
	m = pressBoard(t, m, downKey, spaceKey)
	if got := m.Filters().Features(); len(got) != 1 || got[0] != "f-auth" {
		t.Fatalf("features = %v, want [f-auth]", got)
	}
	if got := strings.Join(visibleIDs(m), ","); got != "b1,b2" {
		t.Errorf("visible = %s, want b1,b2", got)
	}

	// phases: Beta, MVP
	m = pressBoard(t, m, tabKey, downKey, spaceKey)
	if got := strings.Join(visibleIDs(m), ","); got != "b1" {
		t.Errorf("visible = %s, want b1", got)
	}

	m = pressBoard(t, m, keyMsg("c"))
	if len(m.Filters().Phases()) != 0 {
		t.Error("c should clear the phase pane")
	}

	m = pressBoard(t, m, tea.KeyMsg{Type: tea.KeyShiftTab}, spaceKey)
	if m.Filters().Active() {
		t.Error("toggling the feature again should clear every filter")
	}
}

func TestBoardModel_ClearFeaturesDropsPhases(t *testing.T) {
	m := newTestBoard(t)
	m = pressBoard(t, m, downKey, spaceKey, tabKey, spaceKey)
	if len(m.Filters().Phases()) != 1 {
		t.Fatalf("phases = %v", m.Filters().Phases())
	}

	m = pressBoard(t, m, tea.KeyMsg{Type: tea.KeyShiftTab}, keyMsg("c"))
	if m.Filters().Active() {
		t.Error("clearing features should also clear phases")
	}
}

func TestBoardModel_Statuses(t *testing.T) {
	m := newTestBoard(t)
	m = pressBoard(t, m, tabKey, tabKey, spaceKey)
	if got := strings.Join(visibleIDs(m), ","); got != "b1,b3" {
		t.Errorf("visible = %s, want the TODO cards", got)
	}

	m = pressBoard(t, m, keyMsg("k"), spaceKey)
	if got := m.Filters().Statuses(); len(got) != 2 {
		t.Errorf("statuses = %v, cursor should wrap to PAID", got)
	}

	m = pressBoard(t, m, keyMsg("c"))
	if len(m.Visible()) != 4 {
		t.Error("c should clear the statuses")
	}
}

func TestBoardModel_SearchDebounce(t *testing.T) {
	m := newTestBoard(t)
	m = pressBoard(t, m, tabKey, tabKey, tabKey)
	m = pressBoard(t, m, keyMsg("l"), keyMsg("o"), keyMsg("g"))

	if m.search.Value() != "log" || m.Filters().Draft() != "log" {
		t.Fatalf("draft = %q", m.Filters().Draft())
	}
	if m.Filters().Search() != "" {
		t.Error("typed text should wait for the debounce")
	}
	if !strings.Contains(m.View(), "(pending)") {
		t.Error("view should mark the search as pending")
	}

	// one schedule per keystroke; only the latest applies
	m = updateBoard(t, m, searchApplyMsg{seq: 2})
	if m.Filters().Search() != "" {
		t.Error("a superseded keystroke should not apply")
	}
	m = updateBoard(t, m, searchApplyMsg{seq: 3})
	if m.Filters().Search() != "log" {
		t.Fatalf("search = %q, want log", m.Filters().Search())
	}
	if got := strings.Join(visibleIDs(m), ","); got != "b1,b4" {
		t.Errorf("visible = %s, want b1,b4", got)
	}
}

func TestBoardModel_EnterAppliesSearchAtOnce(t *testing.T) {
	m := newTestBoard(t)
	m = pressBoard(t, m, tabKey, tabKey, tabKey, keyMsg("a"), keyMsg("n"), keyMsg("a"), enterKey)

	if m.Filters().Search() != "ana" {
		t.Fatalf("search = %q, want ana", m.Filters().Search())
	}
	m = updateBoard(t, m, searchApplyMsg{seq: 3})
	if got := strings.Join(visibleIDs(m), ","); got != "b1" {
		t.Errorf("visible = %s, want b1", got)
	}
}

func TestBoardModel_SearchPaneTakesLetters(t *testing.T) {
	m := newTestBoard(t)
	m = pressBoard(t, m, tabKey, tabKey, tabKey)

	next, cmd := m.Update(keyMsg("q"))
	if _, ok := findMsg[tea.QuitMsg](collect(cmd)); ok {
		t.Error("q in the search pane should be typed, not quit")
	}
	if next.(BoardModel).search.Value() != "q" {
		t.Errorf("search = %q", next.(BoardModel).search.Value())
	}

	m = pressBoard(t, m, tabKey)
	_, cmd = m.Update(keyMsg("q"))
	if _, ok := findMsg[tea.QuitMsg](collect(cmd)); !ok {
		t.Error("q outside the search pane should quit")
	}
}

func TestBoardModel_StartsFromGivenFilters(t *testing.T) {
	f := &planner.Filters{}
	f.ToggleStatus(models.StatusPaid)
	m := NewBoardModel(boardCards(), f, nil)
	m = updateBoard(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	if got := strings.Join(visibleIDs(m), ","); got != "b4" {
		t.Errorf("visible = %s, want b4", got)
	}
	view := m.View()
	for _, want := range []string{"Board", "1 of 4 bounties", "Logo", "select a feature first"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestBoardModel_NoMatches(t *testing.T) {
	f := &planner.Filters{}
	f.ToggleFeature(planner.NoFeatureID)
	f.ToggleStatus(models.StatusTodo)
	m := updateBoard(t, NewBoardModel(boardCards(), f, nil), tea.WindowSizeMsg{Width: 120, Height: 40})

	if !strings.Contains(m.View(), "No bounties match (4 total).") {
		t.Error("empty result should be reported")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncate("héllo wörld", 6); got != "héllo…" {
		t.Errorf("got %q", got)
	}
}
