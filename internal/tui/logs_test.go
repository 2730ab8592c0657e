package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/saithsab877/hivechat/internal/api"
	"github.com/saithsab877/hivechat/internal/models"
)

func logRecord(id, text string, sec int) models.SSEMessage {
	return models.SSEMessage{ID: id, Event: models.SSEEvent{Message: text}, UpdatedAt: ts(sec)}
}

func updateLogs(t *testing.T, m LogsModel, msg tea.Msg) (LogsModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	lm, ok := next.(LogsModel)
	if !ok {
		t.Fatalf("Update returned %T, want LogsModel", next)
	}
	return lm, cmd
}

func loadedLogs(t *testing.T, page *models.LogsPage, err error) LogsModel {
	t.Helper()
	client := &api.MockClient{LogsPage: page, LogsErr: err}
	m := NewLogsModel(client, "chat-1", 0, nil)
	m, _ = updateLogs(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	msgs := collect(m.Init())
	loaded, ok := findMsg[logsLoadedMsg](msgs)
	if !ok {
		t.Fatal("Init should load logs")
	}
	m, _ = updateLogs(t, m, loaded)
	return m
}

func TestSortLogs(t *testing.T) {
	in := []models.SSEMessage{
		logRecord("a", "old", 1),
		logRecord("b", "new", 3),
		logRecord("c", "mid", 2),
	}
	got := SortLogs(in)

	want := []string{"new", "mid", "old"}
	for i, w := range want {
		if got[i].Text() != w {
			t.Errorf("SortLogs()[%d] = %q, want %q", i, got[i].Text(), w)
		}
	}
	if in[0].ID != "a" {
		t.Error("SortLogs should not modify its input")
	}
}

func TestLogsModel_NoLogs(t *testing.T) {
	m := loadedLogs(t, &models.LogsPage{}, nil)
	if !strings.Contains(m.View(), NoLogsText) {
		t.Errorf("View() should contain %q", NoLogsText)
	}

	// copy with nothing to copy is ignored
	_, cmd := updateLogs(t, m, keyMsg("c"))
	if cmd != nil {
		t.Error("copy with no logs should do nothing")
	}
}

func TestLogsModel_Error(t *testing.T) {
	m := loadedLogs(t, nil, errors.New("boom"))
	if m.err == nil {
		t.Fatal("err should be set")
	}
	if !strings.Contains(m.View(), "boom") {
		t.Error("View() should show the error")
	}
}

func TestLogsModel_CopyAll(t *testing.T) {
	var written []string
	orig := writeClipboard
	writeClipboard = func(s string) error {
		written = append(written, s)
		return nil
	}
	t.Cleanup(func() { writeClipboard = orig })

	page := &models.LogsPage{Total: 2, Messages: []models.SSEMessage{
		logRecord("1", "build finished", 2),
		logRecord("2", "build started", 3),
	}}
	m := loadedLogs(t, page, nil)

	if got := m.CopyText(); got != "build started\nbuild finished" {
		t.Fatalf("CopyText() = %q", got)
	}

	m, cmd := updateLogs(t, m, keyMsg("c"))
	copied, ok := findMsg[copiedMsg](collect(cmd))
	if !ok {
		t.Fatal("copy should produce copiedMsg")
	}
	if len(written) != 1 || written[0] != "build started\nbuild finished" {
		t.Fatalf("clipboard got %q", written)
	}

	m, cmd = updateLogs(t, m, copied)
	if !m.copied {
		t.Fatal("copied indicator should be shown")
	}
	if cmd == nil {
		t.Fatal("copied indicator should schedule its reset")
	}
	if !strings.Contains(m.View(), "Copied!") {
		t.Error("View() should show the copied indicator")
	}

	// a stale reset does not clear a newer indicator
	m, _ = updateLogs(t, m, copiedResetMsg{id: m.copiedID - 1})
	if !m.copied {
		t.Error("stale reset should be ignored")
	}

	m, _ = updateLogs(t, m, copiedResetMsg{id: m.copiedID})
	if m.copied {
		t.Error("matching reset should clear the indicator")
	}
}

func TestLogsModel_CopyFailure(t *testing.T) {
	orig := writeClipboard
	writeClipboard = func(string) error { return errors.New("no clipboard") }
	t.Cleanup(func() { writeClipboard = orig })

	page := &models.LogsPage{Messages: []models.SSEMessage{logRecord("1", "x", 1)}}
	m := loadedLogs(t, page, nil)

	_, cmd := updateLogs(t, m, keyMsg("y"))
	copied, _ := findMsg[copiedMsg](collect(cmd))
	m, _ = updateLogs(t, m, copied)
	if m.copied || m.copyErr == nil {
		t.Error("failed copy should show an error, not the copied indicator")
	}
	if !strings.Contains(m.View(), "Copy failed") {
		t.Error("View() should show the copy error")
	}
}

func TestLogsModel_CopiedDuration(t *testing.T) {
	if CopiedDuration != 2*time.Second {
		t.Errorf("CopiedDuration = %v, want 2s", CopiedDuration)
	}
}

func TestLogsModel_Refresh(t *testing.T) {
	client := &api.MockClient{LogsPage: &models.LogsPage{}}
	m := NewLogsModel(client, "chat-1", 10, nil)
	m, _ = updateLogs(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	// refresh is ignored while the first load is pending
	if _, cmd := updateLogs(t, m, keyMsg("r")); cmd != nil {
		t.Error("refresh while loading should do nothing")
	}

	m, _ = updateLogs(t, m, logsLoadedMsg{page: &models.LogsPage{}})
	m, cmd := updateLogs(t, m, keyMsg("r"))
	if !m.loading {
		t.Error("refresh should set loading")
	}
	if _, ok := findMsg[logsLoadedMsg](collect(cmd)); !ok {
		t.Error("refresh should reload logs")
	}
	if client.LogsCalls != 1 {
		t.Errorf("LogsCalls = %d, want 1", client.LogsCalls)
	}
}

func TestLogsModel_Quit(t *testing.T) {
	m := NewLogsModel(&api.MockClient{}, "chat-1", 0, nil)
	for _, k := range []string{"q", "esc"} {
		_, cmd := updateLogs(t, m, keyMsg(k))
		if _, ok := findMsg[tea.QuitMsg](collect(cmd)); !ok {
			t.Errorf("%s should quit", k)
		}
	}
}
