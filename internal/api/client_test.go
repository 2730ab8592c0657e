package api

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	apierrors "github.com/saithsab877/hivechat/internal/errors"
	"github.com/saithsab877/hivechat/internal/models"
)

func newTestClient(t *testing.T, hc *MockHttpClient) *Client {
	t.Helper()
	c, err := NewClient("https://hive.test", "jwt-token", WithHTTPClient(hc))
	if err != nil {
		t.Fatalf("NewClient() returned error: %v", err)
	}
	return c
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		token    string
		wantErr  bool
		wantAuth bool
	}{
		{"valid", "https://hive.test", "tok", false, false},
		{"missing token", "https://hive.test", "", true, true},
		{"bad url", "not a url", "tok", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.baseURL, tt.token, WithHTTPClient(NewMockHttpClient(nil, 200)))
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewClient() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantAuth && !apierrors.IsAuthError(err) {
				t.Errorf("expected auth error, got %v", err)
			}
			if err == nil && c.BaseURL() != tt.baseURL {
				t.Errorf("BaseURL() = %s", c.BaseURL())
			}
		})
	}
}

func TestClient_Headers(t *testing.T) {
	hc := NewMockHttpClient([]byte(`{"success":true,"data":[]}`), 200)
	c := newTestClient(t, hc)

	if _, err := c.ChatHistory(context.Background(), "chat-1", 50, 10); err != nil {
		t.Fatalf("ChatHistory() returned error: %v", err)
	}

	req := hc.LastRequest()
	if req == nil {
		t.Fatal("no request recorded")
	}
	if got := req.Header.Get("x-jwt"); got != "jwt-token" {
		t.Errorf("x-jwt = %q", got)
	}
	if _, err := uuid.Parse(req.Header.Get("X-Request-ID")); err != nil {
		t.Errorf("X-Request-ID is not a uuid: %q", req.Header.Get("X-Request-ID"))
	}
	if req.URL.Path != "/hivechat/history/chat-1" {
		t.Errorf("path = %s", req.URL.Path)
	}
	if q := req.URL.Query(); q.Get("limit") != "50" || q.Get("offset") != "10" {
		t.Errorf("query = %v", q)
	}
}

func TestClient_ChatHistory(t *testing.T) {
	body := `{"success":true,"data":[
		{"id":"m1","chat_id":"c","message":"hello","role":"user"},
		{"id":"m2","chat_id":"c","message":"hi there","role":"assistant"}
	]}`
	c := newTestClient(t, NewMockHttpClient([]byte(body), 200))

	msgs, err := c.ChatHistory(context.Background(), "c", 0, 0)
	if err != nil {
		t.Fatalf("ChatHistory() returned error: %v", err)
	}
	if len(msgs) != 2 || msgs[0].ID != "m1" || msgs[1].Message != "hi there" {
		t.Errorf("msgs = %+v", msgs)
	}
}

func TestClient_ChatHistory_NullData(t *testing.T) {
	c := newTestClient(t, NewMockHttpClient([]byte(`{"success":true,"data":null}`), 200))

	msgs, err := c.ChatHistory(context.Background(), "c", 0, 0)
	if err != nil {
		t.Fatalf("ChatHistory() returned error: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected no messages, got %d", len(msgs))
	}
}

func TestClient_SendMessage(t *testing.T) {
	hc := NewMockHttpClient([]byte(`{"success":true,"data":{"id":"m9","message":"ping","role":"user"}}`), 200)
	c := newTestClient(t, hc)

	msg, err := c.SendMessage(context.Background(), models.SendRequest{
		ChatID:            "c1",
		Message:           "ping",
		SourceWebsocketID: "sock-1",
		WorkspaceUUID:     "ws-1",
		ModelSelection:    "gpt-4o",
	})
	if err != nil {
		t.Fatalf("SendMessage() returned error: %v", err)
	}
	if msg.ID != "m9" {
		t.Errorf("msg.ID = %s", msg.ID)
	}

	req := hc.LastRequest()
	if req.Method != "POST" || req.URL.Path != models.PathSend {
		t.Errorf("request = %s %s", req.Method, req.URL.Path)
	}

	var sent map[string]any
	if err := json.Unmarshal(hc.LastBody(), &sent); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if sent["sourceWebsocketId"] != "sock-1" || sent["modelSelection"] != "gpt-4o" {
		t.Errorf("body = %v", sent)
	}
	if tags, ok := sent["context_tags"].([]any); !ok || len(tags) != 0 {
		t.Errorf("context_tags = %v, want empty array", sent["context_tags"])
	}
}

func TestClient_UpdateChatTitle(t *testing.T) {
	hc := NewMockHttpClient([]byte(`{"success":true,"data":{"id":"c1","title":"New"}}`), 200)
	c := newTestClient(t, hc)

	chat, err := c.UpdateChatTitle(context.Background(), "c1", "New")
	if err != nil {
		t.Fatalf("UpdateChatTitle() returned error: %v", err)
	}
	if chat.Title != "New" {
		t.Errorf("Title = %q", chat.Title)
	}
	if req := hc.LastRequest(); req.Method != "PUT" || req.URL.Path != "/hivechat/c1" {
		t.Errorf("request = %s %s", req.Method, req.URL.Path)
	}
	if !strings.Contains(string(hc.LastBody()), `"title":"New"`) {
		t.Errorf("body = %s", hc.LastBody())
	}
}

func TestClient_ListChatsAndGetChat(t *testing.T) {
	hc := NewMockHttpClient([]byte(`{"success":true,"data":[{"id":"a","title":"A"},{"id":"b","title":"B"}]}`), 200)
	c := newTestClient(t, hc)

	chats, err := c.ListChats(context.Background(), "ws-9")
	if err != nil {
		t.Fatal(err)
	}
	if len(chats) != 2 {
		t.Fatalf("len(chats) = %d", len(chats))
	}
	if got := hc.LastRequest().URL.Query().Get("workspace_id"); got != "ws-9" {
		t.Errorf("workspace_id = %q", got)
	}

	hc.Body = []byte(`{"success":true,"data":{"id":"a","title":"A"}}`)
	chat, err := c.GetChat(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	if chat.Title != "A" {
		t.Errorf("Title = %q", chat.Title)
	}
}

func TestClient_ChatLogs(t *testing.T) {
	body := `{"success":true,"data":{"limit":10,"offset":0,"total":2,"messages":[
		{"id":"1","event":{"message":"build started"}},
		{"id":"2","event":{"message":"build finished"}}
	]}}`
	hc := NewMockHttpClient([]byte(body), 200)
	c := newTestClient(t, hc)

	page, err := c.ChatLogs(context.Background(), "c1", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 2 || len(page.Messages) != 2 || page.Messages[1].Text() != "build finished" {
		t.Errorf("page = %+v", page)
	}
	if hc.LastRequest().URL.Path != "/hivechat/logs/c1" {
		t.Errorf("path = %s", hc.LastRequest().URL.Path)
	}
}

func TestClient_BountyCards(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{"array", `[{"id":"1","title":"a","status":"TODO"},{"id":"2","title":"b","status":"PAID"}]`, 2, false},
		{"null", `null`, 0, false},
		{"object", `{"success":true}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, NewMockHttpClient([]byte(tt.body), 200))
			cards, err := c.BountyCards(context.Background(), "ws")
			if (err != nil) != tt.wantErr {
				t.Fatalf("BountyCards() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !apierrors.IsParseError(err) {
				t.Errorf("expected parse error, got %v", err)
			}
			if len(cards) != tt.want {
				t.Errorf("len(cards) = %d, want %d", len(cards), tt.want)
			}
		})
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		client  *MockHttpClient
		check   func(error) bool
		checkID string
	}{
		{"network", NewMockHttpClientWithError(errors.New("dial tcp: refused")), apierrors.IsNetworkError, "network"},
		{"unauthorized", NewMockHttpClient([]byte(`{}`), 401), apierrors.IsAuthError, "auth"},
		{"not found", NewMockHttpClient([]byte(`{}`), 404), apierrors.IsNotFound, "not found"},
		{"server error", NewMockHttpClient([]byte(`oops`), 500), func(err error) bool { return apierrors.GetHTTPStatus(err) == 500 }, "status"},
		{"not json", NewMockHttpClient([]byte(`<html>`), 200), apierrors.IsParseError, "parse"},
		{"success false", NewMockHttpClient([]byte(`{"success":false,"message":"chat locked"}`), 200), func(err error) bool {
			return err != nil && strings.Contains(err.Error(), "chat locked")
		}, "envelope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.client)
			_, err := c.GetChat(context.Background(), "c1")
			if err == nil {
				t.Fatal("expected error")
			}
			if !tt.check(err) {
				t.Errorf("%s check failed for %v", tt.checkID, err)
			}
		})
	}
}

func TestClient_Close(t *testing.T) {
	hc := NewMockHttpClient([]byte(`{"success":true,"data":{}}`), 200)
	c := newTestClient(t, hc)

	c.Close()
	c.Close()

	if !c.IsClosed() {
		t.Error("IsClosed() should be true")
	}
	if !hc.IdleClose {
		t.Error("idle connections should be closed")
	}
	if _, err := c.GetChat(context.Background(), "c1"); err == nil {
		t.Error("calls after Close should fail")
	}
}

func TestMockClient_RecordsCalls(t *testing.T) {
	m := &MockClient{SendVal: &models.ChatMessage{ID: "x"}}

	if _, err := m.SendMessage(context.Background(), models.SendRequest{Message: "a"}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.UpdateChatTitle(context.Background(), "c", "T"); err != nil {
		t.Fatal(err)
	}

	if m.SendCount() != 1 {
		t.Errorf("SendCount() = %d", m.SendCount())
	}
	if titles := m.TitleWrites(); len(titles) != 1 || titles[0] != "T" {
		t.Errorf("TitleWrites() = %v", titles)
	}
}
