package logstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/goleak"

	"github.com/saithsab877/hivechat/internal/models"
)

// cableServer imitates the job-log channel: it waits for a subscribe
// command, then sends the frames configured for that project id.
type cableServer struct {
	*httptest.Server
	mu         sync.Mutex
	subscribes []string
	frames     map[string][]string
}

func newCableServer(t *testing.T, frames map[string][]string) *cableServer {
	t.Helper()
	cs := &cableServer{frames: frames}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"welcome"}`))

		_, sub, err := conn.ReadMessage()
		if err != nil {
			return
		}
		cs.mu.Lock()
		cs.subscribes = append(cs.subscribes, string(sub))
		cs.mu.Unlock()

		project := ""
		for id := range cs.frames {
			if strings.Contains(string(sub), `\"id\":\"`+id+`\"`) {
				project = id
			}
		}

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"confirm_subscription"}`))
		for _, f := range cs.frames[project] {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(f))
		}

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	return cs
}

func (cs *cableServer) wsURL() string {
	return "ws" + strings.TrimPrefix(cs.URL, "http")
}

func (cs *cableServer) Subscribes() []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]string(nil), cs.subscribes...)
}

func step(kind, text string) string {
	return `{"identifier":"x","message":{"type":"` + kind + `","message":"` + text + `"}}`
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestAdapter_BuffersStepFrames(t *testing.T) {
	defer goleak.VerifyNone(t)

	cs := newCableServer(t, map[string][]string{
		"p1": {
			`{"type":"ping","message":1}`,
			step(models.LogStepStart, "Cloning repo"),
			`{"type":"ping","message":2}`,
			step(models.LogStepComplete, "Cloned"),
		},
	})
	defer cs.Close()

	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := NewAdapter(cs.wsURL(), WithClock(func() time.Time { return fixed }))
	defer a.Stop()

	a.Start(context.Background(), "p1", "chat-1")
	waitFor(t, func() bool { return len(a.Entries()) == 2 })

	entries := a.Entries()
	if entries[0].Message != "Cloning repo" || entries[0].Kind != models.LogStepStart {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Message != "Cloned" || entries[1].Kind != models.LogStepComplete {
		t.Errorf("entries[1] = %+v", entries[1])
	}
	for _, e := range entries {
		if e.ProjectID != "p1" || e.ChatID != "chat-1" || !e.Timestamp.Equal(fixed) {
			t.Errorf("entry not tagged: %+v", e)
		}
	}

	subs := cs.Subscribes()
	if len(subs) != 1 || subs[0] != string(SubscribeFrame("p1")) {
		t.Errorf("subscribes = %v", subs)
	}
}

func TestAdapter_SameProjectIsNoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	cs := newCableServer(t, map[string][]string{"p1": {step(models.LogStepStart, "a")}})
	defer cs.Close()

	a := NewAdapter(cs.wsURL())
	defer a.Stop()

	a.Start(context.Background(), "p1", "c")
	waitFor(t, func() bool { return len(a.Entries()) == 1 })
	a.Start(context.Background(), "p1", "c")

	time.Sleep(100 * time.Millisecond)
	if n := len(cs.Subscribes()); n != 1 {
		t.Errorf("subscribed %d times, want 1", n)
	}
	if len(a.Entries()) != 1 {
		t.Errorf("restart of the same project must not clear the buffer")
	}
}

func TestAdapter_SwitchProjectClosesPrevious(t *testing.T) {
	defer goleak.VerifyNone(t)

	cs := newCableServer(t, map[string][]string{
		"p1": {step(models.LogStepStart, "one")},
		"p2": {step(models.LogStepStart, "two")},
	})
	defer cs.Close()

	a := NewAdapter(cs.wsURL())
	defer a.Stop()

	a.Start(context.Background(), "p1", "c")
	waitFor(t, func() bool { return len(a.Entries()) == 1 })

	a.Start(context.Background(), "p2", "c")
	waitFor(t, func() bool { return len(a.Entries()) == 1 && a.Entries()[0].Message == "two" })

	if a.ProjectID() != "p2" {
		t.Errorf("ProjectID() = %q", a.ProjectID())
	}
	for _, e := range a.Entries() {
		if e.ProjectID != "p2" {
			t.Errorf("entry from previous run leaked: %+v", e)
		}
	}
}

func TestAdapter_ResetAndStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	cs := newCableServer(t, map[string][]string{"p1": {step(models.LogStepStart, "a"), step(models.LogStepComplete, "b")}})
	defer cs.Close()

	a := NewAdapter(cs.wsURL())
	a.Start(context.Background(), "p1", "c")
	waitFor(t, func() bool { return len(a.Entries()) == 2 })

	a.Reset()
	if len(a.Entries()) != 0 {
		t.Error("Reset() should clear the buffer")
	}
	if !a.Active() {
		t.Error("Reset() should keep the subscription")
	}

	a.Stop()
	if a.Active() || a.ProjectID() != "" {
		t.Error("Stop() should end the subscription")
	}
	a.Stop()
}

func TestAdapter_DialErrorReported(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := NewAdapter("ws://127.0.0.1:1/cable")
	defer a.Stop()

	a.Start(context.Background(), "p1", "c")

	select {
	case <-a.Updates():
	case <-time.After(3 * time.Second):
		t.Fatal("no update after dial failure")
	}
	if err := a.TakeErr(); err == nil {
		t.Error("TakeErr() should report the dial failure")
	}
	if err := a.TakeErr(); err != nil {
		t.Error("TakeErr() should clear the error")
	}
}

func TestAdapter_StopWithoutStart(t *testing.T) {
	a := NewAdapter("ws://unused")
	a.Stop()
	a.Reset()
	if a.Active() {
		t.Error("idle adapter should not be active")
	}
}

// closingServer accepts the subscribe command and then closes the channel
// normally, as the job log does when a run is over.
func closingServer(t *testing.T) (*httptest.Server, func() int) {
	t.Helper()
	var (
		mu   sync.Mutex
		subs int
	)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		mu.Lock()
		subs++
		mu.Unlock()

		_ = conn.WriteMessage(websocket.TextMessage, []byte(step(models.LogStepStart, "working")))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_, _, _ = conn.ReadMessage()
	}))
	return srv, func() int {
		mu.Lock()
		defer mu.Unlock()
		return subs
	}
}

func TestAdapter_RestartsAfterStreamEnded(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv, subscribes := closingServer(t)
	defer srv.Close()

	a := NewAdapter("ws" + strings.TrimPrefix(srv.URL, "http"))
	defer a.Stop()

	a.Start(context.Background(), "p1", "c")
	waitFor(t, func() bool { return subscribes() == 1 && !a.Active() })

	if a.ProjectID() != "" {
		t.Errorf("ProjectID() = %q after the channel closed", a.ProjectID())
	}
	if err := a.TakeErr(); err != nil {
		t.Errorf("normal close should not report an error: %v", err)
	}

	a.Start(context.Background(), "p1", "c")
	waitFor(t, func() bool { return subscribes() == 2 })
}

func TestAdapter_RestartsAfterDialFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := NewAdapter("ws://127.0.0.1:1/cable")
	defer a.Stop()

	a.Start(context.Background(), "p1", "c")
	waitFor(t, func() bool { return !a.Active() })
	if a.TakeErr() == nil {
		t.Fatal("dial failure should be reported")
	}

	a.Start(context.Background(), "p1", "c")
	waitFor(t, func() bool { return !a.Active() })
	if a.TakeErr() == nil {
		t.Error("second Start should dial again")
	}
}

func TestAdapter_SwitchDoesNotWaitForTeardown(t *testing.T) {
	defer goleak.VerifyNone(t)

	cs := newCableServer(t, map[string][]string{
		"p1": {step(models.LogStepStart, "one")},
		"p2": {step(models.LogStepStart, "two")},
	})
	defer cs.Close()

	a := NewAdapter(cs.wsURL())
	defer a.Stop()

	a.Start(context.Background(), "p1", "c")
	waitFor(t, func() bool { return len(a.Entries()) == 1 })

	started := time.Now()
	a.Start(context.Background(), "p2", "c")
	if elapsed := time.Since(started); elapsed > 50*time.Millisecond {
		t.Errorf("Start took %v", elapsed)
	}
	if a.ProjectID() != "p2" {
		t.Errorf("ProjectID() = %q right after the switch", a.ProjectID())
	}
	waitFor(t, func() bool { return len(a.Entries()) == 1 && a.Entries()[0].Message == "two" })
}
