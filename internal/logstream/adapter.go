// Package logstream follows the live job log of a Hive run over the
// ActionCable log channel and buffers its lines.
package logstream

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/saithsab877/hivechat/internal/logging"
	"github.com/saithsab877/hivechat/internal/models"
	"github.com/saithsab877/hivechat/internal/socket"
	"github.com/saithsab877/hivechat/internal/telemetry"
)

// Adapter owns at most one log subscription at a time
type Adapter struct {
	url    string
	dialer *websocket.Dialer
	logger *slog.Logger
	tel    *telemetry.Telemetry
	now    func() time.Time

	mu        sync.Mutex
	projectID string
	chatID    string
	entries   []models.LogEntry
	lastErr   error
	active    *run

	// wg tracks pumps and the teardown of replaced runs
	wg      sync.WaitGroup
	updates chan struct{}
}

// run is one subscription
type run struct {
	stream *socket.Stream[Frame]
	cancel context.CancelFunc
}

// end cancels the run and closes its socket
func (r *run) end() {
	r.cancel()
	_ = r.stream.Close()
}

// Option configures an Adapter
type Option func(*Adapter)

// WithLogger sets the diagnostic logger
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// WithTelemetry sets the frame counters
func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(a *Adapter) { a.tel = t }
}

// WithDialer overrides the websocket dialer
func WithDialer(d *websocket.Dialer) Option {
	return func(a *Adapter) { a.dialer = d }
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

// NewAdapter creates an idle adapter for the log socket at url
func NewAdapter(url string, opts ...Option) *Adapter {
	a := &Adapter{
		url:     url,
		now:     time.Now,
		updates: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.OrDiscard(a.logger)
	a.tel = telemetry.OrNoop(a.tel)
	return a
}

// Start subscribes to the log channel of projectID, tagging entries with
// chatID. Starting the project of a running subscription does nothing;
// starting a different one, or one whose subscription has ended, replaces
// it and clears the buffer. Start does not wait for the replaced
// subscription to close.
func (a *Adapter) Start(ctx context.Context, projectID, chatID string) {
	a.mu.Lock()
	if a.active != nil && a.projectID == projectID {
		a.mu.Unlock()
		return
	}

	stream := socket.New(socket.Config{
		Name:         "log",
		URL:          a.url,
		Handshake:    SubscribeFrame(projectID),
		PingInterval: 30 * time.Second,
		Dialer:       a.dialer,
		Logger:       a.logger,
		Telemetry:    a.tel,
	}, DecodeFrame)

	runCtx, cancel := context.WithCancel(ctx)
	r := &run{stream: stream, cancel: cancel}

	prev := a.active
	a.active = r
	a.projectID = projectID
	a.chatID = chatID
	a.entries = nil
	a.lastErr = nil
	a.wg.Add(1)
	if prev != nil {
		a.wg.Add(1)
	}
	a.mu.Unlock()

	if prev != nil {
		go func() {
			defer a.wg.Done()
			prev.end()
		}()
	}

	a.logger.Info("log stream started", "project_id", projectID, "chat_id", chatID)
	go a.pump(runCtx, r)
}

func (a *Adapter) pump(ctx context.Context, r *run) {
	defer a.wg.Done()
	defer a.finish(r)

	for f, err := range r.stream.Frames(ctx) {
		a.mu.Lock()
		if a.active != r {
			a.mu.Unlock()
			return
		}
		if err != nil {
			a.lastErr = err
		} else {
			a.entries = append(a.entries, models.LogEntry{
				Timestamp: a.now(),
				ProjectID: a.projectID,
				ChatID:    a.chatID,
				Message:   f.Message,
				Kind:      f.Kind,
			})
		}
		a.mu.Unlock()

		if err != nil {
			a.logger.Warn("log stream error", "error", err)
		}
		a.notify()
	}
}

// finish releases r once its frames end. A run that ended on its own,
// through a dial failure or the server closing the channel, stops being
// the active one so the next Start subscribes again.
func (a *Adapter) finish(r *run) {
	r.cancel()

	a.mu.Lock()
	ended := a.active == r
	if ended {
		a.active = nil
	}
	projectID := a.projectID
	a.mu.Unlock()

	if ended {
		a.logger.Info("log stream ended", "project_id", projectID)
		a.notify()
	}
}

// Stop closes the active subscription and waits until every subscription
// has finished. Buffered entries are kept until Reset.
func (a *Adapter) Stop() {
	a.mu.Lock()
	r := a.active
	a.active = nil
	a.mu.Unlock()

	if r != nil {
		r.end()
		a.logger.Info("log stream stopped")
	}
	a.wg.Wait()
}

// Reset clears the buffered entries
func (a *Adapter) Reset() {
	a.mu.Lock()
	a.entries = nil
	a.lastErr = nil
	a.mu.Unlock()
	a.notify()
}

// Entries returns a copy of the buffered entries in arrival order
func (a *Adapter) Entries() []models.LogEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.LogEntry(nil), a.entries...)
}

// ProjectID returns the project of the active subscription, or ""
func (a *Adapter) ProjectID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active == nil {
		return ""
	}
	return a.projectID
}

// Active reports whether a subscription is running
func (a *Adapter) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active != nil
}

// TakeErr returns and clears the last stream error
func (a *Adapter) TakeErr() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.lastErr
	a.lastErr = nil
	return err
}

// Updates signals that entries or errors changed. Signals coalesce.
func (a *Adapter) Updates() <-chan struct{} {
	return a.updates
}

func (a *Adapter) notify() {
	select {
	case a.updates <- struct{}{}:
	default:
	}
}
