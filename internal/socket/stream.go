// Package socket wraps a websocket connection as a stream of typed frames.
package socket

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	apierrors "github.com/saithsab877/hivechat/internal/errors"
	"github.com/saithsab877/hivechat/internal/logging"
	"github.com/saithsab877/hivechat/internal/telemetry"
)

// Decoder turns one raw text frame into a typed frame. Returning ok=false
// drops the frame silently; a non-nil error is yielded to the consumer
// and the stream continues.
type Decoder[F any] func(raw []byte) (frame F, ok bool, err error)

// Config describes one socket endpoint
type Config struct {
	// Name labels the socket in logs and metrics ("chat", "log").
	Name string
	URL  string
	// Handshake, when set, is written as the first text frame after dialing.
	Handshake []byte
	Header    http.Header
	// PingInterval enables websocket pings. Zero disables them.
	PingInterval time.Duration
	Dialer       *websocket.Dialer
	Logger       *slog.Logger
	Telemetry    *telemetry.Telemetry
}

// Stream is one websocket subscription yielding decoded frames. Every call
// to Frames dials a fresh connection, so a finished stream can be restarted.
type Stream[F any] struct {
	cfg    Config
	decode Decoder[F]

	mu       sync.Mutex
	conn     *websocket.Conn
	closedBy *websocket.Conn

	writeMu sync.Mutex
}

// New creates a stream; nothing is dialed until Frames is ranged over
func New[F any](cfg Config, decode Decoder[F]) *Stream[F] {
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if cfg.Name == "" {
		cfg.Name = "socket"
	}
	cfg.Logger = logging.OrDiscard(cfg.Logger).With("socket", cfg.Name)
	cfg.Telemetry = telemetry.OrNoop(cfg.Telemetry)
	return &Stream[F]{cfg: cfg, decode: decode}
}

// URL returns the endpoint the stream dials
func (s *Stream[F]) URL() string {
	return s.cfg.URL
}

// Frames dials the socket and yields frames in arrival order until ctx is
// done, the peer closes, Close is called or the consumer stops ranging.
// A dial or read failure is yielded once as a SocketError and ends the
// stream. A normal close or cancellation ends it without an error.
func (s *Stream[F]) Frames(ctx context.Context) iter.Seq2[F, error] {
	return func(yield func(F, error) bool) {
		var zero F

		conn, _, err := s.cfg.Dialer.DialContext(ctx, s.cfg.URL, s.cfg.Header)
		if err != nil {
			s.cfg.Logger.Error("dial failed", "url", s.cfg.URL, "error", err)
			yield(zero, apierrors.NewSocketError("dial", s.cfg.URL, err))
			return
		}
		s.setConn(conn)
		defer s.release(conn)
		s.cfg.Logger.Info("socket opened", "url", s.cfg.URL)

		if len(s.cfg.Handshake) > 0 {
			if err := s.write(conn, websocket.TextMessage, s.cfg.Handshake); err != nil {
				yield(zero, apierrors.NewSocketError("handshake", s.cfg.URL, err))
				return
			}
		}

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		g, gctx := errgroup.WithContext(runCtx)
		raw := make(chan []byte)

		g.Go(func() error {
			defer close(raw)
			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					return err
				}
				select {
				case raw <- data:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})

		g.Go(func() error {
			var tick <-chan time.Time
			if s.cfg.PingInterval > 0 {
				ticker := time.NewTicker(s.cfg.PingInterval)
				defer ticker.Stop()
				tick = ticker.C
			}
			for {
				select {
				case <-gctx.Done():
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
						time.Now().Add(time.Second))
					return conn.Close()
				case <-tick:
					if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
						// unblock the reader
						_ = conn.Close()
						return err
					}
				}
			}
		})

		stopped := false
		for data := range raw {
			frame, ok, err := s.decode(data)
			if err != nil {
				s.cfg.Logger.Warn("frame decode failed", "error", err)
				if !yield(zero, err) {
					stopped = true
					break
				}
				continue
			}
			if !ok {
				s.cfg.Telemetry.RecordFrame(ctx, s.cfg.Name, "dropped")
				continue
			}
			s.cfg.Telemetry.RecordFrame(ctx, s.cfg.Name, "delivered")
			if !yield(frame, nil) {
				stopped = true
				break
			}
		}

		cancel()
		readErr := g.Wait()

		if stopped || ctx.Err() != nil || s.closedByOwner(conn) || isNormalClose(readErr) {
			s.cfg.Logger.Info("socket closed", "url", s.cfg.URL)
			return
		}
		s.cfg.Logger.Error("socket read failed", "url", s.cfg.URL, "error", readErr)
		yield(zero, apierrors.NewSocketError("read", s.cfg.URL, readErr))
	}
}

// Send writes v as a JSON text frame on the open connection
func (s *Stream[F]) Send(v any) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return apierrors.NewSocketError("send", s.cfg.URL, apierrors.ErrSocketClosed)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := conn.WriteJSON(v); err != nil {
		return apierrors.NewSocketError("send", s.cfg.URL, err)
	}
	return nil
}

// Close closes the open connection, if any. An active Frames loop ends
// without yielding an error.
func (s *Stream[F]) Close() error {
	s.mu.Lock()
	conn := s.conn
	if conn != nil {
		s.closedBy = conn
	}
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return conn.Close()
}

// Connected reports whether a connection is currently open
func (s *Stream[F]) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *Stream[F]) write(conn *websocket.Conn, messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteMessage(messageType, data)
}

func (s *Stream[F]) setConn(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = conn
	s.closedBy = nil
}

func (s *Stream[F]) release(conn *websocket.Conn) {
	_ = conn.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == conn {
		s.conn = nil
	}
}

func (s *Stream[F]) closedByOwner(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closedBy == conn
}

func isNormalClose(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
