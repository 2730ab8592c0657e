package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/saithsab877/hivechat/internal/api"
	"github.com/saithsab877/hivechat/internal/config"
	"github.com/saithsab877/hivechat/internal/history"
	"github.com/saithsab877/hivechat/internal/logging"
	"github.com/saithsab877/hivechat/internal/models"
	"github.com/saithsab877/hivechat/internal/telemetry"
)

// session is everything a command needs to talk to the server
type session struct {
	cfg    config.Config
	logger *slog.Logger
	tel    *telemetry.Telemetry
	client api.ClientInterface

	closers []func()
}

// loadConfig reads the configuration and applies the global flags
func (a *app) loadConfig() (config.Config, error) {
	cfg, err := a.deps.LoadConfig()
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}

	if a.flags.server != "" {
		cfg.ServerURL = strings.TrimRight(a.flags.server, "/")
	}
	if a.flags.token != "" {
		cfg.Token = a.flags.token
	}
	if a.flags.model != "" {
		if _, ok := findModel(a.flags.model); !ok {
			return cfg, fmt.Errorf("unknown model %q (available: %s)", a.flags.model, strings.Join(config.AvailableModels(), ", "))
		}
		cfg.LastModel = a.flags.model
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// open loads the configuration, sets up the diagnostic log and telemetry
// and creates the REST client. Callers must close the session.
func (a *app) open(ctx context.Context) (*session, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, logger: logging.Discard(), tel: telemetry.Noop()}

	if dir, err := config.GetLogDir(); err == nil {
		if logger, closer, err := logging.Init(logging.Options{Dir: dir, Debug: a.flags.debug}); err == nil {
			s.logger = logger
			s.closers = append(s.closers, func() { _ = closer.Close() })
		}
		if tel, cleanup, err := telemetry.Init(ctx, dir); err == nil {
			s.tel = tel
			s.closers = append(s.closers, cleanup)
		} else {
			s.logger.Warn("telemetry disabled", "error", err)
		}
	}

	client, err := a.deps.NewClient(cfg, s.logger, s.tel)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	s.client = client
	s.closers = append(s.closers, client.Close)

	s.logger.Info("session opened", "server", cfg.ServerURL, "model", cfg.LastModel, "version", Version)
	return s, nil
}

// close releases the client, flushes telemetry and closes the log, in
// reverse order of setup
func (s *session) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// store creates a chat store backed by the session's client
func (s *session) store() *history.Store {
	return history.NewStore(s.client,
		history.WithLogger(s.logger),
		history.WithHistoryLimit(s.cfg.HistoryLimit),
	)
}

// workspace returns flag, or the configured workspace when flag is empty
func (s *session) workspace(flag string) string {
	if flag != "" {
		return flag
	}
	return s.cfg.Workspace
}

// model returns the model the session answers with
func (s *session) model() models.Model {
	return models.ModelFromName(s.cfg.LastModel)
}

// findModel looks up a model by name
func findModel(name string) (models.Model, bool) {
	for _, m := range models.AllModels() {
		if m.Name == name {
			return m, true
		}
	}
	return models.Model{}, false
}

// printError writes a formatted error to w
func printError(w io.Writer, err error, context string) {
	fmt.Fprintln(w, formatErrorMessage(err, context))
}
