package commands

import (
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/saithsab877/hivechat/internal/api"
	"github.com/saithsab877/hivechat/internal/config"
	"github.com/saithsab877/hivechat/internal/models"
	"github.com/saithsab877/hivechat/internal/telemetry"
	"github.com/saithsab877/hivechat/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(m tui.ChatModel) error
	RunLogs(m tui.LogsModel) error
	RunBoard(m tui.BoardModel) error
	RunChatSelector(lister tui.ChatLister, workspace string) (models.Chat, bool, error)
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// NewClient creates the REST client for a loaded configuration.
	NewClient func(cfg config.Config, logger *slog.Logger, tel *telemetry.Telemetry) (api.ClientInterface, error)

	// LoadConfig reads the configuration file and environment.
	LoadConfig func() (config.Config, error)

	// TUI is the terminal user interface.
	TUI TUIInterface

	// IsTTY reports whether stdout is a terminal.
	IsTTY func() bool
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(m tui.ChatModel) error {
	return tui.RunChat(m)
}

func (d *DefaultTUI) RunLogs(m tui.LogsModel) error {
	return tui.RunLogs(m)
}

func (d *DefaultTUI) RunBoard(m tui.BoardModel) error {
	return tui.RunBoard(m)
}

func (d *DefaultTUI) RunChatSelector(lister tui.ChatLister, workspace string) (models.Chat, bool, error) {
	return tui.RunChatSelector(lister, workspace)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewClient:  newAPIClient,
		LoadConfig: config.LoadConfig,
		TUI:        &DefaultTUI{},
		IsTTY:      isStdoutTTY,
	}
}

func newAPIClient(cfg config.Config, logger *slog.Logger, tel *telemetry.Telemetry) (api.ClientInterface, error) {
	return api.NewClient(cfg.ServerURL, cfg.Token,
		api.WithLogger(logger),
		api.WithTelemetry(tel),
	)
}

// isStdoutTTY reports whether stdout is attached to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// getTerminalWidth returns the terminal width, or 80 when unknown
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
