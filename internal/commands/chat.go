package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/saithsab877/hivechat/internal/chat"
	"github.com/saithsab877/hivechat/internal/config"
	"github.com/saithsab877/hivechat/internal/logstream"
	"github.com/saithsab877/hivechat/internal/render"
	"github.com/saithsab877/hivechat/internal/socket"
	"github.com/saithsab877/hivechat/internal/tui"
)

// socketPingInterval keeps idle sockets open through proxies
const socketPingInterval = 30 * time.Second

func newChatCmd(a *app) *cobra.Command {
	var workspace string

	cmd := &cobra.Command{
		Use:   "chat [ref]",
		Short: "Open an interactive chat",
		Long: `Open a Hive chat in the terminal.

Without a reference the chats of the workspace (--workspace, or the
configured workspace) are listed to pick from. With a workspace, a chat may
also be referenced as @last, by its position in 'hivechat chats list' or by
part of its title. Replies arrive live over the chat socket;
while the agent works, its job log is shown as a chain of thought.

Keys: Enter sends, Alt+Enter adds a line, Ctrl+T edits the title,
Ctrl+O switches the model, Esc quits.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chatID := ""
			if len(args) > 0 {
				chatID = args[0]
			}
			return a.runChat(cmd, chatID, workspace)
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace uuid (defaults to the configured workspace)")
	return cmd
}

func (a *app) runChat(cmd *cobra.Command, chatID, workspace string) error {
	ctx := cmd.Context()
	errOut := cmd.ErrOrStderr()

	s, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	store := s.store()
	workspace = s.workspace(workspace)

	if chatID == "" {
		if workspace == "" {
			return fmt.Errorf("no chat id given and no workspace configured (use --workspace or 'hivechat config set workspace <uuid>')")
		}
		selected, ok, err := a.deps.TUI.RunChatSelector(store, workspace)
		if err != nil {
			return fmt.Errorf("chat selector failed: %w", err)
		}
		if !ok {
			return nil
		}
		chatID = selected.ID
	} else {
		spin := newSpinner(errOut, "Connecting to Hive")
		spin.start()
		c, err := resolveChat(ctx, store, workspace, chatID)
		if err != nil {
			spin.stopWithError()
			printError(errOut, err, "Failed to open chat")
			return err
		}
		spin.stopWithSuccess("Connected")
		chatID = c.ID
		if c.WorkspaceID != "" {
			workspace = c.WorkspaceID
		}
	}

	tui.UpdateTheme(s.cfg.TUITheme)

	chatSocket := socket.New(socket.Config{
		Name:         "chat",
		URL:          s.cfg.SocketURL,
		PingInterval: socketPingInterval,
		Logger:       s.logger,
		Telemetry:    s.tel,
	}, chat.DecodeFrame)

	logs := logstream.NewAdapter(s.cfg.LogSocketURL,
		logstream.WithLogger(s.logger),
		logstream.WithTelemetry(s.tel),
	)

	m := tui.NewChatModel(store, logs, chatSocket, tui.ChatOptions{
		WorkspaceUUID: workspace,
		ChatID:        chatID,
		Model:         s.model(),
		TitleDebounce: time.Duration(s.cfg.TitleDebounceMs) * time.Millisecond,
		Render:        render.FromConfig(s.cfg.Markdown),
		SaveModel:     config.SaveLastModel,
		Logger:        s.logger,
		Telemetry:     s.tel,
	})

	s.logger.Info("chat opened", "chat_id", chatID, "workspace", workspace)
	return a.deps.TUI.RunChat(m)
}
