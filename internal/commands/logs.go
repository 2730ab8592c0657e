package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/saithsab877/hivechat/internal/models"
	"github.com/saithsab877/hivechat/internal/tui"
)

func newLogsCmd(a *app) *cobra.Command {
	var (
		plain bool
		limit int
	)

	cmd := &cobra.Command{
		Use:   "logs <chat-id>",
		Short: "Show the stored logs of a chat",
		Long: `Show the stored job logs of a chat, newest first.

In a terminal the logs open in a viewer where 'c' copies all of them to the
clipboard. With --plain, or when stdout is not a terminal, the lines are
printed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			chatID := args[0]
			if plain || !a.deps.IsTTY() {
				page, err := s.client.ChatLogs(cmd.Context(), chatID, limit, 0)
				if err != nil {
					printError(cmd.ErrOrStderr(), err, "Failed to load logs")
					return err
				}
				return writeLogs(cmd.OutOrStdout(), page)
			}

			tui.UpdateTheme(s.cfg.TUITheme)
			return a.deps.TUI.RunLogs(tui.NewLogsModel(s.client, chatID, limit, s.logger))
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Print the logs instead of opening the viewer")
	cmd.Flags().IntVarP(&limit, "limit", "n", models.DefaultLogsLimit, "Number of records to fetch")
	return cmd
}

// writeLogs prints log texts newest first, one per line
func writeLogs(out io.Writer, page *models.LogsPage) error {
	if page == nil || len(page.Messages) == 0 {
		_, err := fmt.Fprintln(out, tui.NoLogsText)
		return err
	}
	for _, line := range tui.LogLines(tui.SortLogs(page.Messages)) {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}
