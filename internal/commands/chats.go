package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/saithsab877/hivechat/internal/history"
	"github.com/saithsab877/hivechat/internal/models"
)

func newChatsCmd(a *app) *cobra.Command {
	var workspace string

	cmd := &cobra.Command{
		Use:   "chats",
		Short: "List, show and export chats",
		Long: `Browse the chats of a workspace and export their transcripts.

` + history.ListAliases() + `

References other than ids need a workspace (--workspace or the configured one).`,
	}
	cmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace uuid (defaults to the configured workspace)")

	cmd.AddCommand(newChatsListCmd(a, &workspace))
	cmd.AddCommand(newChatsShowCmd(a, &workspace))
	cmd.AddCommand(newChatsExportCmd(a, &workspace))
	cmd.AddCommand(newChatsSearchCmd(a, &workspace))
	return cmd
}

func newChatsListCmd(a *app, workspaceFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list [workspace]",
		Short: "List the chats of a workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			workspace := s.workspace(*workspaceFlag)
			if len(args) > 0 {
				workspace = args[0]
			}
			if workspace == "" {
				return fmt.Errorf("no workspace given (pass one or run 'hivechat config set workspace <uuid>')")
			}

			chats, err := s.store().LoadChats(cmd.Context(), workspace)
			if err != nil {
				printError(cmd.ErrOrStderr(), err, "Failed to list chats")
				return err
			}
			return writeChatList(cmd.OutOrStdout(), chats)
		},
	}
}

func writeChatList(out io.Writer, chats []models.Chat) error {
	if len(chats) == 0 {
		fmt.Fprintln(out, "No chats found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tID\tTITLE\tSTATUS\tUPDATED")
	_, _ = fmt.Fprintln(w, "-\t--\t-----\t------\t-------")

	for i, c := range chats {
		updated := "-"
		if !c.UpdatedAt.IsZero() {
			updated = c.UpdatedAt.Local().Format("2006-01-02 15:04")
		}
		title := c.Title
		if title == "" {
			title = "(untitled)"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, c.ID, truncate(title, 40), orDash(c.Status), updated)
	}

	return w.Flush()
}

func newChatsShowCmd(a *app, workspaceFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <ref>",
		Short: "Print a chat transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, c, err := a.loadTranscript(cmd, *workspaceFlag, args[0])
			if err != nil {
				return err
			}
			writeTranscript(cmd.OutOrStdout(), c, store.Messages(c.ID), 500)
			return nil
		},
	}
}

func newChatsExportCmd(a *app, workspaceFlag *string) *cobra.Command {
	var (
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "export <ref>",
		Short: "Export a chat transcript as markdown or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exportFormat, err := history.ParseExportFormat(format)
			if err != nil {
				return err
			}

			store, c, err := a.loadTranscript(cmd, *workspaceFlag, args[0])
			if err != nil {
				return err
			}

			data, err := store.Export(c.ID, exportFormat)
			if err != nil {
				return fmt.Errorf("failed to export chat: %w", err)
			}
			if len(data) > 0 && data[len(data)-1] != '\n' {
				data = append(data, '\n')
			}

			if output == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d messages to %s\n", store.Len(c.ID), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "Export format: markdown (md) or json")
	return cmd
}

func newChatsSearchCmd(a *app, workspaceFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "search <ref> <text>",
		Short: "Find messages of a chat containing text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, c, err := a.loadTranscript(cmd, *workspaceFlag, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			results := store.Search(c.ID, args[1])
			if len(results) == 0 {
				fmt.Fprintf(out, "No messages matching '%s'.\n", args[1])
				return nil
			}
			for _, r := range results {
				fmt.Fprintf(out, "[%d] %s: %s\n", r.Index+1, roleLabel(r.Message.Role), r.Snippet)
			}
			return nil
		},
	}
}

// resolveChat turns a reference into a chat. With a workspace, references
// are resolved against its chats; an id outside the listing is still
// fetched directly.
func resolveChat(ctx context.Context, store *history.Store, workspace, ref string) (models.Chat, error) {
	if workspace == "" {
		return store.LoadChat(ctx, ref)
	}

	c, err := history.NewResolver(store, workspace).Resolve(ctx, ref)
	if err == nil {
		return c, nil
	}
	if direct, derr := store.LoadChat(ctx, ref); derr == nil {
		return direct, nil
	}
	return models.Chat{}, err
}

// loadTranscript resolves a chat and loads its stored messages
func (a *app) loadTranscript(cmd *cobra.Command, workspaceFlag, ref string) (*history.Store, models.Chat, error) {
	ctx := cmd.Context()
	s, err := a.open(ctx)
	if err != nil {
		return nil, models.Chat{}, err
	}
	defer s.close()

	store := s.store()
	c, err := resolveChat(ctx, store, s.workspace(workspaceFlag), ref)
	if err != nil {
		printError(cmd.ErrOrStderr(), err, "Failed to find chat")
		return nil, models.Chat{}, err
	}
	if err := store.LoadChatHistory(ctx, c.ID); err != nil {
		printError(cmd.ErrOrStderr(), err, "Failed to load messages")
		return nil, models.Chat{}, err
	}
	return store, c, nil
}

func roleLabel(role string) string {
	if role == models.RoleAssistant {
		return "Hive"
	}
	return "You"
}

// writeTranscript prints a transcript, cutting bodies at maxBody runes
func writeTranscript(out io.Writer, c models.Chat, msgs []models.ChatMessage, maxBody int) {
	title := c.Title
	if title == "" {
		title = "Untitled chat"
	}

	fmt.Fprintf(out, "ID: %s\n", c.ID)
	fmt.Fprintf(out, "Title: %s\n", title)
	if c.WorkspaceID != "" {
		fmt.Fprintf(out, "Workspace: %s\n", c.WorkspaceID)
	}
	fmt.Fprintf(out, "Messages: %d\n\n", len(msgs))

	for i, msg := range msgs {
		fmt.Fprintf(out, "[%d] %s (%s):\n", i+1, roleLabel(msg.Role), msg.Timestamp.Local().Format("15:04"))
		fmt.Fprintf(out, "  %s\n\n", strings.ReplaceAll(truncate(msg.Message, maxBody), "\n", "\n  "))
	}
}
