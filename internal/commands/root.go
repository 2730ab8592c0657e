// Package commands provides CLI commands for hivechat.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// globalFlags are the persistent flags shared by every command
type globalFlags struct {
	server string
	token  string
	model  string
	debug  bool
}

// app ties the parsed global flags to the injected dependencies
type app struct {
	deps  *Dependencies
	flags *globalFlags
}

// rootCmd represents the base command
var rootCmd = NewRootCmd(NewDependencies())

// NewRootCmd builds the command tree around deps
func NewRootCmd(deps *Dependencies) *cobra.Command {
	if deps == nil {
		deps = NewDependencies()
	}
	a := &app{deps: deps, flags: &globalFlags{}}

	cmd := &cobra.Command{
		Use:   "hivechat",
		Short: "Terminal client for Hive workspace chats",
		Long: `hivechat is a terminal client for the Hive workspace chat. It follows the
agent's replies live over the chat socket, streams the job log of a running
task as a chain of thought, and browses stored logs and workspace bounties.

Examples:
  hivechat config token <jwt>           Store the API token
  hivechat chat -w <workspace>          Pick a chat of a workspace
  hivechat chat <chat-id>               Open a chat
  hivechat logs <chat-id> --plain       Print a chat's stored logs
  hivechat board <workspace> --status TODO`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(cmd.OutOrStdout(), "hivechat %s (built %s)\n", Version, BuildTime)
				return nil
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&a.flags.server, "server", "", "Server URL (overrides server_url)")
	cmd.PersistentFlags().StringVar(&a.flags.token, "token", "", "API token (overrides the stored token)")
	cmd.PersistentFlags().StringVarP(&a.flags.model, "model", "m", "", "Model to answer with (e.g., claude-sonnet)")
	cmd.PersistentFlags().BoolVar(&a.flags.debug, "debug", false, "Write debug records to the log file")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(newChatCmd(a))
	cmd.AddCommand(newChatsCmd(a))
	cmd.AddCommand(newLogsCmd(a))
	cmd.AddCommand(newBoardCmd(a))
	cmd.AddCommand(NewConfigCmd(deps))

	return cmd
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
