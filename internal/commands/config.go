package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saithsab877/hivechat/internal/config"
	"github.com/saithsab877/hivechat/internal/render"
)

// configSetters maps each settable key to the function applying a value
var configSetters = map[string]func(cfg *config.Config, v string) error{
	"server_url": func(cfg *config.Config, v string) error {
		cfg.ServerURL = strings.TrimRight(v, "/")
		return nil
	},
	"socket_url": func(cfg *config.Config, v string) error {
		cfg.SocketURL = v
		return nil
	},
	"log_socket_url": func(cfg *config.Config, v string) error {
		cfg.LogSocketURL = v
		return nil
	},
	"workspace": func(cfg *config.Config, v string) error {
		cfg.Workspace = v
		return nil
	},
	"model": func(cfg *config.Config, v string) error {
		if _, ok := findModel(v); !ok {
			return fmt.Errorf("unknown model %q (available: %s)", v, strings.Join(config.AvailableModels(), ", "))
		}
		cfg.LastModel = v
		return nil
	},
	"theme": func(cfg *config.Config, v string) error {
		if _, ok := render.ThemeByName(v); !ok {
			return fmt.Errorf("unknown theme %q (available: %s)", v, strings.Join(render.ThemeNames(), ", "))
		}
		cfg.TUITheme = v
		return nil
	},
	"markdown_style": func(cfg *config.Config, v string) error {
		cfg.Markdown.Style = v
		return nil
	},
	"title_debounce_ms": func(cfg *config.Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("title_debounce_ms must be a non-negative integer")
		}
		cfg.TitleDebounceMs = n
		return nil
	},
	"history_limit": func(cfg *config.Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("history_limit must be a positive integer")
		}
		cfg.HistoryLimit = n
		return nil
	},
}

// ConfigKeys returns the keys accepted by 'config set', sorted
func ConfigKeys() []string {
	keys := make([]string, 0, len(configSetters))
	for k := range configSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NewConfigCmd creates a new config command
func NewConfigCmd(deps *Dependencies) *cobra.Command {
	if deps == nil {
		deps = NewDependencies()
	}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change settings",
		Long: `Show and change hivechat settings stored in ~/.hivechat/config.json.

The API token is kept separately in ~/.hivechat/credentials.json.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.LoadConfig()
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, string(data))
			fmt.Fprintf(out, "token: %s\n", maskToken(cfg.Token))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting",
		Long:  "Change a setting. Keys: " + strings.Join(ConfigKeys(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd, args[0], args[1])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "token <jwt>",
		Short: "Store the API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(args[0])
			if token == "" {
				return fmt.Errorf("token is empty")
			}
			creds := &config.Credentials{}
			creds.SetToken(token)
			if err := config.SaveCredentials(creds); err != nil {
				return fmt.Errorf("failed to store token: %w", err)
			}
			path, _ := config.GetCredentialsPath()
			fmt.Fprintf(cmd.OutOrStdout(), "Token stored in %s\n", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import <path>",
		Short: "Import the API token from a file",
		Long: `Import the API token from a JSON file.

The file may contain either:
1. A dictionary: {"token": "..."} (also "x-jwt" or "jwt")
2. A list of objects: [{"name": "token", "value": "..."}]
3. The bare token`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ImportCredentials(args[0]); err != nil {
				return fmt.Errorf("failed to import token: %w", err)
			}
			path, _ := config.GetCredentialsPath()
			fmt.Fprintf(cmd.OutOrStdout(), "Token imported successfully to %s\n", path)
			return nil
		},
	})

	return cmd
}

func runConfigSet(cmd *cobra.Command, key, value string) error {
	set, ok := configSetters[key]
	if !ok {
		return fmt.Errorf("unknown key %q (keys: %s)", key, strings.Join(ConfigKeys(), ", "))
	}

	cfg, err := readConfigFile()
	if err != nil {
		return err
	}
	if err := set(&cfg, strings.TrimSpace(value)); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
	return nil
}

// readConfigFile reads the stored settings without environment overrides,
// so 'config set' never writes them back.
func readConfigFile() (config.Config, error) {
	cfg := config.DefaultConfig()
	path, err := config.GetConfigPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// maskToken keeps the first and last characters of a token
func maskToken(token string) string {
	switch {
	case token == "":
		return "(not set)"
	case len(token) <= 8:
		return strings.Repeat("*", len(token))
	default:
		return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
	}
}
