// Package config handles configuration and credential storage for hivechat.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/saithsab877/hivechat/internal/models"
)

// Environment variables that override values from the config file
const (
	EnvServerURL    = "HIVECHAT_SERVER_URL"
	EnvToken        = "HIVECHAT_TOKEN"
	EnvSocketURL    = "HIVECHAT_SOCKET_URL"
	EnvLogSocketURL = "HIVECHAT_LOG_SOCKET_URL"
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // "dark", "light", "notty" or path to JSON style
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// Config represents the user configuration
type Config struct {
	ServerURL    string `json:"server_url"`
	SocketURL    string `json:"socket_url"`
	LogSocketURL string `json:"log_socket_url"`
	// Workspace is used by commands when no workspace argument is given.
	Workspace string `json:"workspace,omitempty"`
	// LastModel is the model the user picked last in the chat view.
	LastModel string `json:"last_model,omitempty"`
	// TitleDebounceMs coalesces title commits before they are written.
	TitleDebounceMs int            `json:"title_debounce_ms"`
	HistoryLimit    int            `json:"history_limit"`
	TUITheme        string         `json:"tui_theme,omitempty"`
	Markdown        MarkdownConfig `json:"markdown,omitempty"`

	// Token is never written to config.json; it comes from the
	// credentials file, the environment or a flag.
	Token string `json:"-"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		ServerURL:       models.DefaultServerURL,
		SocketURL:       models.DefaultSocketURL,
		LogSocketURL:    models.DefaultLogSocketURL,
		LastModel:       models.DefaultModel.Name,
		TitleDebounceMs: 500,
		HistoryLimit:    models.DefaultHistoryLimit,
		TUITheme:        "tokyonight",
		Markdown:        DefaultMarkdownConfig(),
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(home, ".hivechat")
	return configDir, nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700: the directory holds the API token
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogDir returns the directory for diagnostic and telemetry logs
func GetLogDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "logs"), nil
}

// LoadConfig loads the configuration from disk and applies environment
// overrides. A missing file yields the defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := json.Unmarshal(data, &cfg); err != nil {
		cfg = DefaultConfig()
		cfg.ApplyEnv()
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	if creds, err := LoadCredentials(); err == nil {
		cfg.Token = creds.GetToken()
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides fields with any HIVECHAT_* environment variables that are set
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvServerURL); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		c.Token = v
	}
	if v := os.Getenv(EnvSocketURL); v != "" {
		c.SocketURL = v
	}
	if v := os.Getenv(EnvLogSocketURL); v != "" {
		c.LogSocketURL = v
	}
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveLastModel persists the model preference without touching other
// settings. Environment overrides are not written back.
func SaveLastModel(name string) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	cfg := DefaultConfig()
	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.LastModel = name
	return SaveConfig(cfg)
}

// AvailableModels returns a list of available model names
func AvailableModels() []string {
	all := models.AllModels()
	names := make([]string, 0, len(all))
	for _, m := range all {
		names = append(names, m.Name)
	}
	return names
}

// Validate reports configuration that makes the client unusable
func (c Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server_url is not set (use --server or %s)", EnvServerURL)
	}
	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("server_url must start with http:// or https://: %s", c.ServerURL)
	}
	for name, u := range map[string]string{"socket_url": c.SocketURL, "log_socket_url": c.LogSocketURL} {
		if u != "" && !strings.HasPrefix(u, "ws://") && !strings.HasPrefix(u, "wss://") {
			return fmt.Errorf("%s must start with ws:// or wss://: %s", name, u)
		}
	}
	return nil
}
