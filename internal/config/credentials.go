package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// tokenKeys are the names a token may be stored under in an imported file.
// Browser localStorage exports use "token"; the web app uses "x-jwt" as header.
var tokenKeys = []string{"token", "x-jwt", "jwt"}

// Credentials holds the API token
type Credentials struct {
	mu    sync.RWMutex `json:"-"`
	Token string       `json:"token"`
}

// GetToken returns the token in a thread-safe manner
func (c *Credentials) GetToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Token
}

// SetToken replaces the token
func (c *Credentials) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Token = token
}

// KeyValueItem is one entry of a list-format export
type KeyValueItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// GetCredentialsPath returns the path to the credentials file
func GetCredentialsPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "credentials.json"), nil
}

// LoadCredentials loads the stored token
func LoadCredentials() (*Credentials, error) {
	path, err := GetCredentialsPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no token found. Store one first:\n  hivechat config token <token>")
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	return parseCredentials(data)
}

// parseCredentials accepts a dict {"token": "..."}, a list
// [{name, value}] or a bare token string.
func parseCredentials(data []byte) (*Credentials, error) {
	var dictFormat map[string]string
	if err := json.Unmarshal(data, &dictFormat); err == nil {
		for _, key := range tokenKeys {
			if v := strings.TrimSpace(dictFormat[key]); v != "" {
				return &Credentials{Token: v}, nil
			}
		}
		return nil, fmt.Errorf("missing required key: token")
	}

	var listFormat []KeyValueItem
	if err := json.Unmarshal(data, &listFormat); err == nil {
		for _, item := range listFormat {
			for _, key := range tokenKeys {
				if item.Name == key && strings.TrimSpace(item.Value) != "" {
					return &Credentials{Token: strings.TrimSpace(item.Value)}, nil
				}
			}
		}
		return nil, fmt.Errorf("missing required key: token")
	}

	raw := strings.TrimSpace(string(data))
	if raw != "" && !strings.ContainsAny(raw, "{}[] \n\t\"") {
		return &Credentials{Token: raw}, nil
	}

	return nil, fmt.Errorf("invalid credentials format: expected {\"token\": ...}, [{name, value}] or a bare token")
}

// SaveCredentials writes the token with owner-only permissions
func SaveCredentials(creds *Credentials) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(map[string]string{"token": creds.GetToken()}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := os.WriteFile(filepath.Join(configDir, "credentials.json"), data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

// ImportCredentials reads a token from sourcePath and stores it
func ImportCredentials(sourcePath string) error {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to read source file: %w", err)
	}

	creds, err := parseCredentials(data)
	if err != nil {
		return err
	}

	return SaveCredentials(creds)
}
