// Package models contains data types and constants for the Hive workspace API.
package models

// REST paths relative to the configured server URL
const (
	PathChatHistory = "/hivechat/history/"
	PathChat        = "/hivechat/"
	PathChats       = "/hivechat"
	PathSend        = "/hivechat/send"
	PathChatLogs    = "/hivechat/logs/"
	PathBountyCards = "/gobounties/bounty-cards"
)

// Default endpoints
const (
	DefaultServerURL    = "https://people.sphinx.chat"
	DefaultSocketURL    = "wss://people.sphinx.chat/websocket"
	DefaultLogSocketURL = "wss://jobs.stakwork.com/cable?channel=ProjectLogChannel"
)

// Paging defaults for history and log pages
const (
	DefaultHistoryLimit = 200
	DefaultLogsLimit    = 100
)

// Model identifies the model the Hive agent should answer with
type Model struct {
	Name  string
	Label string
}

// Available models
var (
	ModelClaudeSonnet = Model{Name: "claude-sonnet", Label: "Claude Sonnet"}
	ModelClaudeOpus   = Model{Name: "claude-opus", Label: "Claude Opus"}
	ModelGPT4o        = Model{Name: "gpt-4o", Label: "GPT-4o"}
	ModelO3Mini       = Model{Name: "o3-mini", Label: "o3-mini"}

	// DefaultModel is used when no preference is stored
	DefaultModel = ModelClaudeSonnet
)

// AllModels returns a list of all available models
func AllModels() []Model {
	return []Model{ModelClaudeSonnet, ModelClaudeOpus, ModelGPT4o, ModelO3Mini}
}

// ModelFromName returns a Model by its name, falling back to DefaultModel
func ModelFromName(name string) Model {
	for _, m := range AllModels() {
		if m.Name == name {
			return m
		}
	}
	return DefaultModel
}

// NextModel returns the model after current in AllModels, wrapping around
func NextModel(current Model) Model {
	all := AllModels()
	for i, m := range all {
		if m.Name == current.Name {
			return all[(i+1)%len(all)]
		}
	}
	return all[0]
}

// DefaultHeaders returns the headers sent with every REST request
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   "hivechat/1.0",
	}
}
