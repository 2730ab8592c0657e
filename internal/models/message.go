package models

import "time"

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry of a chat transcript
type ChatMessage struct {
	ID            string    `json:"id"`
	ChatID        string    `json:"chat_id"`
	Message       string    `json:"message"`
	Role          string    `json:"role"`
	Timestamp     time.Time `json:"timestamp"`
	Status        string    `json:"status,omitempty"`
	Source        string    `json:"source,omitempty"`
	WorkspaceUUID string    `json:"workspaceUUID,omitempty"`
}

// IsUser reports whether the message was written by the user
func (m ChatMessage) IsUser() bool {
	return m.Role == RoleUser
}

// Chat is a chat session within a workspace
type Chat struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Title       string    `json:"title"`
	Status      string    `json:"status,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Log step kinds carried by the job-log channel
const (
	LogStepStart    = "on_step_start"
	LogStepComplete = "on_step_complete"
)

// LogEntry is one line of a live job log
type LogEntry struct {
	Timestamp time.Time
	ProjectID string
	ChatID    string
	Message   string
	Kind      string
}

// SendRequest is the body of a send-message call
type SendRequest struct {
	ChatID            string   `json:"chat_id"`
	Message           string   `json:"message"`
	ContextTags       []string `json:"context_tags"`
	SourceWebsocketID string   `json:"sourceWebsocketId"`
	WorkspaceUUID     string   `json:"workspaceUUID"`
	ModelSelection    string   `json:"modelSelection,omitempty"`
}
