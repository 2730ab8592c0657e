package models

import "time"

// APIResponse is the envelope returned by the hivechat endpoints
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

// SSEEvent is the payload of a stored log record
type SSEEvent struct {
	Message string `json:"message"`
}

// SSEMessage is a historic log record for a chat
type SSEMessage struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Event     SSEEvent  `json:"event"`
	ChatID    string    `json:"chat_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Status    string    `json:"status"`
}

// Text returns the message text of the record
func (s SSEMessage) Text() string {
	return s.Event.Message
}

// LogsPage is one page of historic log records
type LogsPage struct {
	Limit    int          `json:"limit"`
	Offset   int          `json:"offset"`
	Total    int          `json:"total"`
	Messages []SSEMessage `json:"messages"`
}

// Bounty statuses used by the planner
const (
	StatusTodo       = "TODO"
	StatusInProgress = "IN_PROGRESS"
	StatusInReview   = "IN_REVIEW"
	StatusCompleted  = "COMPLETED"
	StatusPaid       = "PAID"
)

// AllStatuses returns the bounty statuses in board order
func AllStatuses() []string {
	return []string{StatusTodo, StatusInProgress, StatusInReview, StatusCompleted, StatusPaid}
}

// Named is a uuid/name pair used for features and phases
type Named struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// BountyCard is a bounty as shown on the workspace planner
type BountyCard struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Status        string `json:"status"`
	Features      Named  `json:"features"`
	Phase         Named  `json:"phase"`
	AssigneeName  string `json:"assignee_name"`
	WorkspaceUUID string `json:"workspace_uuid"`
}
