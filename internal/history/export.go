package history

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/saithsab877/hivechat/internal/models"
)

// ExportFormat represents the format for exporting a transcript
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
)

// ParseExportFormat accepts "markdown", "md" or "json"
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return ExportFormatMarkdown, nil
	case "json":
		return ExportFormatJSON, nil
	}
	return "", fmt.Errorf("unknown export format %q (use markdown or json)", s)
}

// Export renders a loaded chat transcript in the given format
func (s *Store) Export(chatID string, format ExportFormat) ([]byte, error) {
	switch format {
	case ExportFormatJSON:
		return s.ExportToJSON(chatID)
	default:
		return []byte(s.ExportToMarkdown(chatID)), nil
	}
}

// ExportToMarkdown renders a loaded chat transcript as Markdown
func (s *Store) ExportToMarkdown(chatID string) string {
	chat, _ := s.GetChat(chatID)
	msgs := s.Messages(chatID)

	var sb strings.Builder

	title := chat.Title
	if title == "" {
		title = "Chat " + chatID
	}
	sb.WriteString("# ")
	sb.WriteString(title)
	sb.WriteString("\n\n")

	if !chat.CreatedAt.IsZero() {
		sb.WriteString("**Created:** ")
		sb.WriteString(chat.CreatedAt.Format("2006-01-02 15:04:05"))
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("**Messages:** %d\n\n---\n\n", len(msgs)))

	for i, msg := range msgs {
		role := "User"
		if msg.Role == models.RoleAssistant {
			role = "Hive"
		}

		sb.WriteString("## ")
		sb.WriteString(role)
		if !msg.Timestamp.IsZero() {
			sb.WriteString(" (")
			sb.WriteString(msg.Timestamp.Format("15:04:05"))
			sb.WriteString(")")
		}
		sb.WriteString("\n\n")
		sb.WriteString(msg.Message)
		sb.WriteString("\n")

		if i < len(msgs)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

// ExportToJSON renders a loaded chat transcript as indented JSON
func (s *Store) ExportToJSON(chatID string) ([]byte, error) {
	chat, _ := s.GetChat(chatID)

	type exportChat struct {
		ID          string               `json:"id"`
		Title       string               `json:"title"`
		WorkspaceID string               `json:"workspace_id,omitempty"`
		CreatedAt   time.Time            `json:"created_at"`
		UpdatedAt   time.Time            `json:"updated_at"`
		Messages    []models.ChatMessage `json:"messages"`
	}

	return json.MarshalIndent(exportChat{
		ID:          chatID,
		Title:       chat.Title,
		WorkspaceID: chat.WorkspaceID,
		CreatedAt:   chat.CreatedAt,
		UpdatedAt:   chat.UpdatedAt,
		Messages:    s.Messages(chatID),
	}, "", "  ")
}

// SearchResult is a message matching a search query
type SearchResult struct {
	Index   int
	Message models.ChatMessage
	Snippet string
}

// Search returns the messages of a loaded chat containing query, case-insensitively
func (s *Store) Search(chatID, query string) []SearchResult {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var results []SearchResult
	for i, msg := range s.Messages(chatID) {
		lower := strings.ToLower(msg.Message)
		idx := strings.Index(lower, query)
		if idx < 0 {
			continue
		}
		results = append(results, SearchResult{
			Index:   i,
			Message: msg,
			Snippet: snippet(msg.Message, idx, len(query), 30),
		})
	}
	return results
}

// snippet returns the text around [start, start+n) with context bytes on each side
func snippet(text string, start, n, context int) string {
	start = min(start, len(text))
	from := max(start-context, 0)
	to := min(start+n+context, len(text))
	for from > 0 && !utf8.RuneStart(text[from]) {
		from--
	}
	for to < len(text) && !utf8.RuneStart(text[to]) {
		to++
	}
	out := strings.ReplaceAll(text[from:to], "\n", " ")
	if from > 0 {
		out = "..." + out
	}
	if to < len(text) {
		out += "..."
	}
	return out
}
