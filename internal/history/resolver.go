package history

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/saithsab877/hivechat/internal/models"
)

// Resolver resolves user-friendly references to chat IDs within a workspace
type Resolver struct {
	store     *Store
	workspace string
}

// NewResolver creates a resolver for the chats of workspace
func NewResolver(store *Store, workspace string) *Resolver {
	return &Resolver{store: store, workspace: workspace}
}

// Resolve converts a reference to a chat.
//
// Supported references:
//   - "@last" - most recently updated chat
//   - "@first" - least recently updated chat
//   - "1", "2", "3" - by index in the chats listing (1-based)
//   - exact chat id
//   - "substring" - match on title (error if several match)
func (r *Resolver) Resolve(ctx context.Context, ref string) (models.Chat, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Chat{}, fmt.Errorf("empty reference")
	}

	chats, err := r.store.LoadChats(ctx, r.workspace)
	if err != nil {
		return models.Chat{}, err
	}
	return resolveIn(chats, ref)
}

func resolveIn(chats []models.Chat, ref string) (models.Chat, error) {
	for _, c := range chats {
		if c.ID == ref {
			return c, nil
		}
	}

	if len(chats) == 0 {
		return models.Chat{}, fmt.Errorf("no chats found")
	}

	switch strings.ToLower(ref) {
	case "@last":
		return chats[0], nil
	case "@first":
		return chats[len(chats)-1], nil
	}

	if index, err := strconv.Atoi(ref); err == nil {
		if index < 1 || index > len(chats) {
			return models.Chat{}, fmt.Errorf("index %d out of range (1-%d)", index, len(chats))
		}
		return chats[index-1], nil
	}

	refLower := strings.ToLower(ref)
	var matches []models.Chat
	for _, c := range chats {
		if strings.Contains(strings.ToLower(c.Title), refLower) {
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 0:
		return models.Chat{}, fmt.Errorf("no chat matching '%s'", ref)
	case 1:
		return matches[0], nil
	default:
		var titles []string
		for _, m := range matches {
			titles = append(titles, fmt.Sprintf("'%s'", m.Title))
		}
		return models.Chat{}, fmt.Errorf("multiple chats match '%s': %s. Use the id or be more specific",
			ref, strings.Join(titles, ", "))
	}
}

// ListAliases returns information about supported references
func ListAliases() string {
	return `Supported references:
  @last          Most recently updated chat
  @first         Least recently updated chat
  1, 2, 3...     Chat by position in 'hivechat chats'
  <id>           Exact chat id
  <text>         Chat whose title contains text`
}
