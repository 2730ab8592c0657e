// Package planner filters workspace bounty cards by feature, phase,
// status and free text.
package planner

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/saithsab877/hivechat/internal/chat"
	"github.com/saithsab877/hivechat/internal/models"
)

const (
	// NoFeatureID selects cards that belong to no feature
	NoFeatureID = "no-feature"
	// MinSearchLen is the shortest search text that filters anything
	MinSearchLen = 2
	// SearchDebounce delays applying typed search text
	SearchDebounce = 300 * time.Millisecond
)

// Option is one selectable filter value
type Option struct {
	ID    string
	Label string
	Count int
}

// FeatureOptions lists one option per feature found in cards, sorted by
// label, preceded by the no-feature option when any card lacks a feature.
func FeatureOptions(cards []models.BountyCard) []Option {
	counts := make(map[string]int)
	names := make(map[string]string)
	none := 0
	for _, c := range cards {
		if c.Features.UUID == "" {
			none++
			continue
		}
		counts[c.Features.UUID]++
		if names[c.Features.UUID] == "" {
			names[c.Features.UUID] = c.Features.Name
		}
	}

	opts := make([]Option, 0, len(counts)+1)
	for id, n := range counts {
		name := names[id]
		if name == "" {
			name = id
		}
		opts = append(opts, Option{ID: id, Label: fmt.Sprintf("%s (%d)", name, n), Count: n})
	}
	sort.Slice(opts, func(i, j int) bool {
		if opts[i].Label == opts[j].Label {
			return opts[i].ID < opts[j].ID
		}
		return opts[i].Label < opts[j].Label
	})

	if none > 0 {
		opts = append([]Option{{ID: NoFeatureID, Label: fmt.Sprintf("No Feature (%d)", none), Count: none}}, opts...)
	}
	return opts
}

// PhaseOptions lists the phases of the cards whose feature is in features,
// sorted by label.
func PhaseOptions(cards []models.BountyCard, features []string) []Option {
	want := make(map[string]bool, len(features))
	for _, f := range features {
		want[f] = true
	}

	counts := make(map[string]int)
	names := make(map[string]string)
	for _, c := range cards {
		if c.Phase.UUID == "" || !want[c.Features.UUID] {
			continue
		}
		counts[c.Phase.UUID]++
		if names[c.Phase.UUID] == "" {
			names[c.Phase.UUID] = c.Phase.Name
		}
	}

	opts := make([]Option, 0, len(counts))
	for id, n := range counts {
		name := names[id]
		if name == "" {
			name = id
		}
		opts = append(opts, Option{ID: id, Label: fmt.Sprintf("%s (%d)", name, n), Count: n})
	}
	sort.Slice(opts, func(i, j int) bool { return opts[i].Label < opts[j].Label })
	return opts
}

// StatusOptions lists the bounty statuses in board order
func StatusOptions() []Option {
	statuses := models.AllStatuses()
	opts := make([]Option, len(statuses))
	for i, s := range statuses {
		opts[i] = Option{ID: s, Label: s}
	}
	return opts
}

// Filters is the planner's filter state. The zero value matches every card.
type Filters struct {
	features map[string]bool
	phases   map[string]bool
	statuses map[string]bool

	search  string
	draft   string
	pending chat.PendingWrite
}

// ToggleFeature selects or deselects a feature. Phases are cleared when
// the phase filter becomes unavailable.
func (f *Filters) ToggleFeature(id string) {
	f.features = toggle(f.features, id)
	if !f.PhaseEnabled() {
		f.phases = nil
	}
}

// TogglePhase selects or deselects a phase. It does nothing while the
// phase filter is disabled.
func (f *Filters) TogglePhase(id string) {
	if !f.PhaseEnabled() {
		return
	}
	f.phases = toggle(f.phases, id)
}

// ToggleStatus selects or deselects a status
func (f *Filters) ToggleStatus(status string) {
	f.statuses = toggle(f.statuses, status)
}

// ClearFeatures drops every feature selection and the phases with them
func (f *Filters) ClearFeatures() {
	f.features = nil
	f.phases = nil
}

// ClearPhases drops every phase selection
func (f *Filters) ClearPhases() {
	f.phases = nil
}

// ClearStatuses drops every status selection
func (f *Filters) ClearStatuses() {
	f.statuses = nil
}

// PhaseEnabled reports whether phases can be filtered: at least one real
// feature must be selected.
func (f *Filters) PhaseEnabled() bool {
	for id := range f.features {
		if id != NoFeatureID {
			return true
		}
	}
	return false
}

// Features returns the selected feature ids, sorted
func (f *Filters) Features() []string { return keys(f.features) }

// Phases returns the selected phase ids, sorted
func (f *Filters) Phases() []string { return keys(f.phases) }

// Statuses returns the selected statuses, sorted
func (f *Filters) Statuses() []string { return keys(f.statuses) }

// Search returns the applied search text
func (f *Filters) Search() string { return f.search }

// Draft returns the typed, possibly not yet applied, search text
func (f *Filters) Draft() string { return f.draft }

// TypeSearch records typed text and returns the sequence to pass to
// ApplySearch once SearchDebounce has elapsed.
func (f *Filters) TypeSearch(text string) uint64 {
	f.draft = text
	return f.pending.Schedule(text)
}

// ApplySearch applies the typed text scheduled as seq if it is still the
// latest. It reports whether the applied search changed.
func (f *Filters) ApplySearch(seq uint64) bool {
	text, ok := f.pending.Take(seq)
	if !ok {
		return false
	}
	return f.setSearch(text)
}

// SubmitSearch applies the typed text immediately
func (f *Filters) SubmitSearch() bool {
	f.pending.Cancel()
	return f.setSearch(f.draft)
}

func (f *Filters) setSearch(text string) bool {
	text = strings.TrimSpace(text)
	if text != "" && len([]rune(text)) < MinSearchLen {
		return false
	}
	if text == f.search {
		return false
	}
	f.search = text
	return true
}

// Active reports whether any filter is applied
func (f *Filters) Active() bool {
	return len(f.features) > 0 || len(f.phases) > 0 || len(f.statuses) > 0 || f.search != ""
}

// Match reports whether card passes every active filter. Values within a
// dimension are alternatives.
func (f *Filters) Match(card models.BountyCard) bool {
	if len(f.features) > 0 {
		id := card.Features.UUID
		if id == "" {
			id = NoFeatureID
		}
		if !f.features[id] {
			return false
		}
	}
	if len(f.phases) > 0 && !f.phases[card.Phase.UUID] {
		return false
	}
	if len(f.statuses) > 0 && !f.statuses[strings.ToUpper(card.Status)] {
		return false
	}
	if f.search != "" {
		q := strings.ToLower(f.search)
		if !strings.Contains(strings.ToLower(card.Title), q) &&
			!strings.Contains(strings.ToLower(card.AssigneeName), q) {
			return false
		}
	}
	return true
}

// Apply returns the cards that match, in their original order
func (f *Filters) Apply(cards []models.BountyCard) []models.BountyCard {
	out := make([]models.BountyCard, 0, len(cards))
	for _, c := range cards {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

func toggle(set map[string]bool, id string) map[string]bool {
	if set[id] {
		delete(set, id)
		return set
	}
	if set == nil {
		set = make(map[string]bool)
	}
	set[id] = true
	return set
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
