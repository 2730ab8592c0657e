package planner

import (
	"reflect"
	"testing"

	"github.com/saithsab877/hivechat/internal/models"
)

func testCards() []models.BountyCard {
	auth := models.Named{UUID: "f-auth", Name: "Auth"}
	billing := models.Named{UUID: "f-bill", Name: "Billing"}
	p1 := models.Named{UUID: "p-1", Name: "Phase 1"}
	p2 := models.Named{UUID: "p-2", Name: "Phase 2"}
	return []models.BountyCard{
		{ID: "1", Title: "Login page", Status: models.StatusTodo, Features: auth, Phase: p1, AssigneeName: "ana"},
		{ID: "2", Title: "OAuth flow", Status: models.StatusInProgress, Features: auth, Phase: p2},
		{ID: "3", Title: "Invoices", Status: models.StatusPaid, Features: billing, Phase: p1, AssigneeName: "bo"},
		{ID: "4", Title: "Fix typo", Status: models.StatusTodo},
		{ID: "5", Title: "Docs", Status: models.StatusCompleted},
	}
}

func TestFeatureOptions(t *testing.T) {
	got := FeatureOptions(testCards())
	want := []Option{
		{ID: NoFeatureID, Label: "No Feature (2)", Count: 2},
		{ID: "f-auth", Label: "Auth (2)", Count: 2},
		{ID: "f-bill", Label: "Billing (1)", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FeatureOptions() = %+v\nwant %+v", got, want)
	}

	if opts := FeatureOptions(testCards()[:3]); opts[0].ID == NoFeatureID {
		t.Error("no-feature option should be absent when every card has a feature")
	}
}

func TestPhaseOptions(t *testing.T) {
	got := PhaseOptions(testCards(), []string{"f-auth"})
	if len(got) != 2 || got[0].Label != "Phase 1 (1)" || got[1].Label != "Phase 2 (1)" {
		t.Errorf("PhaseOptions() = %+v", got)
	}
	if got := PhaseOptions(testCards(), nil); len(got) != 0 {
		t.Errorf("PhaseOptions(nil) = %+v", got)
	}
}

func TestStatusOptions(t *testing.T) {
	opts := StatusOptions()
	if len(opts) != 5 || opts[0].ID != models.StatusTodo || opts[4].ID != models.StatusPaid {
		t.Errorf("StatusOptions() = %+v", opts)
	}
}

func TestFilters_PhaseEnabled(t *testing.T) {
	var f Filters
	if f.PhaseEnabled() {
		t.Error("phase filter should be disabled with no feature selected")
	}

	f.ToggleFeature(NoFeatureID)
	if f.PhaseEnabled() {
		t.Error("phase filter should be disabled with only no-feature selected")
	}
	f.TogglePhase("p-1")
	if len(f.Phases()) != 0 {
		t.Error("TogglePhase() should be ignored while disabled")
	}

	f.ToggleFeature("f-auth")
	if !f.PhaseEnabled() {
		t.Error("phase filter should be enabled with a feature selected")
	}
	f.TogglePhase("p-1")

	f.ToggleFeature("f-auth")
	if len(f.Phases()) != 0 {
		t.Error("phases should be cleared once the phase filter is disabled")
	}
}

func TestFilters_Match(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *Filters)
		want  []string
	}{
		{"no filters", func(f *Filters) {}, []string{"1", "2", "3", "4", "5"}},
		{"one feature", func(f *Filters) { f.ToggleFeature("f-auth") }, []string{"1", "2"}},
		{"no feature", func(f *Filters) { f.ToggleFeature(NoFeatureID) }, []string{"4", "5"}},
		{"features or", func(f *Filters) {
			f.ToggleFeature("f-auth")
			f.ToggleFeature("f-bill")
		}, []string{"1", "2", "3"}},
		{"feature and phase", func(f *Filters) {
			f.ToggleFeature("f-auth")
			f.TogglePhase("p-2")
		}, []string{"2"}},
		{"status", func(f *Filters) { f.ToggleStatus(models.StatusTodo) }, []string{"1", "4"}},
		{"status and feature", func(f *Filters) {
			f.ToggleStatus(models.StatusTodo)
			f.ToggleFeature(NoFeatureID)
		}, []string{"4"}},
		{"search title", func(f *Filters) {
			f.TypeSearch("oauth")
			f.SubmitSearch()
		}, []string{"2"}},
		{"search assignee", func(f *Filters) {
			f.TypeSearch("bo")
			f.SubmitSearch()
		}, []string{"3"}},
		{"toggle twice", func(f *Filters) {
			f.ToggleStatus(models.StatusPaid)
			f.ToggleStatus(models.StatusPaid)
		}, []string{"1", "2", "3", "4", "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Filters
			tt.setup(&f)
			var got []string
			for _, c := range f.Apply(testCards()) {
				got = append(got, c.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("matched %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilters_SearchDebounce(t *testing.T) {
	var f Filters

	first := f.TypeSearch("lo")
	second := f.TypeSearch("log")
	if f.ApplySearch(first) {
		t.Error("superseded search should not apply")
	}
	if !f.ApplySearch(second) || f.Search() != "log" {
		t.Errorf("Search() = %q, want log", f.Search())
	}
	if f.ApplySearch(second) {
		t.Error("a search applies only once")
	}
}

func TestFilters_SearchMinLength(t *testing.T) {
	var f Filters
	f.TypeSearch("in")
	f.SubmitSearch()

	seq := f.TypeSearch("x")
	if f.ApplySearch(seq) {
		t.Error("one-character search should not apply")
	}
	if f.Search() != "in" {
		t.Errorf("Search() = %q, previous search should stay", f.Search())
	}

	f.TypeSearch("")
	if !f.SubmitSearch() || f.Search() != "" {
		t.Error("empty search should clear the filter")
	}
}

func TestFilters_SubmitCancelsPending(t *testing.T) {
	var f Filters
	seq := f.TypeSearch("docs")
	f.SubmitSearch()
	if f.ApplySearch(seq) {
		t.Error("debounced apply after Enter should be a no-op")
	}
	if f.Search() != "docs" {
		t.Errorf("Search() = %q", f.Search())
	}
}

func TestFilters_Clear(t *testing.T) {
	var f Filters
	f.ToggleFeature("f-auth")
	f.TogglePhase("p-1")
	f.ToggleStatus(models.StatusTodo)

	f.ClearStatuses()
	if len(f.Statuses()) != 0 || len(f.Features()) != 1 {
		t.Error("ClearStatuses() should only clear statuses")
	}
	f.ClearPhases()
	if len(f.Phases()) != 0 {
		t.Error("ClearPhases() failed")
	}
	f.TogglePhase("p-1")
	f.ClearFeatures()
	if f.Active() {
		t.Error("ClearFeatures() should also clear phases")
	}
}
