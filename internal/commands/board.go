package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/saithsab877/hivechat/internal/models"
	"github.com/saithsab877/hivechat/internal/planner"
	"github.com/saithsab877/hivechat/internal/tui"
)

// boardFlags are the filter flags of the board command
type boardFlags struct {
	features []string
	phases   []string
	statuses []string
	search   string
	options  bool
	plain    bool
}

func newBoardCmd(a *app) *cobra.Command {
	var f boardFlags

	cmd := &cobra.Command{
		Use:   "board [workspace]",
		Short: "List the bounties of a workspace",
		Long: `List the bounty cards of a workspace planner.

Filters combine across kinds and match any value within a kind. Features and
phases may be given by name or uuid; use "no-feature" for cards without a
feature. Phases only apply when a feature is selected. --options prints the
available filter values instead of the cards.

In a terminal the board opens in a viewer that starts from the given filters:
Tab moves between panes, Space toggles a value, 'c' clears a pane and typed
search text applies after a short pause or at once with Enter. With --plain,
or when stdout is not a terminal, the filtered table is printed instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			workspace := s.cfg.Workspace
			if len(args) > 0 {
				workspace = args[0]
			}
			if workspace == "" {
				return fmt.Errorf("no workspace given (pass one or run 'hivechat config set workspace <uuid>')")
			}

			cards, err := s.client.BountyCards(cmd.Context(), workspace)
			if err != nil {
				printError(cmd.ErrOrStderr(), err, "Failed to load bounties")
				return err
			}

			filters, warnings := buildFilters(cards, f)
			for _, w := range warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: "+w)
			}

			if f.options {
				writeBoardOptions(cmd.OutOrStdout(), cards, filters)
				return nil
			}
			if f.plain || !a.deps.IsTTY() {
				return writeBoard(cmd.OutOrStdout(), filters.Apply(cards), len(cards))
			}

			tui.UpdateTheme(s.cfg.TUITheme)
			return a.deps.TUI.RunBoard(tui.NewBoardModel(cards, filters, s.logger))
		},
	}

	cmd.Flags().StringSliceVar(&f.features, "feature", nil, "Feature name or uuid (repeatable)")
	cmd.Flags().StringSliceVar(&f.phases, "phase", nil, "Phase name or uuid (repeatable)")
	cmd.Flags().StringSliceVar(&f.statuses, "status", nil, "Status: TODO, IN_PROGRESS, IN_REVIEW, COMPLETED, PAID (repeatable)")
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "Match title or assignee")
	cmd.Flags().BoolVar(&f.options, "options", false, "Print the available filter values")
	cmd.Flags().BoolVar(&f.plain, "plain", false, "Print the table instead of opening the viewer")
	return cmd
}

// buildFilters turns the flag values into planner filters. Values that
// cannot be applied are reported as warnings.
func buildFilters(cards []models.BountyCard, f boardFlags) (*planner.Filters, []string) {
	filters := &planner.Filters{}
	var warnings []string

	seen := make(map[string]bool)
	for _, v := range f.features {
		id := resolveNamed(v, cards, func(c models.BountyCard) models.Named { return c.Features })
		if v == planner.NoFeatureID {
			id = planner.NoFeatureID
		}
		if !seen["f:"+id] {
			seen["f:"+id] = true
			filters.ToggleFeature(id)
		}
	}

	for _, v := range f.phases {
		if !filters.PhaseEnabled() {
			warnings = append(warnings, fmt.Sprintf("phase %q ignored: select a feature first", v))
			continue
		}
		id := resolveNamed(v, cards, func(c models.BountyCard) models.Named { return c.Phase })
		if !seen["p:"+id] {
			seen["p:"+id] = true
			filters.TogglePhase(id)
		}
	}

	valid := make(map[string]bool)
	for _, o := range planner.StatusOptions() {
		valid[o.ID] = true
	}
	for _, v := range f.statuses {
		status := strings.ToUpper(strings.TrimSpace(v))
		if !valid[status] {
			warnings = append(warnings, fmt.Sprintf("unknown status %q ignored", v))
			continue
		}
		if !seen["s:"+status] {
			seen["s:"+status] = true
			filters.ToggleStatus(status)
		}
	}

	if f.search != "" {
		filters.TypeSearch(f.search)
		filters.SubmitSearch()
		if filters.Search() == "" {
			warnings = append(warnings, fmt.Sprintf("search %q ignored: use at least %d characters", f.search, planner.MinSearchLen))
		}
	}

	return filters, warnings
}

// resolveNamed maps a name to its uuid; unknown names are used as uuids
func resolveNamed(v string, cards []models.BountyCard, get func(models.BountyCard) models.Named) string {
	v = strings.TrimSpace(v)
	for _, c := range cards {
		n := get(c)
		if n.UUID != "" && (n.UUID == v || strings.EqualFold(n.Name, v)) {
			return n.UUID
		}
	}
	return v
}

func writeBoard(out io.Writer, cards []models.BountyCard, total int) error {
	if len(cards) == 0 {
		fmt.Fprintf(out, "No bounties match (%d total).\n", total)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tFEATURE\tPHASE\tASSIGNEE")
	_, _ = fmt.Fprintln(w, "--\t-----\t------\t-------\t-----\t--------")
	for _, c := range cards {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID,
			truncate(c.Title, 40),
			orDash(strings.ToUpper(c.Status)),
			orDash(c.Features.Name),
			orDash(c.Phase.Name),
			orDash(c.AssigneeName),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d of %d bounties\n", len(cards), total)
	return nil
}

func writeBoardOptions(out io.Writer, cards []models.BountyCard, filters *planner.Filters) {
	fmt.Fprintln(out, "Features:")
	for _, o := range planner.FeatureOptions(cards) {
		fmt.Fprintf(out, "  %-12s %s\n", o.ID, o.Label)
	}

	fmt.Fprintln(out, "Phases:")
	if !filters.PhaseEnabled() {
		fmt.Fprintln(out, "  (select a feature to list its phases)")
	} else {
		for _, o := range planner.PhaseOptions(cards, filters.Features()) {
			fmt.Fprintf(out, "  %-12s %s\n", o.ID, o.Label)
		}
	}

	fmt.Fprintln(out, "Statuses:")
	for _, o := range planner.StatusOptions() {
		fmt.Fprintf(out, "  %s\n", o.Label)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
