package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Wikid82/sentinel/internal/app"
	"github.com/Wikid82/sentinel/internal/patterns"
)

func NewPatternsCommand() *cobra.Command {
	var module string
	var stats bool
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "List the detection catalog or its match counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			if stats {
				return withApp(cmd, func(a *app.App) error {
					rows, err := a.Audit.ListAttackPatterns(cmd.Context(), limit)
					if err != nil {
						return err
					}
					if asJSON {
						return writeJSON(cmd.OutOrStdout(), rows)
					}
					table := newTable(cmd.OutOrStdout(), "Pattern", "Module", "Category", "Severity", "Matches")
					for _, r := range rows {
						table.Append([]string{r.PatternID, r.Module, r.Category, colorSeverity(r.Severity), strconv.FormatInt(r.TimesMatched, 10)})
					}
					table.Render()
					return nil
				})
			}

			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			var entries []patterns.Entry
			for _, e := range patterns.All() {
				if module == "" || e.Module == module {
					entries = append(entries, e)
				}
			}
			if len(entries) == 0 {
				return fmt.Errorf("unknown module %q", module)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			table := newTable(cmd.OutOrStdout(), "ID", "Module", "Category", "Severity", "FP risk", "Enabled")
			for _, e := range entries {
				table.Append([]string{
					e.Pattern.ID,
					e.Module,
					e.Pattern.Category,
					colorSeverity(e.Pattern.Severity.String()),
					string(e.Pattern.FalsePositiveRisk),
					strconv.FormatBool(e.Pattern.Enabled),
				})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&module, "module", "", "Only rules of this module")
	cmd.Flags().BoolVar(&stats, "stats", false, "Show how often rules matched instead of the catalog")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows with --stats")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}
