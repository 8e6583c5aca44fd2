package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Wikid82/sentinel/internal/app"
	"github.com/Wikid82/sentinel/internal/services"
	"github.com/Wikid82/sentinel/internal/util"
)

func NewEventsCommand() *cobra.Command {
	var f services.EventFilter
	var since time.Duration
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List recent security events",
		RunE: func(cmd *cobra.Command, args []string) error {
			if since > 0 {
				f.Since = time.Now().Add(-since)
			}
			return withApp(cmd, func(a *app.App) error {
				events, err := a.Audit.ListEvents(cmd.Context(), f)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), events)
				}
				if len(events) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No events found.")
					return nil
				}
				table := newTable(cmd.OutOrStdout(), "Time", "User", "Severity", "Action", "Patterns", "Input")
				for _, ev := range events {
					ids, _ := ev.PatternIDs()
					table.Append([]string{
						ev.CreatedAt.Local().Format(time.DateTime),
						ev.UserID,
						colorSeverity(ev.Severity),
						ev.Action,
						joinOrDash(ids),
						util.Truncate(util.SanitizeForLog(ev.InputText), 48),
					})
				}
				table.Render()
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&f.UserID, "user", "", "Only events for this identity")
	cmd.Flags().StringVar(&f.Severity, "severity", "", "Only events of this severity")
	cmd.Flags().IntVar(&f.Limit, "limit", 20, "Maximum number of events")
	cmd.Flags().DurationVar(&since, "since", 0, "Only events newer than this, e.g. 24h")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func NewStatsCommand() *cobra.Command {
	var since time.Duration
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise events over a time window",
		RunE: func(cmd *cobra.Command, args []string) error {
			if since <= 0 {
				return fmt.Errorf("--since must be positive")
			}
			return withApp(cmd, func(a *app.App) error {
				st, err := a.Audit.Stats(cmd.Context(), time.Now().Add(-since))
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), st)
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "%s last %s\n", colorBold("Window:"), since)
				fmt.Fprintf(w, "%s %d  %s %d  %s %d\n",
					colorBold("Events:"), st.Total, colorBold("Blocked:"), st.Blocked, colorBold("Users:"), st.UniqueUsers)

				table := newTable(w, "Severity", "Events")
				for _, name := range []string{"CRITICAL", "HIGH", "MEDIUM", "LOW", "SAFE"} {
					table.Append([]string{colorSeverity(name), fmt.Sprint(st.BySeverity[name])})
				}
				table.Render()

				if len(st.TopPatterns) > 0 {
					top := make([]string, 0, len(st.TopPatterns))
					for _, p := range st.TopPatterns {
						top = append(top, fmt.Sprintf("%s (%d)", p.Name, p.Count))
					}
					fmt.Fprintf(w, "%s %s\n", colorBold("Top patterns:"), strings.Join(top, ", "))
				}
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "Window to summarise")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func NewPurgeCommand() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete events older than --days",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				n, err := a.Audit.PurgeOlderThan(cmd.Context(), days)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Purged %d events older than %d days.\n", n, days)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 90, "Retention window in days")
	return cmd
}
