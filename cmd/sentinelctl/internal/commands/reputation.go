package commands

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Wikid82/sentinel/internal/app"
	"github.com/Wikid82/sentinel/internal/models"
	"github.com/Wikid82/sentinel/internal/reputation"
)

func NewReputationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reputation",
		Short: "Inspect and edit identity trust records",
	}
	cmd.AddCommand(newReputationGetCommand(), newReputationSetCommand(), newReputationListCommand())
	return cmd
}

func newReputationGetCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "get <user-id>",
		Short: "Show one identity's reputation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				rep, err := a.Engine.Reputation().Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), rep)
				}
				printReputations(cmd.OutOrStdout(), rep)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newReputationSetCommand() *cobra.Command {
	var allowlist, blocklist bool
	var notes string
	var trust int

	cmd := &cobra.Command{
		Use:   "set <user-id>",
		Short: "Change list membership, notes or trust score",
		Long: `Only the flags that are given change; everything else is kept.
Examples:
  sentinelctl reputation set mallory --blocklist
  sentinelctl reputation set ci-bot --allowlist --notes "build pipeline"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var f reputation.Flags
			if cmd.Flags().Changed("allowlist") {
				f.Allowlisted = &allowlist
			}
			if cmd.Flags().Changed("blocklist") {
				f.Blocklisted = &blocklist
			}
			if cmd.Flags().Changed("notes") {
				f.Notes = &notes
			}
			if cmd.Flags().Changed("trust") {
				f.TrustScore = &trust
			}
			if f == (reputation.Flags{}) {
				return fmt.Errorf("nothing to change: pass --allowlist, --blocklist, --notes or --trust")
			}
			return withApp(cmd, func(a *app.App) error {
				rep, err := a.Engine.Reputation().SetFlags(cmd.Context(), args[0], f)
				if err != nil {
					return err
				}
				printReputations(cmd.OutOrStdout(), rep)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&allowlist, "allowlist", false, "Allowlist the identity (use --allowlist=false to remove)")
	cmd.Flags().BoolVar(&blocklist, "blocklist", false, "Blocklist the identity (use --blocklist=false to remove)")
	cmd.Flags().StringVar(&notes, "notes", "", "Operator notes")
	cmd.Flags().IntVar(&trust, "trust", 0, "Override the trust score (0-100)")
	return cmd
}

func newReputationListCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the least trusted identities in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				reps, err := a.Reputations.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				printReputations(cmd.OutOrStdout(), reps...)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of identities")
	return cmd
}

func printReputations(w io.Writer, reps ...models.UserReputation) {
	table := newTable(w, "User", "Trust", "Requests", "Blocked", "Lists", "Last violation", "Notes")
	for _, rep := range reps {
		var lists []string
		if rep.Blocklisted {
			lists = append(lists, colorRed("blocklisted"))
		}
		if rep.Allowlisted {
			lists = append(lists, colorGreen("allowlisted"))
		}
		last := "-"
		if rep.LastViolation != nil {
			last = rep.LastViolation.Local().Format(time.DateTime)
		}
		table.Append([]string{
			rep.UserID,
			strconv.Itoa(rep.TrustScore),
			strconv.FormatInt(rep.TotalRequests, 10),
			strconv.FormatInt(rep.BlockedAttempts, 10),
			joinOrDash(lists),
			last,
			rep.Notes,
		})
	}
	table.Render()
}
