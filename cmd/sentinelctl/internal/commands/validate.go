package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Wikid82/sentinel/internal/app"
	"github.com/Wikid82/sentinel/internal/engine"
	"github.com/Wikid82/sentinel/internal/security"
	"github.com/Wikid82/sentinel/internal/util"
)

func NewValidateCommand() *cobra.Command {
	var userID, sessionID string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate [text]",
		Short: "Screen text through the validation engine",
		Long: `Runs text through every enabled detection module and prints the
decision. Pass "-" or no argument to read the text from stdin. The
result is recorded in the audit trail like any other validation.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}
			return withApp(cmd, func(a *app.App) error {
				res, err := a.Engine.Validate(cmd.Context(), text, engine.Metadata{
					UserID:    userID,
					SessionID: sessionID,
					Context:   map[string]any{"event_type": "cli"},
				})
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), res)
				}
				printResult(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "sentinelctl", "Identity the text is attributed to")
	cmd.Flags().StringVar(&sessionID, "session", "cli", "Session id recorded with the event")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	return cmd
}

func readText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	raw, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(raw), "\n"), nil
}

func printResult(w io.Writer, res *security.ValidationResult) {
	fmt.Fprintf(w, "%s %s  %s %s\n", colorBold("Severity:"), colorSeverity(res.Severity.String()), colorBold("Action:"), colorAction(res.Action))
	fmt.Fprintf(w, "%s %s\n", colorBold("Reasoning:"), res.Reasoning)
	if res.BypassReason != "" {
		fmt.Fprintf(w, "%s %s\n", colorBold("Bypass:"), res.BypassReason)
	}
	fmt.Fprintf(w, "%s %s\n", colorBold("Fingerprint:"), res.Fingerprint)
	for module, msg := range res.ModuleErrors {
		fmt.Fprintf(w, "%s %s: %s\n", colorYellow("Module error:"), module, msg)
	}

	if len(res.Findings) > 0 {
		table := newTable(w, "Module", "Pattern", "Category", "Severity", "Match")
		for _, f := range res.Findings {
			table.Append([]string{
				f.Module,
				f.Pattern.ID,
				f.Pattern.Category,
				colorSeverity(f.Severity.String()),
				util.Truncate(util.SanitizeForLog(f.Match), 60),
			})
		}
		table.Render()
	}
	for _, r := range res.Recommendations {
		fmt.Fprintf(w, "  - %s\n", r)
	}
}
