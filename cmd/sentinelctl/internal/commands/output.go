package commands

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/Wikid82/sentinel/internal/security"
)

var (
	colorRed    = color.New(color.FgRed, color.Bold).SprintFunc()
	colorYellow = color.New(color.FgYellow).SprintFunc()
	colorCyan   = color.New(color.FgCyan).SprintFunc()
	colorGreen  = color.New(color.FgGreen).SprintFunc()
	colorBold   = color.New(color.Bold).SprintFunc()
)

// colorSeverity renders a severity name in its alert colour. Unknown
// names pass through unchanged.
func colorSeverity(name string) string {
	sev, err := security.ParseSeverity(name)
	if err != nil {
		return name
	}
	switch sev {
	case security.SeverityCritical, security.SeverityHigh:
		return colorRed(sev.String())
	case security.SeverityMedium:
		return colorYellow(sev.String())
	case security.SeverityLow:
		return colorCyan(sev.String())
	default:
		return colorGreen(sev.String())
	}
}

func colorAction(a security.Action) string {
	switch {
	case a.Blocks():
		return colorRed(string(a))
	case a == security.ActionWarn:
		return colorYellow(string(a))
	default:
		return string(a)
	}
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
