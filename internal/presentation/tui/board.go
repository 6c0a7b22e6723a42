package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/brokerdesk/pkg/clients"
)

// BoardMarkdown renders a board as markdown: one section per stage with a
// table of its clients.
func BoardMarkdown(b *clients.Board) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", b.Name)
	fmt.Fprintf(&sb, "%d active clients\n\n", b.Count())

	for _, col := range b.Columns {
		fmt.Fprintf(&sb, "## %s (%d)\n\n", col.Stage.Title, len(col.Clients))
		if col.Stage.Description != "" {
			fmt.Fprintf(&sb, "_%s_\n\n", col.Stage.Description)
		}
		if len(col.Clients) == 0 {
			sb.WriteString("No clients.\n\n")
			continue
		}
		sb.WriteString("| Client | Status | Broker | Updated |\n")
		sb.WriteString("|---|---|---|---|\n")
		for _, c := range col.Clients {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n",
				cell(c.PersonalInfo.DisplayName()),
				c.Status,
				cell(c.Case.AssignedBroker),
				c.UpdatedAt.Format("2006-01-02"),
			)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}
