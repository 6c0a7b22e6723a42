package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/stage"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	VisitedStages []domain.Stage
	CurrentStage  domain.Stage
	// Counts annotates each stage with the number of clients in it.
	Counts map[domain.Stage]int
}

// OverlayFor builds an overlay from a client's position and timeline.
func OverlayFor(c *domain.Client) *GraphOverlay {
	o := &GraphOverlay{CurrentStage: c.PipelineStage}
	for i := len(c.Timeline) - 1; i >= 0; i-- {
		e := c.Timeline[i]
		if e.StageMoved != nil {
			o.VisitedStages = append(o.VisitedStages, e.StageMoved.From)
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of a stage graph.
// The entry stage is drawn as a circle, stages with automated actions
// as subroutines and terminal stages as stadiums.
// Backward transitions (to a lower order) use a dotted arrow.
func GenerateMermaid(g *stage.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	stages := g.AllStages()
	order := make(map[domain.Stage]int, len(stages))
	for _, s := range stages {
		order[s.ID] = s.Order
	}

	for _, s := range stages {
		safeID := sanitizeMermaidID(string(s.ID))

		opener, closer := "[", "]"
		switch {
		case s.ID == g.EntryStage():
			opener, closer = "((", "))"
		case len(s.AllowedTransitions) == 0:
			opener, closer = "([", "])"
		case len(s.AutomatedActions) > 0:
			opener, closer = "[[", "]]"
		}

		title := strings.ReplaceAll(s.Title, "\"", "'")
		if title == "" {
			title = string(s.ID)
		}
		if overlay != nil && overlay.Counts != nil {
			title = fmt.Sprintf("%s (%d)", title, overlay.Counts[s.ID])
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, title, closer))

		for _, to := range s.AllowedTransitions {
			arrow := "-->"
			if order[to] < s.Order {
				arrow = "-.->"
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeID, arrow, sanitizeMermaidID(string(to))))
		}
	}

	if overlay != nil && (len(overlay.VisitedStages) > 0 || overlay.CurrentStage != "") {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast on both themes
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedStages {
			if !g.Has(id) {
				continue
			}
			safeID := sanitizeMermaidID(string(id))
			if !seen[safeID] && id != overlay.CurrentStage {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.CurrentStage != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(string(overlay.CurrentStage))))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
