package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
)

// Overlay contains dynamic build state to visualize on the tree.
type Overlay struct {
	CursorNode domain.NodeID
}

// GenerateMermaid produces a Mermaid flowchart syntax string from a tree
// snapshot. It applies semantic styling:
// - Document root: ((Circle))
// - Heading: [/Parallelogram/]
// - Figure/Table: [[Subroutine]]
// - Default: [Rectangle]
// Committed and waiting elements get their own classes; the edge into a
// waiting element is dashed. The overlay highlights the cursor if provided.
func GenerateMermaid(infos []domain.NodeInfo, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	var committed, waiting []string

	for _, info := range infos {
		safeID := fmt.Sprintf("n%d", info.ID)

		// Node Shape based on Role
		opener, closer := "[", "]"
		switch info.Role {
		case domain.RoleDocument:
			opener, closer = "((", "))" // Circle
		case domain.RoleHeading:
			opener, closer = "[/", "/]" // Parallelogram
		case domain.RoleFigure, domain.RoleTable:
			opener, closer = "[[", "]]" // Subroutine
		}

		label := fmt.Sprintf("%s #%d", info.Role, info.ID)
		if info.Title != "" {
			// Escape double quotes for Mermaid labels
			safeTitle := strings.ReplaceAll(info.Title, "\"", "'")
			label = fmt.Sprintf("%s <br/> %s", label, safeTitle)
		}
		if info.Waiting {
			label += " ⏳"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))

		if info.ParentID != 0 {
			arrow := "-->"
			if info.Waiting {
				arrow = "-.->"
			}
			sb.WriteString(fmt.Sprintf("    n%d %s %s\n", info.ParentID, arrow, safeID))
		}

		if info.Committed {
			committed = append(committed, safeID)
		}
		if info.Waiting {
			waiting = append(waiting, safeID)
		}
	}

	sb.WriteString("\n    %% Build State Styles\n")
	// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
	sb.WriteString("    classDef committed fill:#e8f5e9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef waiting fill:#fff3e0,stroke:#ef6c00,stroke-width:2px,stroke-dasharray: 5 5,color:#000;\n")
	sb.WriteString("    classDef cursor fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

	for _, id := range committed {
		sb.WriteString(fmt.Sprintf("    class %s committed;\n", id))
	}
	for _, id := range waiting {
		sb.WriteString(fmt.Sprintf("    class %s waiting;\n", id))
	}
	if overlay != nil && overlay.CursorNode != 0 {
		sb.WriteString(fmt.Sprintf("    class n%d cursor;\n", overlay.CursorNode))
	}

	return sb.String()
}
