package graph

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/aretw0/flowkit/pkg/domain"
)

// GraphOverlay contains conversation data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart of a flow.
// It applies semantic styling:
// - Entry (first node): ((Circle))
// - Terminal (no tool-producing edges): ([Stadium])
// - Default: [Rectangle]
//
// Transition edges are plain arrows labeled with the edge ID. Data-collection edges are
// thick arrows listing the collected fields; without a target they loop back on the node.
// Dead edges are not drawn. It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(flow *domain.Flow, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for i, node := range flow.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case i == 0:
			opener, closer = "((", "))"
		case isTerminal(node):
			opener, closer = "([", "])"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, node.ID, closer))

		for _, e := range node.Edges {
			switch e.Kind() {
			case domain.ToolKindTransition:
				sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeID, arrow(node.ID, e.TargetNodeID, e.ID, false), sanitizeMermaidID(e.TargetNodeID)))
			case domain.ToolKindDataCollection:
				target := e.TargetNodeID
				if target == "" {
					target = node.ID
				}
				label := e.ID
				if fields := fieldNames(e.InputSchema); fields != "" {
					label = fmt.Sprintf("%s <br/> 📝 %s", e.ID, fields)
				}
				sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeID, arrow(node.ID, target, label, true), sanitizeMermaidID(target)))
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.CurrentNode != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode)))
		}
	}

	return sb.String()
}

// arrow picks the Mermaid arrow. Edges crossing directories (modules) are dotted.
func arrow(from, to, label string, thick bool) string {
	label = strings.ReplaceAll(label, "\"", "'")
	jump := path.Dir(from) != path.Dir(to)
	switch {
	case jump:
		return fmt.Sprintf("-. \"%s\" .->", label)
	case thick:
		return fmt.Sprintf("== \"%s\" ==>", label)
	default:
		return fmt.Sprintf("-- \"%s\" -->", label)
	}
}

func isTerminal(node domain.Node) bool {
	for _, e := range node.Edges {
		if !e.IsDead() {
			return false
		}
	}
	return true
}

func fieldNames(inputSchema map[string]any) string {
	props, _ := inputSchema["properties"].(map[string]any)
	if len(props) == 0 {
		return ""
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
