package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/flowkit/internal/validator"
	"github.com/aretw0/flowkit/pkg/domain"
	"github.com/aretw0/flowkit/pkg/model"
	"github.com/aretw0/flowkit/pkg/schema"
)

// ToolsMarkdown describes the tools compiled for a node.
func ToolsMarkdown(node domain.Node, tools []domain.Tool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", node.ID)
	if node.Instructions != "" {
		fmt.Fprintf(&sb, "%s\n\n", node.Instructions)
	}
	if len(tools) == 0 {
		sb.WriteString("_No tools: this node ends the conversation._\n")
		return sb.String()
	}

	sb.WriteString("| Tool | Kind | Target | Description |\n")
	sb.WriteString("|------|------|--------|-------------|\n")
	for _, t := range tools {
		target := t.TargetNodeID
		if target == "" {
			target = "-"
		}
		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n", t.Name, t.Kind, target, cell(t.Description))
	}

	for _, t := range tools {
		if len(t.Parameters) == 0 {
			continue
		}
		params, err := json.MarshalIndent(t.Parameters, "", "  ")
		if err != nil {
			continue
		}
		fmt.Fprintf(&sb, "\n## `%s` parameters\n\n```json\n%s\n```\n", t.Name, params)
	}
	return sb.String()
}

// ModelMarkdown lists the fields of a synthesized model.
func ModelMarkdown(m *model.Model) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", m.Name())
	if m.Len() == 0 {
		sb.WriteString("_The flow collects no data._\n")
		return sb.String()
	}

	sb.WriteString("| Field | Type | Required | Description |\n")
	sb.WriteString("|-------|------|----------|-------------|\n")
	for _, f := range m.Fields() {
		typ := schema.KindOf(f.Type)
		if f.Format != "" {
			typ += " (" + f.Format + ")"
		}
		req := "no"
		if f.Required {
			req = "yes"
		}
		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n", f.Name, typ, req, cell(f.Description))
	}
	return sb.String()
}

// ReportMarkdown renders a lint report.
func ReportMarkdown(r *validator.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Flow %s\n\n", r.FlowID)
	if len(r.Issues) == 0 {
		sb.WriteString("✅ No issues found.\n")
		return sb.String()
	}
	for _, i := range r.Issues {
		icon := "⚠️"
		if i.Severity == validator.SeverityError {
			icon = "❌"
		}
		fmt.Fprintf(&sb, "- %s %s\n", icon, i.String())
	}
	fmt.Fprintf(&sb, "\n%d errors, %d warnings\n", len(r.Errors()), len(r.Warnings()))
	return sb.String()
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
