package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/flowkit/internal/presentation/graph"
	"github.com/aretw0/flowkit/internal/testutils"
	"github.com/aretw0/flowkit/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		flow     *domain.Flow
		contains []string
		excludes []string
	}{
		{
			name: "Node Shapes",
			flow: testutils.BookingFlow(),
			contains: []string{
				`ask_name(("ask_name"))`,
				`ask_guests["ask_guests"]`,
				`done(["done"])`,
			},
		},
		{
			name: "Edge Kinds",
			flow: testutils.BookingFlow(),
			contains: []string{
				`ask_name == "collect_name <br/> 📝 name" ==> ask_guests`,
				`ask_guests == "collect_guests <br/> 📝 email, guests" ==> done`,
				`ask_guests -- "cancel" --> done`,
			},
		},
		{
			name: "Collection Without Target Loops Back",
			flow: &domain.Flow{Nodes: []domain.Node{
				{ID: "form", Edges: []domain.Edge{
					{ID: "fill", InputSchema: map[string]any{"type": "object"}},
					{ID: "dead"},
				}},
			}},
			contains: []string{`form == "fill" ==> form`},
			excludes: []string{"dead"},
		},
		{
			name: "ID Sanitization",
			flow: &domain.Flow{Nodes: []domain.Node{
				{ID: "path/to/file.md"},
				{ID: "hyphen-ated"},
			}},
			contains: []string{
				`path_to_file_md(("path/to/file.md"))`,
				`hyphen_ated(["hyphen-ated"])`,
			},
		},
		{
			name: "Cross Module Jump",
			flow: &domain.Flow{Nodes: []domain.Node{
				{ID: "billing/start", Edges: []domain.Edge{{ID: "to_support", TargetNodeID: "support/start"}}},
				{ID: "support/start"},
			}},
			contains: []string{`billing_start -. "to_support" .-> support_start`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.flow, nil)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("GenerateMermaid() = \n%v\nUnexpected substring: %v", got, unwanted)
				}
			}
		})
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	got := graph.GenerateMermaid(testutils.BookingFlow(), &graph.GraphOverlay{
		VisitedNodes: []string{"ask_name", "ask_name"},
		CurrentNode:  "ask_guests",
	})

	if strings.Count(got, "class ask_name visited;") != 1 {
		t.Errorf("visited nodes should be styled once:\n%s", got)
	}
	if !strings.Contains(got, "class ask_guests current;") {
		t.Errorf("current node not styled:\n%s", got)
	}
}
