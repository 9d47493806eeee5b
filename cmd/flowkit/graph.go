package main

import (
	"fmt"

	"github.com/aretw0/flowkit/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var (
	graphCurrent string
	graphVisited []string
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [path]",
	Short: "Export the flow graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the flow. Transition edges are plain arrows;
data-collection edges are thick arrows listing the collected fields.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context(), args)
		if err != nil {
			return err
		}
		defer rt.Close(cmd.Context())

		var overlay *graph.GraphOverlay
		if graphCurrent != "" || len(graphVisited) > 0 {
			overlay = &graph.GraphOverlay{CurrentNode: graphCurrent, VisitedNodes: graphVisited}
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(rt.Kit.Flow(), overlay))
		return err
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringVar(&graphCurrent, "current", "", "Highlight the node a conversation sits on")
	graphCmd.Flags().StringSliceVar(&graphVisited, "visited", nil, "Mark nodes a conversation went through")
}
