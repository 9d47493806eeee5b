package main

import (
	"github.com/aretw0/flowkit/internal/presentation/tui"
	"github.com/aretw0/flowkit/pkg/domain"
	"github.com/spf13/cobra"
)

var toolsJSON bool

var toolsCmd = &cobra.Command{
	Use:   "tools [node]",
	Short: "List the tools compiled for a node",
	Long:  `Compiles the outgoing edges of a node (the first node by default) and prints the resulting tools.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer rt.Close(cmd.Context())

		flow := rt.Kit.Flow()
		if len(flow.Nodes) == 0 {
			return domain.ErrNodeNotFound
		}
		nodeID := flow.Nodes[0].ID
		if len(args) > 0 {
			nodeID = args[0]
		}

		node, err := rt.Kit.Node(nodeID)
		if err != nil {
			return err
		}
		tools, err := rt.Kit.Tools(nodeID)
		if err != nil {
			return err
		}

		if toolsJSON {
			return printJSON(cmd.OutOrStdout(), tools)
		}
		return printMarkdown(cmd.OutOrStdout(), tui.ToolsMarkdown(*node, tools))
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.Flags().BoolVar(&toolsJSON, "json", false, "Print the tools as JSON")
}
