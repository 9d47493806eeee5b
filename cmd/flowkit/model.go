package main

import (
	"github.com/aretw0/flowkit"
	"github.com/aretw0/flowkit/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var (
	modelName   string
	modelSchema bool
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Print the unified data model of the flow",
	Long: `Merges the input schemas of every edge into one data model. The first definition
of a field wins; later conflicting definitions are reported as warnings.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer rt.Close(cmd.Context())

		m, err := rt.Kit.Model(modelName)
		if err != nil {
			return err
		}
		if modelSchema {
			return printJSON(cmd.OutOrStdout(), m)
		}
		return printMarkdown(cmd.OutOrStdout(), tui.ModelMarkdown(m))
	},
}

func init() {
	rootCmd.AddCommand(modelCmd)
	modelCmd.Flags().StringVar(&modelName, "name", flowkit.DefaultModelName, "Model name")
	modelCmd.Flags().BoolVar(&modelSchema, "schema", false, "Print the model as a JSON schema")
}
