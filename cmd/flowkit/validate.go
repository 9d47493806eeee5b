package main

import (
	"fmt"

	"github.com/aretw0/flowkit/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var validateJSON bool

var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check the flow for consistency",
	Long: `Lints the flow and reports duplicate IDs, dead edges, dangling targets, invalid
input schemas, unreachable nodes and conflicting field definitions.
Exits with status 1 when errors are found; warnings alone pass.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context(), args)
		if err != nil {
			return err
		}
		defer rt.Close(cmd.Context())

		report := rt.Kit.Check(cmd.Context())
		out := cmd.OutOrStdout()
		if validateJSON {
			if err := printJSON(out, report); err != nil {
				return err
			}
		} else {
			if err := printMarkdown(out, tui.ReportMarkdown(report)); err != nil {
				return err
			}
		}

		if err := report.Err(); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), tui.Verdict(false, "Validation failed"))
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), tui.Verdict(true, "Flow is valid!"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Print the report as JSON")
}
