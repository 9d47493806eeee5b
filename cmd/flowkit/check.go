package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/flowkit/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var checkDataCmd = &cobra.Command{
	Use:   "check-data <edge> <json|@file|->",
	Short: "Validate a data record against an edge's input schema",
	Long: `Validates a JSON object against the input schema of an edge, the way the
data-collection tool would. The record is given inline, read from a file with @path,
or read from standard input with -.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readRecord(cmd.InOrStdin(), args[1])
		if err != nil {
			return err
		}

		rt, err := newRuntime(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer rt.Close(cmd.Context())

		res, err := rt.Kit.Validate(cmd.Context(), args[0], data)
		if err != nil {
			return err
		}
		if !res.Valid {
			fmt.Fprintln(cmd.OutOrStdout(), tui.Verdict(false, res.Error))
			return errors.New("data rejected")
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.Verdict(true, "Data is valid for "+args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkDataCmd)
}

func readRecord(stdin io.Reader, arg string) (map[string]any, error) {
	var raw []byte
	var err error
	switch {
	case arg == "-":
		raw, err = io.ReadAll(stdin)
	case strings.HasPrefix(arg, "@"):
		raw, err = os.ReadFile(strings.TrimPrefix(arg, "@"))
	default:
		raw = []byte(arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("record must be a JSON object: %w", err)
	}
	return data, nil
}
