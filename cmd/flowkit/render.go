package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/flowkit/internal/presentation/tui"
)

// printMarkdown renders markdown when w is a terminal and prints it as is otherwise.
func printMarkdown(w io.Writer, markdown string) error {
	if f, ok := w.(*os.File); ok {
		out, err := tui.NewRenderer(f)(markdown)
		if err != nil {
			return err
		}
		markdown = out
	}
	_, err := fmt.Fprint(w, markdown)
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
