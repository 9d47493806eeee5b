package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the flowkit banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct{ text, color string }{
		{"  __ _               _    _ _   ", "#818cf8"},
		{" / _| | _____      _| | _(_) |_ ", "#a78bfa"},
		{"| |_| |/ _ \\ \\ /\\ / / |/ / | __|", "#c084fc"},
		{"|  _| | (_) \\ V  V /|   <| | |_ ", "#e879f9"},
		{"|_| |_|\\___/ \\_/\\_/ |_|\\_\\_|\\__|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
