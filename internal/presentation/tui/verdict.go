package tui

import "github.com/muesli/termenv"

// Verdict styles a pass/fail line. Colors degrade to plain text without a color profile.
func Verdict(ok bool, msg string) string {
	p := termenv.ColorProfile()
	if ok {
		return termenv.String("✅ " + msg).Foreground(p.Color("#22c55e")).String()
	}
	return termenv.String("❌ " + msg).Foreground(p.Color("#ef4444")).Bold().String()
}
