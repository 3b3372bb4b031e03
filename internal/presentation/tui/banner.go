package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the forestml ASCII banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	// Greens fading toward teal
	lines := []struct {
		text  string
		color string
	}{
		{"   __                     _             _ ", "#4ade80"},
		{"  / _| ___  _ __ ___  ___| |_ _ __ ___ | |", "#34d399"},
		{" | |_ / _ \\| '__/ _ \\/ __| __| '_ ` _ \\| |", "#2dd4bf"},
		{" |  _| (_) | | |  __/\\__ \\ |_| | | | | | |", "#22d3ee"},
		{" |_|  \\___/|_|  \\___||___/\\__|_| |_| |_|_|", "#38bdf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
