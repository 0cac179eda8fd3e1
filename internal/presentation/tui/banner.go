package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Concord banner followed by a subtitle line.
func PrintBanner(w io.Writer, subtitle string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"   ___                               _ ", "#818cf8"},
		{"  / __\\___  _ __   ___ ___  _ __ __| |", "#a78bfa"},
		{" / /  / _ \\| '_ \\ / __/ _ \\| '__/ _` |", "#c084fc"},
		{"/ /__| (_) | | | | (_| (_) | | | (_| |", "#e879f9"},
		{"\\____/\\___/|_| |_|\\___\\___/|_|  \\__,_|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if subtitle != "" {
		fmt.Fprintln(w, termenv.String("  "+subtitle).Faint())
	}
	fmt.Fprintln(w)
}
