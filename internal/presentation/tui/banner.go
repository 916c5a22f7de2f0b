package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the adwizard banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"             _          _                  _ ", "#818cf8"},
		{"   __ _  __| |_      _(_)______ _ _ __ __| |", "#a78bfa"},
		{"  / _` |/ _` \\ \\ /\\ / / |_  / _` | '__/ _` |", "#c084fc"},
		{" | (_| | (_| |\\ V  V /| |/ / (_| | | | (_| |", "#e879f9"},
		{"  \\__,_|\\__,_| \\_/\\_/ |_/___\\__,_|_|  \\__,_|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
