package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the BrokerDesk banner to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{` ___          _              ___         _   `, "#818cf8"},
		{`| _ )_ _ ___ | |_____ _ _  |   \ ___ __| |__`, "#a78bfa"},
		{`| _ \ '_/ _ \| / / -_) '_| | |) / -_|_-< / /`, "#c084fc"},
		{`|___/_| \___/|_\_\___|_|   |___/\___/__/_\_\`, "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  disability services brokerage "+version).Faint())
	fmt.Fprintln(w)
}
