// Package progress draws a one-line export progress bar on stderr.
package progress

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/mattn/go-isatty"
)

// Bar renders progress when enabled and does nothing otherwise
type Bar struct {
	enabled   bool
	out       io.Writer
	total     int
	current   int
	lastWidth int
	model     progress.Model
}

// New returns a bar writing to stderr, enabled only on a real terminal
func New(enabled bool) *Bar {
	tty := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	if strings.EqualFold(os.Getenv("TERM"), "dumb") {
		tty = false
	}
	return NewWriter(os.Stderr, enabled && tty)
}

// NewWriter returns a bar drawing to out
func NewWriter(out io.Writer, enabled bool) *Bar {
	model := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	model.Width = 36
	if cols, err := strconv.Atoi(strings.TrimSpace(os.Getenv("COLUMNS"))); err == nil && cols > 0 {
		model.Width = min(max(cols-40, 16), 64)
	}
	return &Bar{enabled: enabled, out: out, model: model}
}

// Grow adds n units of work
func (b *Bar) Grow(n int) {
	b.total += n
}

// Advance marks one unit done and shows label
func (b *Bar) Advance(label string) {
	b.current++
	if b.current > b.total {
		b.total = b.current
	}
	if !b.enabled {
		return
	}
	percent := float64(b.current) / float64(b.total)
	line := fmt.Sprintf("%s %3.0f%% %d/%d %s", b.model.ViewAs(percent), percent*100, b.current, b.total, strings.TrimSpace(label))
	pad := ""
	if b.lastWidth > len(line) {
		pad = strings.Repeat(" ", b.lastWidth-len(line))
	}
	fmt.Fprintf(b.out, "\r%s%s", line, pad)
	b.lastWidth = len(line)
}

// Close ends the bar line
func (b *Bar) Close() {
	if b.enabled && b.lastWidth > 0 {
		fmt.Fprint(b.out, "\n")
		b.lastWidth = 0
	}
}
