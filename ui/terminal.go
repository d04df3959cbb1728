package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Painter prints status, score and chart changes to a terminal.
type Painter struct {
	mu  sync.Mutex
	out io.Writer
}

func NewPainter(out io.Writer) *Painter { return &Painter{out: out} }

// Attach subscribes the painter to d.
func (p *Painter) Attach(d *Document) {
	d.OnChange(p.paint)
}

var (
	errColor   = color.New(color.FgRed, color.Bold)
	okColor    = color.New(color.FgGreen)
	busyColor  = color.New(color.FgYellow)
	recColor   = color.New(color.FgMagenta, color.Bold)
	infoColor  = color.New(color.FgCyan)
	scoreColor = color.New(color.FgGreen, color.Bold)
)

func statusColor(s string) *color.Color {
	switch {
	case strings.HasPrefix(s, "❌"):
		return errColor
	case strings.HasPrefix(s, "✅"):
		return okColor
	case strings.HasPrefix(s, "⏳"), strings.HasPrefix(s, "🔄"):
		return busyColor
	case strings.HasPrefix(s, "🔴"):
		return recColor
	}
	return infoColor
}

func (p *Painter) paint(id ID, el Element) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch id {
	case CalibStatus, Status:
		if el.Text != "" {
			statusColor(el.Text).Fprintln(p.out, el.Text)
		}
	case ScoreDisplay:
		if el.Text != "" {
			scoreColor.Fprintln(p.out, el.Text)
		}
	case ResultChart, PitchChart:
		if el.Src != "" && !el.Hidden {
			infoColor.Fprintf(p.out, "  %s → %s\n", id, el.Src)
		}
	case RecordedAudio:
		if el.Src != "" && !el.Hidden {
			infoColor.Fprintf(p.out, "  recording saved to %s (press p to play)\n", el.Src)
		}
	case Calibration, Practice:
		if !el.Hidden {
			fmt.Fprintf(p.out, "── %s ──\n", id)
		}
	}
}

// Say prints one line outside of any element.
func (p *Painter) Say(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Controls prints which buttons of the visible section can be pressed.
func (p *Painter) Controls(d *Document, keys map[ID]string) {
	var parts []string
	for _, id := range d.IDs() {
		key, ok := keys[id]
		if !ok || !d.Usable(id) {
			continue
		}
		parts = append(parts, fmt.Sprintf("[%s] %s", key, id))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(parts) == 0 {
		fmt.Fprintln(p.out, "  (waiting…)")
		return
	}
	fmt.Fprintln(p.out, "  "+strings.Join(parts, "  "))
}
