package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// LabelWidth is the column the task label is padded or truncated to.
const LabelWidth = 40

// Surface receives snapshots and draws them. Implementations must be safe
// for concurrent use.
type Surface interface {
	Update(Snapshot)
	// Close flushes pending output. Updates after Close are dropped.
	Close() error
}

// Discard is a Surface that draws nothing.
var Discard Surface = discard{}

type discard struct{}

func (discard) Update(Snapshot) {}
func (discard) Close() error    { return nil }

// Styles holds the lipgloss styles for each line state.
type Styles struct {
	Label   lipgloss.Style
	Waiting lipgloss.Style
	Running lipgloss.Style
	Done    lipgloss.Style
	Failed  lipgloss.Style
	Bar     lipgloss.Style
	Dim     lipgloss.Style
}

// NewStyles builds styles bound to renderer, which decides the color profile.
// With noColor every style renders plain text.
func NewStyles(renderer *lipgloss.Renderer, noColor bool) Styles {
	if noColor {
		plain := renderer.NewStyle()
		return Styles{Label: plain, Waiting: plain, Running: plain, Done: plain, Failed: plain, Bar: plain, Dim: plain}
	}
	return Styles{
		Label:   renderer.NewStyle().Bold(true),
		Waiting: renderer.NewStyle().Faint(true),
		Running: renderer.NewStyle().Foreground(lipgloss.Color("6")),
		Done:    renderer.NewStyle().Foreground(lipgloss.Color("2")),
		Failed:  renderer.NewStyle().Foreground(lipgloss.Color("1")),
		Bar:     renderer.NewStyle().Foreground(lipgloss.Color("4")),
		Dim:     renderer.NewStyle().Faint(true),
	}
}

// fitLabel right-aligns label in width columns, cutting from the left so the
// end of long paths stays visible.
func fitLabel(label string, width int) string {
	if runewidth.StringWidth(label) > width {
		runes := []rune(label)
		for len(runes) > 0 && runewidth.StringWidth(string(runes))+1 > width {
			runes = runes[1:]
		}
		label = "…" + string(runes)
	}
	return runewidth.FillLeft(label, width)
}

// Render formats one snapshot as a single line. barWidth of zero omits the
// progress bar.
func Render(s Snapshot, st Styles, barWidth int) string {
	var b strings.Builder
	b.WriteString(st.Label.Render(fitLabel(s.Label, LabelWidth)))
	b.WriteString(" ")
	switch s.State {
	case Waiting:
		b.WriteString(st.Waiting.Render("waiting"))
	case Running:
		if barWidth > 0 && s.Phase != PhaseNone && s.Length > 0 {
			b.WriteString(st.Bar.Render(bar(s.Position, s.Length, barWidth)))
			b.WriteString(" ")
		}
		b.WriteString(st.Running.Render(s.Message))
		if s.ETA > 0 {
			b.WriteString(st.Dim.Render(" eta " + roundDuration(s.ETA).String()))
		}
	case Done:
		lines := strings.Split(s.Message, "\n")
		lines[len(lines)-1] = fmt.Sprintf("%s (%s)", lines[len(lines)-1], roundDuration(s.Elapsed))
		writeLines(&b, lines, st.Done)
	case Failed:
		writeLines(&b, strings.Split("error: "+s.Message, "\n"), st.Failed)
	}
	return b.String()
}

// writeLines indents continuation lines under the message column.
func writeLines(b *strings.Builder, lines []string, style lipgloss.Style) {
	indent := strings.Repeat(" ", LabelWidth+1)
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
			b.WriteString(indent)
		}
		b.WriteString(style.Render(line))
	}
}

func bar(pos, length, width int) string {
	filled := min(width, pos*width/length)
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func roundDuration(d time.Duration) time.Duration {
	switch {
	case d >= time.Minute:
		return d.Round(time.Second)
	case d >= time.Second:
		return d.Round(100 * time.Millisecond)
	default:
		return d.Round(time.Millisecond)
	}
}
