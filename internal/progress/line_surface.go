package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// LineSurface writes one line per terminal snapshot. It is used when output
// is not a terminal. Verbose also prints start and progress lines.
type LineSurface struct {
	mu      sync.Mutex
	w       io.Writer
	styles  Styles
	verbose bool
	closed  bool
	err     error
}

// NewLineSurface returns a LineSurface writing to w.
func NewLineSurface(w io.Writer, noColor, verbose bool) *LineSurface {
	return &LineSurface{
		w:       w,
		styles:  NewStyles(lipgloss.NewRenderer(w), noColor),
		verbose: verbose,
	}
}

func (l *LineSurface) Update(s Snapshot) {
	if !s.State.Terminal() && !(l.verbose && s.State == Running) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.err != nil {
		return
	}
	if _, err := fmt.Fprintln(l.w, Render(s, l.styles, 0)); err != nil {
		l.err = err
	}
}

// Close reports the first write error, if any.
func (l *LineSurface) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return l.err
}
