package progress

import (
	"io"
	"slices"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// barWidth is the width of the live progress bar, brackets excluded.
const barWidth = 24

type snapshotMsg Snapshot

type closeMsg struct{}

// liveModel keeps the latest snapshot per task and renders them in
// registration order.
type liveModel struct {
	styles Styles
	ids    []int
	lines  map[int]Snapshot
	width  int
}

func newLiveModel(styles Styles) *liveModel {
	return &liveModel{styles: styles, lines: map[int]Snapshot{}}
}

func (m *liveModel) Init() tea.Cmd {
	return nil
}

func (m *liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		s := Snapshot(msg)
		if _, ok := m.lines[s.ID]; !ok {
			i, _ := slices.BinarySearch(m.ids, s.ID)
			m.ids = slices.Insert(m.ids, i, s.ID)
		}
		m.lines[s.ID] = s
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case closeMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m *liveModel) View() string {
	var b strings.Builder
	for _, id := range m.ids {
		line := Render(m.lines[id], m.styles, barWidth)
		if m.width > 0 {
			line = lipgloss.NewStyle().MaxWidth(m.width).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// LiveSurface redraws every task line in place on a terminal. Updates are
// serialized through the bubbletea event loop.
type LiveSurface struct {
	program *tea.Program
	done    chan struct{}
	err     error
	once    sync.Once
}

// NewLiveSurface starts a bubbletea program rendering to w. Keyboard input
// and signal handling stay with the caller.
func NewLiveSurface(w io.Writer, noColor bool) *LiveSurface {
	styles := NewStyles(lipgloss.NewRenderer(w), noColor)
	p := tea.NewProgram(newLiveModel(styles),
		tea.WithOutput(w),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	l := &LiveSurface{program: p, done: make(chan struct{})}
	go func() {
		defer close(l.done)
		_, l.err = p.Run()
	}()
	return l
}

func (l *LiveSurface) Update(s Snapshot) {
	l.program.Send(snapshotMsg(s))
}

// Close renders the final frame, stops the program and returns its error.
func (l *LiveSurface) Close() error {
	l.once.Do(func() {
		l.program.Send(closeMsg{})
		<-l.done
	})
	return l.err
}
