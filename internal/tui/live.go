// Package tui shows live optimizer progress while a solve runs.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bcolloran/system-solver/solver"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ffff"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	lossStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ccff"))

	doneStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	sparkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ff88"))
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type ProgressMsg solver.Progress

type DoneMsg struct {
	Result *solver.Result
	Err    error
}

type tickMsg time.Time

// Model is the bubbletea state for one live solve.
type Model struct {
	name    string
	frame   int
	latest  map[int]solver.Progress
	history []float64
	done    bool
	result  *solver.Result
	err     error
}

func New(name string) Model {
	return Model{name: name, latest: make(map[int]solver.Progress)}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case ProgressMsg:
		m.latest[msg.Restart] = solver.Progress(msg)
		m.history = append(m.history, msg.Loss)
		if len(m.history) > 400 {
			m.history = m.history[len(m.history)-400:]
		}
	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit
	case tickMsg:
		m.frame++
		return m, tick()
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	spinner := spinnerFrames[m.frame%len(spinnerFrames)]
	if m.done {
		spinner = doneStyle.Render("done")
	}
	b.WriteString(fmt.Sprintf("%s %s %s\n\n", headerStyle.Render("solving"), m.name, spinner))

	restarts := make([]int, 0, len(m.latest))
	for k := range m.latest {
		restarts = append(restarts, k)
	}
	sort.Ints(restarts)

	for _, k := range restarts {
		p := m.latest[k]
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			labelStyle.Render(fmt.Sprintf("restart %d", k)),
			labelStyle.Render(fmt.Sprintf("iter %3d", p.Iteration)),
			lossStyle.Render(fmt.Sprintf("loss %.6e", p.Loss)),
		))
	}

	if len(m.history) > 1 {
		b.WriteString("\n  " + sparkline(m.history, 60) + "\n")
	}

	b.WriteString("\n" + labelStyle.Render("  q to abort") + "\n")
	return b.String()
}

func sparkline(values []float64, width int) string {
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(chars) {
			idx = len(chars) - 1
		}
		b.WriteRune(chars[idx])
	}
	return sparkStyle.Render(b.String())
}

// RunSolve runs the solve under a live view and returns its result. The
// solve is canceled if the user quits before it finishes.
func RunSolve(ctx context.Context, prob *solver.Problem, name string) (*solver.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(name))

	prob.Options.OnProgress = func(pr solver.Progress) {
		p.Send(ProgressMsg(pr))
	}

	go func() {
		res, err := prob.Solve(ctx)
		p.Send(DoneMsg{Result: res, Err: err})
	}()

	out, err := p.Run()
	if err != nil {
		return nil, err
	}

	final := out.(Model)
	if !final.done {
		cancel()
		return nil, fmt.Errorf("solve aborted")
	}
	return final.result, final.err
}
