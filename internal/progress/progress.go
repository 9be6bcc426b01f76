// Package progress animates one blocking pipeline phase at a time. On an
// interactive terminal it runs a bubbletea program with a spinner beside the
// phase label while the work executes; on a plain writer (CI logs) it prints
// start and settled lines instead. The work itself is never parallelized:
// exactly one phase runs, and Run blocks until it finishes.
package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/SwathantraPulicherla/ai-test-runner/internal/console"
)

// Runner wraps phases with progress display.
type Runner struct {
	Printer     *console.Printer
	Interactive bool // spinner when true, plain lines otherwise
	Width       int  // terminal width for label truncation
}

// New returns a progress Runner. Width defaults to 80 when zero.
func New(p *console.Printer, interactive bool, width int) *Runner {
	if width <= 0 {
		width = 80
	}
	return &Runner{Printer: p, Interactive: interactive, Width: width}
}

// Run executes fn, animating or logging label while it blocks, then prints
// the settled line with the elapsed time. The returned error is fn's.
func (r *Runner) Run(ctx context.Context, label string, fn func() error) error {
	start := time.Now()

	if !r.Interactive {
		r.Printer.Infof("%s %s...", r.Printer.Theme().Icons.WIP, label)
		err := fn()
		r.settle(label, time.Since(start), err)
		return err
	}

	var result struct {
		once sync.Once
		err  error
		done chan struct{}
	}
	result.done = make(chan struct{})
	go func() {
		err := fn()
		result.once.Do(func() {
			result.err = err
			close(result.done)
		})
	}()

	m := newModel(r.Printer.Theme(), label, r.Width, result.done)
	prog := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithOutput(r.Printer.Out()),
		tea.WithInput(nil),
	)
	// The program quits on the work's done signal; on context cancel it is
	// killed early and the ctx-aware work unblocks on its own.
	_, _ = prog.Run()
	<-result.done

	r.settle(label, time.Since(start), result.err)
	return result.err
}

func (r *Runner) settle(label string, elapsed time.Duration, err error) {
	rounded := elapsed.Round(100 * time.Millisecond)
	if rounded == 0 {
		rounded = 100 * time.Millisecond
	}
	if err != nil {
		r.Printer.Failf("%s (%s)", label, rounded)
		return
	}
	r.Printer.Successf("%s (%s)", label, rounded)
}

type workDoneMsg struct{}

type model struct {
	spinner spinner.Model
	label   string
	width   int
	done    <-chan struct{}
	settled bool
}

func newModel(theme console.Theme, label string, width int, done <-chan struct{}) model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = theme.Primary
	return model{spinner: sp, label: label, width: width, done: done}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitDone())
}

// waitDone blocks on the work's broadcast channel; closing it wakes every
// waiter, so the post-Run read in Run never races with this command.
func (m model) waitDone() tea.Cmd {
	done := m.done
	return func() tea.Msg {
		<-done
		return workDoneMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case workDoneMsg:
		m.settled = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	if m.settled {
		return ""
	}
	line := fmt.Sprintf("%s %s", m.spinner.View(), m.label)
	return runewidth.Truncate(line, m.width-1, "…")
}
