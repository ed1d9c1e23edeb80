// Package ui provides the terminal presentation layer for the VPN profile
// generator. This file contains the progress spinner.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// Task is the blocking work shown behind a spinner.
type Task func(ctx context.Context) (string, error)

type taskDoneMsg struct {
	value string
	err   error
}

type spinnerModel struct {
	spinner spinner.Model
	title   string
	task    Task
	ctx     context.Context
	cancel  context.CancelFunc

	value string
	err   error
	done  bool
}

func newSpinnerModel(ctx context.Context, title string, task Task) spinnerModel {
	ctx, cancel := context.WithCancel(ctx)
	s := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle))
	return spinnerModel{
		spinner: s,
		title:   title,
		task:    task,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run)
}

func (m spinnerModel) run() tea.Msg {
	value, err := m.task(m.ctx)
	return taskDoneMsg{value: value, err: err}
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case taskDoneMsg:
		m.value, m.err, m.done = msg.value, msg.err, true
		m.cancel()
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			// The task sees the cancellation and reports back.
			m.cancel()
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s\n", m.spinner.View(), m.title)
}

// RunWithSpinner runs task while animating a spinner on out. When out is
// not a terminal the task runs directly with no output.
func RunWithSpinner(ctx context.Context, out io.Writer, title string, task Task) (string, error) {
	if !IsTerminal(out) {
		return task(ctx)
	}

	m := newSpinnerModel(ctx, title, task)
	defer m.cancel()

	final, err := tea.NewProgram(m, tea.WithOutput(out), tea.WithContext(ctx)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return "", err
	}
	fm, ok := final.(spinnerModel)
	if !ok || !fm.done {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", errors.New("spinner exited before the task finished")
	}
	return fm.value, fm.err
}

// IsTerminal reports whether w is a terminal file descriptor.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
