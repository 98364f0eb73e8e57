// Package tui is the terminal front end: a live transcript, mic control,
// and collaborator key status, rendered with Bubble Tea.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandevgo/teammate/internal/config"
	"github.com/sandevgo/teammate/internal/service/session"
)

type TUI struct {
	program *tea.Program
}

// New wires the terminal UI to a session. keyStatus is the credential
// presence map shown in the status line.
func New(cfg *config.Config, sess *session.Session, keyStatus map[string]bool) *TUI {
	return &TUI{
		program: tea.NewProgram(newModel(cfg, sess, keyStatus), tea.WithAltScreen()),
	}
}

// Run blocks until the user quits, then cancels the given context so the
// rest of the process shuts down with it.
func (t *TUI) Run(cancel context.CancelFunc) error {
	defer cancel()
	_, err := t.program.Run()
	return err
}

func (t *TUI) Quit() {
	if t.program != nil {
		t.program.Quit()
	}
}
