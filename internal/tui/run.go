package tui

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/tasksync"
)

// notifierChan forwards notifications to the program without ever
// blocking the coordinator. When the buffer is full other notices are
// dropped, but an auth notice evicts the oldest one so the program still
// sees the session end.
type notifierChan chan tasksync.Notification

func (c notifierChan) Notify(n tasksync.Notification) {
	for {
		select {
		case c <- n:
			return
		default:
		}
		if n.Kind != model.KindAuth {
			return
		}
		select {
		case <-c:
		default:
		}
	}
}

// NewNotifier returns a Notifier for a session and the channel Model
// reads from.
func NewNotifier() (tasksync.Notifier, <-chan tasksync.Notification) {
	ch := make(notifierChan, 16)
	return ch, ch
}

// Result is what the user left the program with.
type Result struct {
	AuthExpired bool
}

// Run starts the full-screen list over session until the user quits.
func Run(ctx context.Context, session *tasksync.Session, notices <-chan tasksync.Notification, opt Options) (Result, error) {
	if opt.Width == 0 || opt.Height == 0 {
		if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			opt.Width, opt.Height = w, h
		}
	}

	m := NewModel(ctx, session, notices, opt)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return Result{}, fmt.Errorf("run tui: %w", err)
	}
	fm, ok := final.(Model)
	if !ok {
		return Result{}, nil
	}
	return Result{AuthExpired: fm.AuthExpired()}, nil
}
