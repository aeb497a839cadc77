// Package tasksync keeps a session's Store in step with the remote task
// service.
//
// Every user intent runs as two phases: an optimistic local transition,
// then the remote call, followed by a confirming or compensating action.
// Nothing is re-fetched after a mutation; the locally confirmed state is
// authoritative until the user asks for a reload.
package tasksync

import (
	"context"

	"github.com/idilsaglam/tada/internal/model"
)

// Gateway performs the remote calls. Implementations report failures
// wrapping the model error sentinels (ErrNetwork, ErrAuth, ErrNotFound,
// ErrValidation).
type Gateway interface {
	List(ctx context.Context) ([]model.Task, error)
	Create(ctx context.Context, task model.NewTask) (model.Task, error)
	Update(ctx context.Context, id string, patch model.Patch) (model.Task, error)
	Delete(ctx context.Context, id string) error
}

// Level is the severity of a Notification.
type Level int

const (
	LevelSuccess Level = iota
	LevelError
)

// Notification is a user-visible message about a finished operation.
type Notification struct {
	Level   Level
	Kind    model.Kind
	Op      string
	TaskID  string
	Message string
	Err     error
}

// Notifier presents notifications (a status line, a toast, stderr).
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type discardNotifier struct{}

func (discardNotifier) Notify(Notification) {}
