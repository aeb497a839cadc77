package tasksync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store"
)

const (
	OpLoad    = "load"
	OpAdd     = "add"
	OpToggle  = "toggle"
	OpEdit    = "edit"
	OpRemove  = "remove"
	OpRestore = "restore"
)

// FetchErrorMessage is stored in the state when the initial fetch fails.
const FetchErrorMessage = "Failed to fetch tasks"

// Coordinator sequences user intents against a Store and a Gateway.
// It is safe for concurrent use; mutations for the same task id are
// serialized by rejecting overlaps with model.ErrInFlight.
type Coordinator struct {
	store    *store.Store
	gateway  Gateway
	logger   zerolog.Logger
	notifier Notifier
	now      func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithNotifier sets where user-visible notifications go.
func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

// WithClock overrides time.Now, used for unset due dates.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func New(st *store.Store, gw Gateway, logger zerolog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:    st,
		gateway:  gw,
		logger:   logger,
		notifier: discardNotifier{},
		now:      time.Now,
		inFlight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the store the coordinator writes to.
func (c *Coordinator) Store() *store.Store { return c.store }

// Pending reports whether id has a mutation in flight.
func (c *Coordinator) Pending(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inFlight[id]
	return ok
}

// LoadInitial fetches the full task list. On failure the previous tasks
// are kept and the state carries FetchErrorMessage. It does not retry.
func (c *Coordinator) LoadInitial(ctx context.Context) error {
	c.store.Dispatch(store.FetchStart{})

	tasks, err := c.gateway.List(ctx)
	if err != nil {
		c.store.Dispatch(store.FetchError{Message: FetchErrorMessage})
		return c.fail(OpLoad, "", err)
	}

	st := c.store.Dispatch(store.FetchSuccess{Tasks: tasks})
	c.logger.Debug().
		Int("count", len(st.Tasks)).
		Msg("fetched tasks")
	return nil
}

// AddTask validates and creates a task. There is no optimistic insert:
// the id is only known once the server answers.
func (c *Coordinator) AddTask(ctx context.Context, nt model.NewTask) (model.Task, error) {
	nt, err := nt.Normalize(c.now())
	if err != nil {
		return model.Task{}, c.fail(OpAdd, "", err)
	}

	created, err := c.gateway.Create(ctx, nt)
	if err != nil {
		return model.Task{}, c.fail(OpAdd, "", err)
	}

	c.store.Dispatch(store.Add{Task: created})
	c.logger.Info().
		Str("task_id", created.ID).
		Msg("created task")
	c.succeed(OpAdd, created.ID, "Task created")
	return created, nil
}

// ToggleCompletion flips the completed flag of id. Missing ids are ignored.
func (c *Coordinator) ToggleCompletion(ctx context.Context, id string) error {
	return c.mutate(ctx, OpToggle, id, func(current model.Task, _ int) mutation {
		flipped := current
		flipped.Completed = !current.Completed
		done := flipped.Completed

		msg := "Task reopened"
		if done {
			msg = "Task completed"
		}
		return mutation{
			optimistic: store.Update{Task: flipped},
			remote: func(ctx context.Context) (model.Task, error) {
				return c.gateway.Update(ctx, id, model.Patch{Completed: &done})
			},
			rollback: store.Update{Task: current},
			message:  msg,
		}
	})
}

// EditTask merges patch onto the task with id. Missing ids are ignored.
func (c *Coordinator) EditTask(ctx context.Context, id string, patch model.Patch) error {
	if err := patch.Validate(); err != nil {
		return c.fail(OpEdit, id, err)
	}
	if patch.IsEmpty() {
		return nil
	}

	return c.mutate(ctx, OpEdit, id, func(current model.Task, _ int) mutation {
		return mutation{
			optimistic: store.Update{Task: patch.Apply(current)},
			remote: func(ctx context.Context) (model.Task, error) {
				return c.gateway.Update(ctx, id, patch)
			},
			rollback: store.Update{Task: current},
			message:  "Task updated",
		}
	})
}

// RemoveTask deletes id. If the server call fails the task is put back at
// its previous position. A server-side "not found" counts as deleted.
func (c *Coordinator) RemoveTask(ctx context.Context, id string) error {
	return c.mutate(ctx, OpRemove, id, func(current model.Task, idx int) mutation {
		return mutation{
			optimistic: store.Delete{ID: id},
			remote: func(ctx context.Context) (model.Task, error) {
				return model.Task{}, c.gateway.Delete(ctx, id)
			},
			rollback:   store.Insert{Index: idx, Task: current},
			notFoundOK: true,
			message:    "Task deleted",
		}
	})
}

// RestoreTask re-creates a deleted task and puts it at index. The server
// assigns a new id; a completed task is marked completed again after it
// is created. If that second call fails the task stays restored as pending
// and the error is returned.
func (c *Coordinator) RestoreTask(ctx context.Context, t model.Task, index int) (model.Task, error) {
	nt, err := model.NewTask{Title: t.Title, Description: t.Description, DueDate: t.DueDate}.Normalize(c.now())
	if err != nil {
		return model.Task{}, c.fail(OpRestore, "", err)
	}

	created, err := c.gateway.Create(ctx, nt)
	if err != nil {
		return model.Task{}, c.fail(OpRestore, "", err)
	}
	c.store.Dispatch(store.Insert{Index: index, Task: created})

	if t.Completed && !created.Completed {
		done := true
		updated, err := c.gateway.Update(ctx, created.ID, model.Patch{Completed: &done})
		if err != nil {
			return created, c.fail(OpRestore, created.ID, err)
		}
		if c.store.State().Has(created.ID) {
			c.store.Dispatch(store.Update{Task: updated})
		}
		created = updated
	}

	c.logger.Info().
		Str("task_id", created.ID).
		Str("previous_id", t.ID).
		Int("index", index).
		Msg("restored task")
	c.succeed(OpRestore, created.ID, "Task restored")
	return created, nil
}

func (c *Coordinator) succeed(op, id, msg string) {
	c.notifier.Notify(Notification{
		Level:   LevelSuccess,
		Op:      op,
		TaskID:  id,
		Message: msg,
	})
}

// fail logs err, reports it to the notifier and returns it wrapped with op.
func (c *Coordinator) fail(op, id string, err error) error {
	kind := model.KindOf(err)

	ev := c.logger.Error()
	if kind == model.KindValidation || kind == model.KindInFlight {
		ev = c.logger.Warn()
	}
	ev.Err(err).
		Str("op", op).
		Str("task_id", id).
		Stringer("kind", kind).
		Msg("task operation failed")

	c.notifier.Notify(Notification{
		Level:   LevelError,
		Kind:    kind,
		Op:      op,
		TaskID:  id,
		Message: userMessage(op, kind, err),
		Err:     err,
	})
	if id == "" {
		return fmt.Errorf("%s task: %w", op, err)
	}
	return fmt.Errorf("%s task %s: %w", op, id, err)
}

// userMessage is the text shown for a failed operation.
func userMessage(op string, kind model.Kind, err error) string {
	switch kind {
	case model.KindValidation:
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			return ve.Message
		}
		return err.Error()
	case model.KindAuth:
		return "Your session has expired. Please log in again."
	case model.KindInFlight:
		return "This task is still being saved"
	}
	switch op {
	case OpLoad:
		return FetchErrorMessage
	case OpAdd:
		return "Failed to create task"
	case OpRemove:
		return "Failed to delete task"
	case OpRestore:
		return "Failed to restore task"
	default:
		return "Failed to update task"
	}
}
