package tasksync

import (
	"context"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store"
)

// mutation describes one optimistic operation on a single task.
type mutation struct {
	op string
	id string

	// optimistic is dispatched before the remote call.
	optimistic store.Action
	// remote performs the call. A returned task with the same id is used
	// to reconcile local state.
	remote func(ctx context.Context) (model.Task, error)
	// rollback is dispatched when remote fails.
	rollback store.Action
	// notFoundOK treats model.ErrNotFound as success.
	notFoundOK bool

	message string
}

// planFunc builds a mutation from the task as it is once the id's
// in-flight slot is held. idx is its position in the store.
type planFunc func(current model.Task, idx int) mutation

func (c *Coordinator) acquire(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inFlight[id]; busy {
		return false
	}
	c.inFlight[id] = struct{}{}
	return true
}

func (c *Coordinator) release(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, id)
}

// mutate takes the in-flight slot for id, plans the change from the
// current snapshot and runs it: optimistic dispatch, remote call, then
// reconcile or roll back. Results for a task that disappeared locally in
// the meantime are discarded. A task missing from the store is a no-op.
func (c *Coordinator) mutate(ctx context.Context, op, id string, plan planFunc) error {
	if !c.store.State().Has(id) {
		c.logger.Debug().Str("op", op).Str("task_id", id).Msg("change on missing task ignored")
		return nil
	}
	if !c.acquire(id) {
		return c.fail(op, id, model.ErrInFlight)
	}
	defer c.release(id)

	current, idx, ok := c.store.State().Find(id)
	if !ok {
		c.logger.Debug().Str("op", op).Str("task_id", id).Msg("change on missing task ignored")
		return nil
	}
	m := plan(current, idx)
	m.op, m.id = op, id

	c.store.Dispatch(m.optimistic)

	confirmed, err := m.remote(ctx)
	if err != nil && !(m.notFoundOK && model.KindOf(err) == model.KindNotFound) {
		c.compensate(m)
		return c.fail(m.op, m.id, err)
	}
	if err != nil {
		c.logger.Warn().
			Str("op", m.op).
			Str("task_id", m.id).
			Msg("task already gone on server")
	}

	if confirmed.ID == m.id {
		if c.store.State().Has(m.id) {
			c.store.Dispatch(store.Update{Task: confirmed})
		} else {
			c.logger.Debug().
				Str("op", m.op).
				Str("task_id", m.id).
				Msg("discarding confirmation for task removed locally")
		}
	}

	c.logger.Info().
		Str("op", m.op).
		Str("task_id", m.id).
		Msg("task change confirmed")
	c.succeed(m.op, m.id, m.message)
	return nil
}

func (c *Coordinator) compensate(m mutation) {
	present := c.store.State().Has(m.id)
	switch m.rollback.(type) {
	case store.Insert:
		if present {
			c.logger.Debug().Str("task_id", m.id).Msg("task already restored")
			return
		}
	default:
		if !present {
			c.logger.Debug().
				Str("op", m.op).
				Str("task_id", m.id).
				Msg("discarding rollback for task removed locally")
			return
		}
	}
	c.store.Dispatch(m.rollback)
	c.logger.Info().
		Str("op", m.op).
		Str("task_id", m.id).
		Str("action", store.Name(m.rollback)).
		Msg("rolled back optimistic change")
}
