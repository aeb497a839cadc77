// Package store holds the client-side view of the task list.
//
// State only changes through Apply, a pure function of (state, action).
// Store wraps the current State for a session: it is the single place
// actions are dispatched and the place readers take snapshots from.
package store

import "github.com/idilsaglam/tada/internal/model"

// State is the task collection held for a session.
//
// Tasks keeps fetch/creation order. Err is the fetch error message, empty
// when the last fetch succeeded. Progress is recomputed on every change to
// Tasks.
type State struct {
	Tasks     []model.Task
	IsLoading bool
	Err       string
	Progress  model.Progress
}

// Initial is the state at session start, before the first fetch.
func Initial() State {
	return State{IsLoading: true}
}

// Find returns the task with the given id and its position.
func (s State) Find(id string) (model.Task, int, bool) {
	for i, t := range s.Tasks {
		if t.ID == id {
			return t, i, true
		}
	}
	return model.Task{}, -1, false
}

// Has reports whether a task with id is present.
func (s State) Has(id string) bool {
	_, _, ok := s.Find(id)
	return ok
}
