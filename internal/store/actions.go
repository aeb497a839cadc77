package store

import "github.com/idilsaglam/tada/internal/model"

// Action is a state transition request. The set is closed; see Apply.
type Action interface {
	action() string
}

// FetchStart marks the beginning of a full fetch.
type FetchStart struct{}

// FetchSuccess replaces the task list with a fresh fetch result.
type FetchSuccess struct {
	Tasks []model.Task
}

// FetchError records a failed fetch. Tasks are kept.
type FetchError struct {
	Message string
}

// Add appends a task. Ignored if the id is already present.
type Add struct {
	Task model.Task
}

// Insert puts a task back at Index (clamped to the list bounds). Ignored if
// the id is already present. Used to undo an optimistic delete.
type Insert struct {
	Index int
	Task  model.Task
}

// Update replaces the task with the same id. Ignored if absent.
type Update struct {
	Task model.Task
}

// Delete removes the task with ID, if any.
type Delete struct {
	ID string
}

func (FetchStart) action() string   { return "fetch_start" }
func (FetchSuccess) action() string { return "fetch_success" }
func (FetchError) action() string   { return "fetch_error" }
func (Add) action() string          { return "add" }
func (Insert) action() string       { return "insert" }
func (Update) action() string       { return "update" }
func (Delete) action() string       { return "delete" }

// Name returns a short label for logging.
func Name(a Action) string {
	if a == nil {
		return "nil"
	}
	return a.action()
}
