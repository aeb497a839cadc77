package api

import (
	"time"

	"github.com/idilsaglam/tada/internal/model"
)

// Todo is the server representation of a task.
type Todo struct {
	UUID        string     `json:"uuid"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	DueDate     time.Time  `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"deletedAt"`
	UserUUID    string     `json:"userUuid"`
}

// Task maps the wire todo to the client model.
func (t Todo) Task() model.Task {
	return model.Task{
		ID:          t.UUID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		DueDate:     t.DueDate.UTC(),
	}
}

type ListResponse struct {
	Todos []Todo `json:"todos"`
}

type CreateRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
}

type CreateResponse struct {
	Todo Todo `json:"todo"`
}

// UpdateRequest carries only the fields being changed.
type UpdateRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

func newUpdateRequest(p model.Patch) UpdateRequest {
	req := UpdateRequest{
		Title:       p.Title,
		Description: p.Description,
		Completed:   p.Completed,
	}
	if p.DueDate != nil {
		due := p.DueDate.UTC()
		req.DueDate = &due
	}
	return req
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}
