package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Task is the domain model for a todo entry held by the client.
// ID is assigned by the remote store and never changes afterwards.
type Task struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Completed   bool      `json:"completed" yaml:"completed"`
	DueDate     time.Time `json:"dueDate" yaml:"dueDate"`
}

// NewTask is a creation request. A zero DueDate means "unset".
type NewTask struct {
	Title       string
	Description string
	DueDate     time.Time
}

// Progress is derived from a task list; never set it by hand.
type Progress struct {
	Completed int `json:"completed" yaml:"completed"`
	Total     int `json:"total" yaml:"total"`
}

// ProgressOf counts completed and total tasks.
func ProgressOf(tasks []Task) Progress {
	p := Progress{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			p.Completed++
		}
	}
	return p
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// Apply overlays the set fields of p onto t.
func (p Patch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	return t
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil && p.DueDate == nil
}

// Validate checks the fields that are set. Titles are trimmed in place.
func (p *Patch) Validate() error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if err := validateTitle(title); err != nil {
			return err
		}
		p.Title = &title
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		if err := validateDescription(desc); err != nil {
			return err
		}
		p.Description = &desc
	}
	if p.DueDate != nil {
		if err := ValidateDueDate(*p.DueDate); err != nil {
			return err
		}
	}
	return nil
}

// Normalize trims the text fields, fills an unset due date with now and
// validates the result.
func (n NewTask) Normalize(now time.Time) (NewTask, error) {
	n.Title = strings.TrimSpace(n.Title)
	n.Description = strings.TrimSpace(n.Description)
	if err := validateTitle(n.Title); err != nil {
		return NewTask{}, err
	}
	if err := validateDescription(n.Description); err != nil {
		return NewTask{}, err
	}
	if n.DueDate.IsZero() {
		n.DueDate = now
	}
	if err := ValidateDueDate(n.DueDate); err != nil {
		return NewTask{}, err
	}
	return n, nil
}

// Field limits enforced before anything is sent to the server.
const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 500
)

func validateTitle(title string) error {
	if title == "" {
		return &ValidationError{Field: "title", Message: "Title is required"}
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return &ValidationError{Field: "title", Message: "Title must be less than 100 characters"}
	}
	return nil
}

func validateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > MaxDescriptionLen {
		return &ValidationError{Field: "description", Message: "Description must be less than 500 characters"}
	}
	return nil
}
