package model

import (
	"fmt"
	"slices"
	"strings"
)

type SortField string

const (
	SortNone      SortField = ""
	SortDueDate   SortField = "dueDate"
	SortTitle     SortField = "title"
	SortCompleted SortField = "completed"
)

// SortFields is the cycle order used by interactive views.
var SortFields = []SortField{SortNone, SortDueDate, SortTitle, SortCompleted}

// Sort describes a display ordering. The zero value keeps server order.
type Sort struct {
	Field SortField
	Desc  bool
}

func (s Sort) String() string {
	if s.Field == SortNone {
		return "none"
	}
	if s.Desc {
		return string(s.Field) + ":desc"
	}
	return string(s.Field) + ":asc"
}

// Next cycles to the following field, ascending.
func (s Sort) Next() Sort {
	i := slices.Index(SortFields, s.Field)
	return Sort{Field: SortFields[(i+1)%len(SortFields)]}
}

// ParseSort reads "field" or "field:asc|desc".
func ParseSort(s string) (Sort, error) {
	name, dir, _ := strings.Cut(strings.TrimSpace(s), ":")
	var out Sort
	switch strings.ToLower(name) {
	case "", "none":
		return Sort{}, nil
	case "duedate", "due":
		out.Field = SortDueDate
	case "title":
		out.Field = SortTitle
	case "completed", "done":
		out.Field = SortCompleted
	default:
		return Sort{}, fmt.Errorf("unknown sort field %q", name)
	}
	switch strings.ToLower(dir) {
	case "", "asc":
	case "desc":
		out.Desc = true
	default:
		return Sort{}, fmt.Errorf("unknown sort direction %q", dir)
	}
	return out, nil
}

// Sorted returns a sorted copy of tasks; the input is left untouched.
// Ties keep their original relative order.
func Sorted(tasks []Task, s Sort) []Task {
	out := slices.Clone(tasks)
	if s.Field == SortNone {
		return out
	}
	slices.SortStableFunc(out, func(a, b Task) int {
		c := compareTasks(a, b, s.Field)
		if s.Desc {
			return -c
		}
		return c
	})
	return out
}

func compareTasks(a, b Task, field SortField) int {
	switch field {
	case SortDueDate:
		return a.DueDate.Compare(b.DueDate)
	case SortTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case SortCompleted:
		switch {
		case a.Completed == b.Completed:
			return 0
		case !a.Completed:
			return -1
		default:
			return 1
		}
	}
	return 0
}
