package model

import (
	"math"
	"strings"
	"time"
)

// MaxDueDate is the last instant a signed 32-bit epoch can hold
// (2038-01-19T03:14:07Z). The server rejects anything later.
var MaxDueDate = time.Unix(math.MaxInt32, 0).UTC()

// accepted input layouts, tried in order. Zone-less layouts are read as UTC.
var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.DateOnly,
}

// ParseDueDate turns user input into a due date. Empty input means "now".
func ParseDueDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}
	for _, layout := range dueDateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if err := ValidateDueDate(t); err != nil {
			return time.Time{}, err
		}
		return t, nil
	}
	return time.Time{}, &ValidationError{Field: "dueDate", Message: "Invalid date: " + s}
}

// ValidateDueDate rejects dates past MaxDueDate.
func ValidateDueDate(t time.Time) error {
	if t.After(MaxDueDate) {
		return &ValidationError{Field: "dueDate", Message: "Date cannot be later than January 19, 2038 03:14:07"}
	}
	return nil
}
