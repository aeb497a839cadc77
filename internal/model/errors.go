package model

import "errors"

var (
	ErrValidation = errors.New("validation failed")
	ErrNetwork    = errors.New("network error")
	ErrAuth       = errors.New("not authenticated")
	ErrNotFound   = errors.New("task not found")
	// ErrInFlight is returned when a task already has a mutation pending.
	ErrInFlight = errors.New("task has a pending change")
)

// ValidationError is a local input error. It never reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Kind classifies an error for rollback and reporting.
type Kind int

const (
	KindNone Kind = iota
	KindValidation
	KindNetwork
	KindAuth
	KindNotFound
	KindInFlight
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindInFlight:
		return "in_flight"
	default:
		return "network"
	}
}

// KindOf classifies err. Anything unrecognised counts as a network failure.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrAuth):
		return KindAuth
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInFlight):
		return KindInFlight
	default:
		return KindNetwork
	}
}
