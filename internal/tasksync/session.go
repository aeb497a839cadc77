package tasksync

import (
	"github.com/rs/zerolog"

	"github.com/idilsaglam/tada/internal/store"
)

// Session pairs the Store and Coordinator of one logged-in session.
// Discard it on logout; nothing in it outlives the session.
type Session struct {
	Store       *store.Store
	Coordinator *Coordinator
}

// NewSession starts a session with an empty, loading store.
func NewSession(gw Gateway, logger zerolog.Logger, opts ...Option) *Session {
	st := store.New(store.Initial())
	return &Session{
		Store:       st,
		Coordinator: New(st, gw, logger, opts...),
	}
}
