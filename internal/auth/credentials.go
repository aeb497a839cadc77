// Package auth keeps the bearer credential of the current user.
//
// The token comes from the TADA_TOKEN environment variable when set, or
// from ~/.tada/credentials.json (0600). Store implements oauth2.TokenSource
// so the HTTP gateway attaches it to every request; an expired JWT is
// removed and reported before any request is sent.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store/jsonstore"
)

const (
	credFileName = "credentials.json"
	dirName      = ".tada"

	SourceEnv  = "env"
	SourceFile = "file"
)

var (
	ErrNotLoggedIn  = errors.New("no token found")
	ErrTokenExpired = errors.New("token expired")
)

type TokenInfo struct {
	Token     string     `json:"token"`
	Source    string     `json:"source"`     // "env" | "file"
	CreatedAt time.Time  `json:"created_at"` // when we saved to file
	ExpiresAt *time.Time `json:"expires_at"` // from the JWT exp claim, if any
}

// Expired reports whether the token has a known expiry before now.
func (ti *TokenInfo) Expired(now time.Time) bool {
	return ti.ExpiresAt != nil && !ti.ExpiresAt.After(now)
}

// Store reads and writes the credential file under dir.
type Store struct {
	dir      string
	envToken string
	logger   zerolog.Logger
	now      func() time.Time
}

// DefaultDir is ~/.tada.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// NewStore returns a store rooted at dir. envToken, when non-empty, takes
// precedence over the file (the TADA_TOKEN override).
func NewStore(dir, envToken string, logger zerolog.Logger) *Store {
	return &Store{
		dir:      dir,
		envToken: strings.TrimSpace(envToken),
		logger:   logger,
		now:      time.Now,
	}
}

// Path is the credential file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, credFileName)
}

// Get returns the current token, or nil when not logged in.
func (s *Store) Get() (*TokenInfo, error) {
	if s.envToken != "" {
		token := StripBearer(s.envToken)
		exp, _ := ExpiresAt(token)
		return &TokenInfo{Token: token, Source: SourceEnv, ExpiresAt: exp}, nil
	}

	var ti TokenInfo
	found, err := jsonstore.Load(s.Path(), &ti)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	if !found {
		return nil, nil
	}
	ti.Token = StripBearer(ti.Token)
	return &ti, nil
}

// Set saves token to the credential file. The expiry is read from the
// token's exp claim when it is a JWT.
func (s *Store) Set(token string) (*TokenInfo, error) {
	token = StripBearer(strings.TrimSpace(token))
	if token == "" {
		return nil, fmt.Errorf("empty token")
	}
	exp, err := ExpiresAt(token)
	if err != nil {
		s.logger.Debug().Err(err).Msg("token is not a readable JWT, saving without expiry")
	}
	ti := &TokenInfo{
		Token:     token,
		Source:    SourceFile,
		CreatedAt: s.now(),
		ExpiresAt: exp,
	}
	if err := jsonstore.Save(s.Path(), ti, 0o600); err != nil {
		return nil, fmt.Errorf("save credentials: %w", err)
	}
	return ti, nil
}

// Delete removes the credential file.
func (s *Store) Delete() error {
	return jsonstore.Remove(s.Path())
}

// Invalidate ends the session after the server rejected the credential.
func (s *Store) Invalidate() {
	if s.envToken != "" {
		s.logger.Warn().Msg("credential from TADA_TOKEN was rejected; unset it to log in again")
		return
	}
	if err := s.Delete(); err != nil {
		s.logger.Error().Err(err).Msg("failed to remove rejected credential")
		return
	}
	s.logger.Info().Msg("removed rejected credential")
}

// Token implements oauth2.TokenSource.
func (s *Store) Token() (*oauth2.Token, error) {
	ti, err := s.Get()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrAuth, err)
	}
	if ti == nil || ti.Token == "" {
		return nil, fmt.Errorf("%w: %w", model.ErrAuth, ErrNotLoggedIn)
	}
	if ti.Expired(s.now()) {
		s.logger.Info().
			Time("expired_at", *ti.ExpiresAt).
			Msg("stored token expired")
		s.Invalidate()
		return nil, fmt.Errorf("%w: %w", model.ErrAuth, ErrTokenExpired)
	}

	tok := &oauth2.Token{AccessToken: ti.Token, TokenType: "Bearer"}
	if ti.ExpiresAt != nil {
		tok.Expiry = *ti.ExpiresAt
	}
	return tok, nil
}

// StripBearer removes a leading "Bearer " (any case).
func StripBearer(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
