// Package mockapi is an in-memory implementation of the todo REST API for
// local development and tests.
package mockapi

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/idilsaglam/tada/internal/api"
)

const (
	DefaultEmail    = "demo@tada.dev"
	DefaultPassword = "password"
	DefaultUserUUID = "user-1"

	issuer = "tada-mockapi"
)

type User struct {
	UUID     string
	Email    string
	Password string
}

type Config struct {
	Secret   string
	TokenTTL time.Duration
	Users    []User
	// Seed adds one todo for every user.
	Seed bool
}

// Server holds users and todos in memory.
type Server struct {
	mu     sync.Mutex
	secret []byte
	ttl    time.Duration
	users  map[string]User // by email
	todos  map[string]*api.Todo
	order  []string
	logger zerolog.Logger
	now    func() time.Time
	router *gin.Engine
}

func New(cfg Config, logger zerolog.Logger) *Server {
	if cfg.Secret == "" {
		cfg.Secret = "tada-dev-secret"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if len(cfg.Users) == 0 {
		cfg.Users = []User{{UUID: DefaultUserUUID, Email: DefaultEmail, Password: DefaultPassword}}
	}

	s := &Server{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TokenTTL,
		users:  make(map[string]User, len(cfg.Users)),
		todos:  make(map[string]*api.Todo),
		logger: logger,
		now:    time.Now,
	}
	for _, u := range cfg.Users {
		s.users[u.Email] = u
		if cfg.Seed {
			s.seed(u.UUID)
		}
	}

	s.router = gin.New()
	s.router.Use(gin.Recovery(), s.requestLogger)
	s.registerRoutes(s.router)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes(router gin.IRouter) {
	router = router.Group("/api/v1")

	router.POST("/auth/login", s.handleLogin)

	todos := router.Group("/todos", s.handleAuthMiddleware)
	todos.GET("", s.handleGetTodos)
	todos.POST("", s.handleCreateTodo)
	todos.PUT("/:id", s.handleUpdateTodo)
	todos.DELETE("/:id", s.handleDeleteTodo)
}

func (s *Server) seed(userUUID string) {
	at := time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)
	id := "1"
	if _, exists := s.todos[id]; exists {
		id = uuid.NewString()
	}
	s.insert(&api.Todo{
		UUID:        id,
		Title:       "Test Task 1",
		Description: "Test Description 1",
		DueDate:     at,
		CreatedAt:   at,
		UpdatedAt:   at,
		UserUUID:    userUUID,
	})
}

func (s *Server) insert(todo *api.Todo) {
	s.todos[todo.UUID] = todo
	s.order = append(s.order, todo.UUID)
}

// IssueToken signs an access token for userUUID valid until expiresAt.
func (s *Server) IssueToken(userUUID string, expiresAt time.Time) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    issuer,
		Subject:   userUUID,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *Server) parseToken(token string) (*jwt.RegisteredClaims, error) {
	t, err := jwt.ParseWithClaims(
		token,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := t.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type %T", t.Claims)
	}
	return claims, nil
}

// Todos returns the live todos of userUUID in creation order.
func (s *Server) Todos(userUUID string) []api.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(userUUID)
}

func (s *Server) listLocked(userUUID string) []api.Todo {
	out := []api.Todo{}
	for _, id := range s.order {
		todo := s.todos[id]
		if todo.UserUUID != userUUID || todo.DeletedAt != nil {
			continue
		}
		out = append(out, *todo)
	}
	return out
}

// Users returns the registered accounts sorted by email.
func (s *Server) Users() []User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

func (s *Server) requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Info().
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", c.Writer.Status()).
		Dur("elapsed", time.Since(start)).
		Msg("handled request")
}
