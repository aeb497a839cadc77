package mockapi

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/idilsaglam/tada/internal/api"
	"github.com/idilsaglam/tada/internal/model"
)

const userIDCtxKey = "user_id"

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, api.ErrorResponse{Message: message})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req api.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	user, ok := s.users[strings.TrimSpace(req.Email)]
	s.mu.Unlock()
	if !ok || user.Password != req.Password {
		s.logger.Warn().Str("email", req.Email).Msg("invalid credentials")
		abort(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.IssueToken(user.UUID, s.now().Add(s.ttl))
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to issue token")
		abort(c, http.StatusInternalServerError, "Login failed")
		return
	}
	c.JSON(http.StatusOK, api.LoginResponse{Token: token})
}

func (s *Server) handleAuthMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		abort(c, http.StatusUnauthorized, "Authorization header required")
		return
	}

	claims, err := s.parseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		s.logger.Warn().Err(err).Msg("rejected token")
		abort(c, http.StatusUnauthorized, "Invalid token")
		return
	}
	c.Set(userIDCtxKey, claims.Subject)
	c.Next()
}

func (s *Server) handleGetTodos(c *gin.Context) {
	userID := c.GetString(userIDCtxKey)

	s.mu.Lock()
	todos := s.listLocked(userID)
	s.mu.Unlock()

	c.JSON(http.StatusOK, api.ListResponse{Todos: todos})
}

func (s *Server) handleCreateTodo(c *gin.Context) {
	userID := c.GetString(userIDCtxKey)

	var req api.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if msg := validateFields(&req.Title, &req.Description); msg != "" {
		abort(c, http.StatusBadRequest, msg)
		return
	}

	now := s.now().UTC()
	if req.DueDate.IsZero() {
		req.DueDate = now
	}
	if req.DueDate.After(model.MaxDueDate) {
		abort(c, http.StatusBadRequest, "Date cannot be later than January 19, 2038 03:14:07")
		return
	}

	todo := &api.Todo{
		UUID:        uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
		UserUUID:    userID,
	}

	s.mu.Lock()
	s.insert(todo)
	created := *todo
	s.mu.Unlock()

	s.logger.Debug().Str("id", created.UUID).Msg("created todo")
	c.JSON(http.StatusCreated, api.CreateResponse{Todo: created})
}

func (s *Server) handleUpdateTodo(c *gin.Context) {
	userID := c.GetString(userIDCtxKey)

	var req api.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		req.Title = &title
	}
	if msg := validateFields(req.Title, req.Description); msg != "" {
		abort(c, http.StatusBadRequest, msg)
		return
	}
	if req.DueDate != nil && req.DueDate.After(model.MaxDueDate) {
		abort(c, http.StatusBadRequest, "Date cannot be later than January 19, 2038 03:14:07")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	todo, ok := s.todos[c.Param("id")]
	if !ok || todo.UserUUID != userID || todo.DeletedAt != nil {
		abort(c, http.StatusNotFound, "Todo not found")
		return
	}
	if req.Title != nil {
		todo.Title = *req.Title
	}
	if req.Description != nil {
		todo.Description = *req.Description
	}
	if req.Completed != nil {
		todo.Completed = *req.Completed
	}
	if req.DueDate != nil {
		todo.DueDate = req.DueDate.UTC()
	}
	todo.UpdatedAt = s.now().UTC()

	c.JSON(http.StatusOK, *todo)
}

func (s *Server) handleDeleteTodo(c *gin.Context) {
	userID := c.GetString(userIDCtxKey)

	s.mu.Lock()
	defer s.mu.Unlock()

	todo, ok := s.todos[c.Param("id")]
	if !ok || todo.UserUUID != userID || todo.DeletedAt != nil {
		abort(c, http.StatusNotFound, "Todo not found")
		return
	}
	deletedAt := s.now().UTC()
	todo.DeletedAt = &deletedAt
	c.Status(http.StatusNoContent)
}

// validateFields checks the set fields and returns the first message.
func validateFields(title, description *string) string {
	if title != nil {
		if *title == "" {
			return "Title is required"
		}
		if utf8.RuneCountInString(*title) > model.MaxTitleLen {
			return "Title must be less than 100 characters"
		}
	}
	if description != nil && utf8.RuneCountInString(*description) > model.MaxDescriptionLen {
		return "Description must be less than 500 characters"
	}
	return ""
}
