package mockapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/idilsaglam/tada/internal/api"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	s := New(Config{Seed: true}, zerolog.Nop())
	token, err := s.IssueToken(DefaultUserUUID, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	return s, token
}

func serve(s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestLogin(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(s, http.MethodPost, "/api/v1/auth/login", "", api.LoginRequest{Email: DefaultEmail, Password: DefaultPassword})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var resp api.LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("Expected token, got %s (%v)", rec.Body, err)
	}
	if _, err := s.parseToken(resp.Token); err != nil {
		t.Errorf("Issued token does not verify: %v", err)
	}

	rec = serve(s, http.MethodPost, "/api/v1/auth/login", "", api.LoginRequest{Email: DefaultEmail, Password: "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for bad password, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid credentials") {
		t.Errorf("Expected message, got %s", rec.Body)
	}
}

func TestTodosRequireToken(t *testing.T) {
	s, _ := newTestServer(t)

	if rec := serve(s, http.MethodGet, "/api/v1/todos", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rec.Code)
	}
	if rec := serve(s, http.MethodGet, "/api/v1/todos", "garbage", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for garbage token, got %d", rec.Code)
	}

	expired, err := s.IssueToken(DefaultUserUUID, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if rec := serve(s, http.MethodGet, "/api/v1/todos", expired, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for expired token, got %d", rec.Code)
	}
}

func TestSeededList(t *testing.T) {
	s, token := newTestServer(t)

	rec := serve(s, http.MethodGet, "/api/v1/todos", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp api.ListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Todos) != 1 || resp.Todos[0].UUID != "1" || resp.Todos[0].Title != "Test Task 1" {
		t.Fatalf("Unexpected seed %+v", resp.Todos)
	}
	if !strings.Contains(rec.Body.String(), `"deletedAt":null`) {
		t.Errorf("Expected deletedAt null in %s", rec.Body)
	}
}

func TestCreateUpdateDelete(t *testing.T) {
	s, token := newTestServer(t)
	due := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	rec := serve(s, http.MethodPost, "/api/v1/todos", token, api.CreateRequest{Title: " Walk ", DueDate: due})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var created api.CreateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Todo.Title != "Walk" || !created.Todo.DueDate.Equal(due) || created.Todo.UserUUID != DefaultUserUUID {
		t.Errorf("Unexpected created todo %+v", created.Todo)
	}

	done := true
	rec = serve(s, http.MethodPut, "/api/v1/todos/"+created.Todo.UUID, token, api.UpdateRequest{Completed: &done})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var updated api.Todo
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatal(err)
	}
	if !updated.Completed || updated.Title != "Walk" {
		t.Errorf("Expected only completion to change, got %+v", updated)
	}

	if rec := serve(s, http.MethodDelete, "/api/v1/todos/"+created.Todo.UUID, token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}
	if rec := serve(s, http.MethodDelete, "/api/v1/todos/"+created.Todo.UUID, token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second delete, got %d", rec.Code)
	}
	if rec := serve(s, http.MethodPut, "/api/v1/todos/"+created.Todo.UUID, token, api.UpdateRequest{Completed: &done}); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 updating deleted todo, got %d", rec.Code)
	}
	if got := s.Todos(DefaultUserUUID); len(got) != 1 {
		t.Errorf("Expected only the seed to remain, got %d todos", len(got))
	}
}

func TestCreateValidation(t *testing.T) {
	s, token := newTestServer(t)

	tests := []struct {
		name string
		req  api.CreateRequest
		want string
	}{
		{"empty title", api.CreateRequest{Title: "  "}, "Title is required"},
		{"long title", api.CreateRequest{Title: strings.Repeat("x", 101)}, "Title must be less than 100 characters"},
		{"long description", api.CreateRequest{Title: "ok", Description: strings.Repeat("x", 501)}, "Description must be less than 500 characters"},
		{"far due date", api.CreateRequest{Title: "ok", DueDate: time.Date(2040, 1, 1, 0, 0, 0, 0, time.UTC)}, "Date cannot be later"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, http.MethodPost, "/api/v1/todos", token, tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("Expected %q in %s", tt.want, rec.Body)
			}
		})
	}
}

func TestTodosAreScopedToUser(t *testing.T) {
	s := New(Config{
		Seed: true,
		Users: []User{
			{UUID: "a", Email: "a@x", Password: "p"},
			{UUID: "b", Email: "b@x", Password: "p"},
		},
	}, zerolog.Nop())

	tokenB, err := s.IssueToken("b", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	seedA := s.Todos("a")
	if len(seedA) != 1 {
		t.Fatalf("Expected one seeded todo for a, got %d", len(seedA))
	}
	if rec := serve(s, http.MethodDelete, "/api/v1/todos/"+seedA[0].UUID, tokenB, nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 deleting another user's todo, got %d", rec.Code)
	}
	if len(s.Users()) != 2 {
		t.Errorf("Expected two users")
	}
}
