package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"todo_service/internal/models"
	"todo_service/internal/repository"
	"todo_service/internal/repository/memory"
	"todo_service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      string
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       string
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (string, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (string, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

// mockTodo returns canned results and records the owner it was called with.
type mockTodo struct {
	listResp []models.Todo
	todo     models.Todo
	err      error
	panicMsg string

	lastOwner string
	lastID    string
	lastPatch models.TodoPatch
}

func (m *mockTodo) List(_ context.Context, ownerID string) ([]models.Todo, error) {
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	m.lastOwner = ownerID
	return m.listResp, m.err
}
func (m *mockTodo) Get(_ context.Context, ownerID, id string) (models.Todo, error) {
	m.lastOwner, m.lastID = ownerID, id
	return m.todo, m.err
}
func (m *mockTodo) Create(_ context.Context, ownerID, title string) (models.Todo, error) {
	m.lastOwner = ownerID
	return m.todo, m.err
}
func (m *mockTodo) Update(_ context.Context, ownerID, id string, p models.TodoPatch) (models.Todo, error) {
	m.lastOwner, m.lastID, m.lastPatch = ownerID, id, p
	return m.todo, m.err
}
func (m *mockTodo) Delete(_ context.Context, ownerID, id string) error {
	m.lastOwner, m.lastID = ownerID, id
	return m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service, opts ...Option) *gin.Engine {
	return NewHandler(s, nil, opts...).InitRoutes()
}

const e2eSecret = "e2e-secret"

// newE2ERouter wires real services over the in-memory store.
func newE2ERouter() *gin.Engine {
	return newE2ERouterOn(memory.NewRepository())
}

func newE2ERouterOn(repos *repository.Repository) *gin.Engine {
	s := service.NewService(repos, service.TokenConfig{Secret: e2eSecret, TTL: time.Hour})
	return newTestRouter(s)
}

// signedToken builds a token the e2e router accepts for any subject.
func signedToken(t *testing.T, subject string) string {
	t.Helper()
	now := time.Now()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte(e2eSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func doJSON(t *testing.T, r http.Handler, method, path, body string, hdr http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return v
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]string](t, w)["error"]
}

// registerAndLogin creates a user and returns a bearer token for it.
func registerAndLogin(t *testing.T, r http.Handler, username string) string {
	t.Helper()
	creds := `{"username":"` + username + `","password":"password123"}`
	if w := doJSON(t, r, http.MethodPost, "/user/register", creds, nil); w.Code != http.StatusCreated {
		t.Fatalf("register %s: status=%d body=%s", username, w.Code, w.Body.String())
	}
	w := doJSON(t, r, http.MethodPost, "/user/login", creds, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status=%d body=%s", username, w.Code, w.Body.String())
	}
	return decodeBody[map[string]string](t, w)["token"]
}
