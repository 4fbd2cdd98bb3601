package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themancarve/tickets/internal/models"
	"github.com/themancarve/tickets/internal/store"
)

func authHandlerRouter(s *store.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(s, "test-secret")
	r := gin.New()
	r.POST("/api/register", h.Register)
	r.POST("/api/login", h.Login)
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterCreatesStudent(t *testing.T) {
	s := newTestStore(t)
	r := authHandlerRouter(s)

	w := postJSON(r, "/api/register", `{
		"email": "thandi@example.com",
		"password": "secret123",
		"displayName": "Thandi M",
		"phone": "0821234567"
	}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	user, err := s.GetUserByEmail(context.Background(), "thandi@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.NotEqual(t, "secret123", user.Password, "password must be stored hashed")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	r := authHandlerRouter(s)
	body := `{"email":"thandi@example.com","password":"secret123","displayName":"Thandi M"}`

	assert.Equal(t, http.StatusCreated, postJSON(r, "/api/register", body).Code)
	assert.Equal(t, http.StatusConflict, postJSON(r, "/api/register", body).Code)
}

func TestRegisterIgnoresRoleInBody(t *testing.T) {
	s := newTestStore(t)
	r := authHandlerRouter(s)

	w := postJSON(r, "/api/register", `{
		"email": "sneaky@example.com",
		"password": "secret123",
		"displayName": "Sneaky",
		"role": "admin"
	}`)
	require.Equal(t, http.StatusCreated, w.Code)

	user, err := s.GetUserByEmail(context.Background(), "sneaky@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
}

func TestLogin(t *testing.T) {
	s := newTestStore(t)
	r := authHandlerRouter(s)
	require.Equal(t, http.StatusCreated, postJSON(r, "/api/register",
		`{"email":"thandi@example.com","password":"secret123","displayName":"Thandi M"}`).Code)

	w := postJSON(r, "/api/login", `{"email":"thandi@example.com","password":"secret123"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "token")

	w = postJSON(r, "/api/login", `{"email":"thandi@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(r, "/api/login", `{"email":"nobody@example.com","password":"secret123"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
