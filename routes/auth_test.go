package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/models"
	"pinpoint-notes/pinpoint/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupAuthRouter() (*gin.Engine, *MockAuthService, *MockUserService) {
	gin.SetMode(gin.TestMode)
	authService := new(MockAuthService)
	userService := new(MockUserService)
	router := gin.New()
	RegisterAuthRoutes(router, &database.Database{}, authService, userService)
	return router, authService, userService
}

func TestRegister(t *testing.T) {
	t.Run("Creates Account", func(t *testing.T) {
		router, _, userService := setupAuthRouter()
		userService.On("Register", mock.Anything, "dana@example.com", "correct horse battery", "Dana").
			Return(models.User{ID: uuid.New(), Email: "dana@example.com", DisplayName: "Dana"}, nil)

		w := httptest.NewRecorder()
		body := `{"email":"dana@example.com","password":"correct horse battery","display_name":"Dana"}`
		req, _ := http.NewRequest("POST", "/api/v1/auth/register", bytes.NewBufferString(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var user models.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
		assert.Equal(t, "dana@example.com", user.Email)
		userService.AssertExpectations(t)
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		router, _, userService := setupAuthRouter()
		userService.On("Register", mock.Anything, "dana@example.com", "correct horse battery", "").
			Return(models.User{}, services.ErrResourceExists)

		w := httptest.NewRecorder()
		body := `{"email":"dana@example.com","password":"correct horse battery"}`
		req, _ := http.NewRequest("POST", "/api/v1/auth/register", bytes.NewBufferString(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Rejects Short Password", func(t *testing.T) {
		router, _, userService := setupAuthRouter()

		w := httptest.NewRecorder()
		body := `{"email":"dana@example.com","password":"short"}`
		req, _ := http.NewRequest("POST", "/api/v1/auth/register", bytes.NewBufferString(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		userService.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Rejects Invalid Email", func(t *testing.T) {
		router, _, _ := setupAuthRouter()

		w := httptest.NewRecorder()
		body := `{"email":"not-an-email","password":"correct horse battery"}`
		req, _ := http.NewRequest("POST", "/api/v1/auth/register", bytes.NewBufferString(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLogin(t *testing.T) {
	t.Run("Valid Credentials", func(t *testing.T) {
		router, authService, _ := setupAuthRouter()
		authService.On("Login", mock.Anything, "dana@example.com", "correct horse battery").
			Return("signed.jwt.token", nil)

		w := httptest.NewRecorder()
		body := `{"email":"dana@example.com","password":"correct horse battery"}`
		req, _ := http.NewRequest("POST", "/api/v1/auth/login", bytes.NewBufferString(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp loginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "signed.jwt.token", resp.Token)
	})

	t.Run("Invalid Credentials", func(t *testing.T) {
		router, authService, _ := setupAuthRouter()
		authService.On("Login", mock.Anything, "dana@example.com", "wrong").
			Return("", services.ErrInvalidCredentials)

		w := httptest.NewRecorder()
		body := `{"email":"dana@example.com","password":"wrong"}`
		req, _ := http.NewRequest("POST", "/api/v1/auth/login", bytes.NewBufferString(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Missing Fields", func(t *testing.T) {
		router, _, _ := setupAuthRouter()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/auth/login", bytes.NewBufferString(`{"email":"dana@example.com"}`))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
