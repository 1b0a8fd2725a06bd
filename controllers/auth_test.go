package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"go-tours/models"
	"go-tours/utils"
)

// newTestAuthController builds a controller with just enough wiring for paths
// that fail before reaching the database.
func newTestAuthController() *AuthController {
	eh := NewErrorHandler(zerolog.Nop(), true, nil)
	tokens := utils.NewTokenManager("test-secret", 0)
	cfg := &utils.Config{}
	return NewAuthController(&models.Stores{}, tokens, nil, eh, validator.New(), cfg)
}

func TestSignupRejectsPasswordMismatchBeforePersisting(t *testing.T) {
	ac := newTestAuthController()

	body := `{"name":"Test User","email":"test@example.com","password":"pass1234","passwordConfirm":"different"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()

	// Validation fails before the nil store is ever touched; a panic here
	// would mean the mismatch reached persistence.
	ac.Signup(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "fail")
}

func TestSignupRejectsInvalidEmail(t *testing.T) {
	ac := newTestAuthController()

	body := `{"name":"Test User","email":"not-an-email","password":"pass1234","passwordConfirm":"pass1234"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()

	ac.Signup(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignupRejectsShortPassword(t *testing.T) {
	ac := newTestAuthController()

	body := `{"name":"Test User","email":"test@example.com","password":"short","passwordConfirm":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()

	ac.Signup(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginRequiresEmailAndPassword(t *testing.T) {
	ac := newTestAuthController()

	tests := []struct {
		name string
		body string
	}{
		{"missing password", `{"email":"test@example.com"}`},
		{"missing email", `{"password":"pass1234"}`},
		{"empty body", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			ac.Login(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "Please provide email and password")
		})
	}
}

func TestLoginRejectsMalformedJSON(t *testing.T) {
	ac := newTestAuthController()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", strings.NewReader("{"))
	rec := httptest.NewRecorder()

	ac.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePasswordRequiresSession(t *testing.T) {
	ac := newTestAuthController()

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/users/updateMyPassword", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	ac.UpdatePassword(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
