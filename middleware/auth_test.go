package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"go-tours/models"
	"go-tours/utils"
)

type stubUsers struct {
	user *models.User
	err  error
}

func (s stubUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

// testResponder writes the operational status code, or 500 for anything else.
func testResponder(w http.ResponseWriter, r *http.Request, err error) {
	if appErr, ok := utils.AsAppError(err); ok {
		http.Error(w, appErr.Message, appErr.StatusCode)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func newTestAuth(t *testing.T, users UserFinder) (*Auth, *utils.TokenManager) {
	t.Helper()
	tokens := utils.NewTokenManager("test-secret", time.Hour)
	return NewAuth(tokens, users, testResponder), tokens
}

func okHandler(t *testing.T, wantUser *models.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		require.True(t, ok, "handler must see the authenticated user")
		assert.Equal(t, wantUser.ID, user.ID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestProtectAttachesUserFromBearerToken(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Role: models.RoleUser}
	auth, tokens := newTestAuth(t, stubUsers{user: user})

	token, err := tokens.Sign(user.ID.Hex())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	auth.Protect(okHandler(t, user)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectAttachesUserFromCookie(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Role: models.RoleUser}
	auth, tokens := newTestAuth(t, stubUsers{user: user})

	token, err := tokens.Sign(user.ID.Hex())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rec := httptest.NewRecorder()

	auth.Protect(okHandler(t, user)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectRejectsMissingToken(t *testing.T) {
	auth, _ := newTestAuth(t, stubUsers{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
	rec := httptest.NewRecorder()

	auth.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectRejectsDeletedUser(t *testing.T) {
	auth, tokens := newTestAuth(t, stubUsers{err: mongo.ErrNoDocuments})

	token, err := tokens.Sign(primitive.NewObjectID().Hex())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	auth.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectRejectsTokenIssuedBeforePasswordChange(t *testing.T) {
	user := &models.User{
		ID: primitive.NewObjectID(),
		// The password changed well after any token minted now.
		PasswordChangedAt: time.Now().Add(time.Hour),
	}
	auth, tokens := newTestAuth(t, stubUsers{user: user})

	token, err := tokens.Sign(user.ID.Hex())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	auth.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIsLoggedInNeverBlocks(t *testing.T) {
	auth, _ := newTestAuth(t, stubUsers{})

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()

	auth.IsLoggedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := UserFromContext(r.Context())
		assert.False(t, ok, "no user without a token")
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRestrictTo(t *testing.T) {
	auth, _ := newTestAuth(t, stubUsers{})

	handler := auth.RestrictTo(models.RoleAdmin, models.RoleLeadGuide)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		role string
		want int
	}{
		{models.RoleAdmin, http.StatusOK},
		{models.RoleLeadGuide, http.StatusOK},
		{models.RoleUser, http.StatusForbidden},
		{models.RoleGuide, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/api/v1/tours/abc", nil)
			req = req.WithContext(WithUser(req.Context(), &models.User{Role: tt.role}))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRestrictToWithoutUser(t *testing.T) {
	auth, _ := newTestAuth(t, stubUsers{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/tours/abc", nil)
	rec := httptest.NewRecorder()

	auth.RestrictTo(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
