package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"go-tours/models"
	"go-tours/utils"
)

// Key type for context
type contextKey string

const userContextKey = contextKey("user")

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "jwt"

// UserFinder loads an account by its identifier.
type UserFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// ErrorResponder formats an error onto the response. Injected from the
// central error handler so middleware failures render like everything else.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

// Auth verifies session tokens and attaches the authenticated identity to
// the request.
type Auth struct {
	tokens  *utils.TokenManager
	users   UserFinder
	onError ErrorResponder
}

// NewAuth wires the auth middleware.
func NewAuth(tokens *utils.TokenManager, users UserFinder, onError ErrorResponder) *Auth {
	return &Auth{tokens: tokens, users: users, onError: onError}
}

// Protect rejects the request unless it carries a valid session token for an
// existing user whose password has not changed since the token was issued.
func (a *Auth) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.userFromRequest(r)
		if err != nil {
			a.onError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// IsLoggedIn runs the same checks as Protect but never blocks: it only
// decorates the request with the user when one is logged in. View rendering
// uses it to show session state.
func (a *Auth) IsLoggedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.userFromRequest(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RestrictTo forbids the request unless the authenticated identity's role is
// in the allow-list. Must run after Protect.
func (a *Auth) RestrictTo(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || !allowed[user.Role] {
				a.onError(w, r, utils.NewAppError("You do not have permission to perform this action", http.StatusForbidden))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *Auth) userFromRequest(r *http.Request) (*models.User, error) {
	token := extractToken(r)
	if token == "" {
		return nil, utils.NewAppError("You are not logged in. Please log in to get access.", http.StatusUnauthorized)
	}

	claims, err := a.tokens.Verify(token)
	if err != nil {
		// The error handler maps expired/invalid JWT errors to 401.
		return nil, err
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, utils.NewAppError("Invalid token. Please log in again.", http.StatusUnauthorized)
	}

	user, err := a.users.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewAppError("The user belonging to this token no longer exists.", http.StatusUnauthorized)
		}
		return nil, err
	}

	if user.ChangedPasswordAfter(claims.IssuedAt) {
		return nil, utils.NewAppError("Password was changed recently. Please log in again.", http.StatusUnauthorized)
	}

	return user, nil
}

// extractToken pulls the session token from the Authorization header or the
// session cookie.
func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// WithUser attaches the authenticated user to a context.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user attached by Protect or
// IsLoggedIn.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey).(*models.User)
	return user, ok
}
