// controllers/auth.go
package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"go-tours/middleware"
	"go-tours/models"
	"go-tours/utils"
)

// AuthController handles session issuance and the password lifecycle.
type AuthController struct {
	users    *models.Store[models.User]
	tokens   *utils.TokenManager
	email    *utils.EmailService
	errors   *ErrorHandler
	validate *validator.Validate
	cfg      *utils.Config
}

// NewAuthController wires the auth endpoints.
func NewAuthController(stores *models.Stores, tokens *utils.TokenManager, email *utils.EmailService, eh *ErrorHandler, validate *validator.Validate, cfg *utils.Config) *AuthController {
	return &AuthController{
		users:    stores.Users,
		tokens:   tokens,
		email:    email,
		errors:   eh,
		validate: validate,
		cfg:      cfg,
	}
}

type signupInput struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type passwordInput struct {
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// sendToken mints a session token and delivers it via both an HTTP-only
// cookie and the JSON response body.
func (ac *AuthController) sendToken(w http.ResponseWriter, r *http.Request, user *models.User, status int) {
	token, err := ac.tokens.Sign(user.ID.Hex())
	if err != nil {
		ac.errors.Respond(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Expires:  time.Now().Add(ac.cfg.JWTCookieExpiresIn),
		HttpOnly: true,
		Secure:   ac.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})

	respondJSON(w, status, envelope{
		"status": "success",
		"token":  token,
		"data": envelope{
			"user": envelope{
				"id":    user.ID.Hex(),
				"name":  user.Name,
				"email": user.Email,
				"role":  user.Role,
			},
		},
	})
}

// Signup handles account creation and immediate session issuance.
func (ac *AuthController) Signup(w http.ResponseWriter, r *http.Request) {
	var input signupInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		ac.errors.Respond(w, r, utils.NewAppError("Invalid input", http.StatusBadRequest))
		return
	}
	// Validation runs before anything is persisted; a passwordConfirm
	// mismatch never reaches the database.
	if err := ac.validate.Struct(&input); err != nil {
		ac.errors.Respond(w, r, err)
		return
	}

	user := &models.User{
		Name:  input.Name,
		Email: strings.ToLower(strings.TrimSpace(input.Email)),
		Role:  models.RoleUser,
	}
	if err := user.SetPassword(input.Password); err != nil {
		ac.errors.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()
	created, err := ac.users.InsertOne(ctx, user)
	if err != nil {
		ac.errors.Respond(w, r, err)
		return
	}

	accountURL := ac.cfg.BaseURL + "/me"
	if err := ac.email.SendWelcome(created.Email, created.Name, accountURL); err != nil {
		ac.errors.Log().Warn().Err(err).Str("email", created.Email).Msg("welcome email failed")
	}

	ac.sendToken(w, r, created, http.StatusCreated)
}

// Login handles authentication, including the lockout state machine run
// before the password check.
func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		ac.errors.Respond(w, r, utils.NewAppError("Invalid input", http.StatusBadRequest))
		return
	}
	if creds.Email == "" || creds.Password == "" {
		ac.errors.Respond(w, r, utils.NewAppError("Please provide email and password", http.StatusBadRequest))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()
	user, err := ac.users.FindOne(ctx, bson.M{"email": strings.ToLower(creds.Email)})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			ac.errors.Respond(w, r, utils.NewAppError("Incorrect email or password", http.StatusUnauthorized))
			return
		}
		ac.errors.Respond(w, r, err)
		return
	}

	now := time.Now()
	// While locked, every attempt is rejected outright, password correctness
	// never enters into it.
	if user.IsLocked(now) {
		remaining := int(user.LockRemaining(now).Seconds())
		msg := fmt.Sprintf("Too many failed attempts. Try again after %d seconds.", remaining)
		ac.errors.Respond(w, r, utils.NewAppError(msg, http.StatusUnauthorized))
		return
	}

	if !user.CorrectPassword(creds.Password) {
		user.RegisterFailedLogin(now)
		if err := ac.persistLockState(ctx, user); err != nil {
			ac.errors.Respond(w, r, err)
			return
		}
		ac.errors.Respond(w, r, utils.NewAppError("Incorrect email or password", http.StatusUnauthorized))
		return
	}

	user.ResetLoginAttempts()
	if err := ac.persistLockState(ctx, user); err != nil {
		ac.errors.Respond(w, r, err)
		return
	}

	ac.sendToken(w, r, user, http.StatusOK)
}

// persistLockState writes only the lockout bookkeeping, bypassing schema
// validation the way the login path must.
func (ac *AuthController) persistLockState(ctx context.Context, user *models.User) error {
	update := bson.M{"$set": bson.M{"loginAttempts": user.LoginAttempts}}
	if user.LockUntil.IsZero() {
		update["$unset"] = bson.M{"lockUntil": ""}
	} else {
		update["$set"].(bson.M)["lockUntil"] = user.LockUntil
	}
	_, err := ac.users.Collection().UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	return err
}

// Logout clears the session cookie.
func (ac *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "loggedOut",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Path:     "/",
	})
	respondJSON(w, http.StatusOK, envelope{"status": "success"})
}

// ForgotPassword generates a reset token and mails it out-of-band. Only the
// token's hash is persisted.
func (ac *AuthController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		ac.errors.Respond(w, r, utils.NewAppError("Invalid input", http.StatusBadRequest))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()
	user, err := ac.users.FindOne(ctx, bson.M{"email": strings.ToLower(input.Email)})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			ac.errors.Respond(w, r, utils.NewAppError("There is no user with this email address.", http.StatusNotFound))
			return
		}
		ac.errors.Respond(w, r, err)
		return
	}

	rawToken, err := user.CreatePasswordResetToken(time.Now())
	if err != nil {
		ac.errors.Respond(w, r, err)
		return
	}
	_, err = ac.users.Collection().UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"passwordResetToken":   user.PasswordResetToken,
		"passwordResetExpires": user.PasswordResetExpires,
	}})
	if err != nil {
		ac.errors.Respond(w, r, err)
		return
	}

	resetURL := fmt.Sprintf("%s/api/v1/users/resetPassword/%s", ac.cfg.BaseURL, rawToken)
	if err := ac.email.SendPasswordReset(user.Email, resetURL); err != nil {
		// Roll the token back so a half-delivered reset cannot linger.
		ac.users.Collection().UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$unset": bson.M{
			"passwordResetToken":   "",
			"passwordResetExpires": "",
		}})
		ac.errors.Respond(w, r, utils.NewAppError("There was an error sending the email. Try again later!", http.StatusInternalServerError))
		return
	}

	respondJSON(w, http.StatusOK, envelope{
		"status":  "success",
		"message": "Token sent to email!",
	})
}

// ResetPassword redeems a reset token and replaces the password, then
// immediately reissues a session token.
func (ac *AuthController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	hashed := models.HashToken(mux.Vars(r)["token"])

	var input passwordInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		ac.errors.Respond(w, r, utils.NewAppError("Invalid input", http.StatusBadRequest))
		return
	}
	if err := ac.validate.Struct(&input); err != nil {
		ac.errors.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()
	user, err := ac.users.FindOne(ctx, bson.M{
		"passwordResetToken":   hashed,
		"passwordResetExpires": bson.M{"$gt": time.Now()},
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			ac.errors.Respond(w, r, utils.NewAppError("Token is invalid or has expired", http.StatusBadRequest))
			return
		}
		ac.errors.Respond(w, r, err)
		return
	}

	if err := ac.replacePassword(ctx, user, input.Password); err != nil {
		ac.errors.Respond(w, r, err)
		return
	}

	ac.sendToken(w, r, user, http.StatusOK)
}

// UpdatePassword lets a logged-in user rotate their password.
func (ac *AuthController) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		ac.errors.Respond(w, r, utils.NewAppError("You are not logged in. Please log in to get access.", http.StatusUnauthorized))
		return
	}

	var input struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		passwordInput
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		ac.errors.Respond(w, r, utils.NewAppError("Invalid input", http.StatusBadRequest))
		return
	}
	if err := ac.validate.Struct(&input); err != nil {
		ac.errors.Respond(w, r, err)
		return
	}

	if !user.CorrectPassword(input.CurrentPassword) {
		ac.errors.Respond(w, r, utils.NewAppError("Incorrect password", http.StatusUnauthorized))
		return
	}
	if input.CurrentPassword == input.Password {
		ac.errors.Respond(w, r, utils.NewAppError("Please provide a new password", http.StatusBadRequest))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()
	if err := ac.replacePassword(ctx, user, input.Password); err != nil {
		ac.errors.Respond(w, r, err)
		return
	}

	ac.sendToken(w, r, user, http.StatusOK)
}

// replacePassword hashes and persists a new password, stamps the change time
// and clears any outstanding reset token. Tokens issued before this point
// become invalid.
func (ac *AuthController) replacePassword(ctx context.Context, user *models.User, plain string) error {
	if err := user.SetPassword(plain); err != nil {
		return err
	}
	user.RecordPasswordChange(time.Now())
	user.ClearPasswordResetToken()

	_, err := ac.users.Collection().UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{
		"$set": bson.M{
			"password":          user.Password,
			"passwordChangedAt": user.PasswordChangedAt,
		},
		"$unset": bson.M{
			"passwordResetToken":   "",
			"passwordResetExpires": "",
		},
	})
	return err
}
