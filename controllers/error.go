// controllers/error.go
package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"go-tours/utils"
	"go-tours/views"
)

// ErrorHandler is the single place every request error funnels through.
// Operational errors surface their message to the caller; programming errors
// are logged server-side and replaced with a generic message, unless the app
// runs in development mode.
type ErrorHandler struct {
	log        zerolog.Logger
	production bool
	renderer   *views.Renderer
}

// NewErrorHandler builds the central error responder.
func NewErrorHandler(log zerolog.Logger, production bool, renderer *views.Renderer) *ErrorHandler {
	return &ErrorHandler{log: log, production: production, renderer: renderer}
}

// Log exposes the handler's logger for warnings that should not abort the
// request.
func (h *ErrorHandler) Log() *zerolog.Logger {
	return &h.log
}

// Respond classifies err and writes the response: JSON for API paths, a
// rendered error page otherwise.
func (h *ErrorHandler) Respond(w http.ResponseWriter, r *http.Request, err error) {
	appErr := classify(err)
	operational := appErr != nil

	if !operational {
		appErr = utils.NewAppError("Something went very wrong!", http.StatusInternalServerError)
	}

	if operational {
		h.log.Warn().Err(err).Str("path", r.URL.Path).Int("status", appErr.StatusCode).Msg("request failed")
	} else {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
	}

	if strings.HasPrefix(r.URL.Path, "/api") {
		h.respondJSON(w, err, appErr, operational)
		return
	}
	h.respondPage(w, err, appErr, operational)
}

func (h *ErrorHandler) respondJSON(w http.ResponseWriter, err error, appErr *utils.AppError, operational bool) {
	body := map[string]interface{}{
		"status":  statusLabel(appErr.StatusCode),
		"message": appErr.Message,
	}
	if !h.production {
		// Development mode always returns the full error detail.
		body["error"] = err.Error()
		if !operational {
			body["message"] = err.Error()
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	json.NewEncoder(w).Encode(body)
}

func (h *ErrorHandler) respondPage(w http.ResponseWriter, err error, appErr *utils.AppError, operational bool) {
	message := appErr.Message
	if !h.production && !operational {
		message = err.Error()
	}
	if h.renderer == nil {
		http.Error(w, message, appErr.StatusCode)
		return
	}
	data := views.PageData{Title: "Something went wrong", Message: message}
	if renderErr := h.renderer.Render(w, appErr.StatusCode, "error", data); renderErr != nil {
		h.log.Error().Err(renderErr).Msg("error page render failed")
	}
}

// classify maps known error shapes to operational errors. Returns nil for
// anything unrecognized, which is then treated as a programming error.
func classify(err error) *utils.AppError {
	if appErr, ok := utils.AsAppError(err); ok {
		return appErr
	}

	if mongo.IsDuplicateKeyError(err) {
		return utils.NewAppError("Duplicate field value. Please use another value.", http.StatusBadRequest)
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		messages := make([]string, 0, len(validationErrs))
		for _, fe := range validationErrs {
			messages = append(messages, fmt.Sprintf("field %q failed on the %q rule", fe.Field(), fe.Tag()))
		}
		return utils.NewAppError("Invalid input data. "+strings.Join(messages, ". "), http.StatusBadRequest)
	}

	var jwtErr *jwt.ValidationError
	if errors.As(err, &jwtErr) {
		if jwtErr.Errors&jwt.ValidationErrorExpired != 0 {
			return utils.NewAppError("Your token has expired. Please log in again.", http.StatusUnauthorized)
		}
		return utils.NewAppError("Invalid token. Please log in again.", http.StatusUnauthorized)
	}

	if errors.Is(err, primitive.ErrInvalidHex) {
		return utils.NewAppError("Invalid identifier.", http.StatusBadRequest)
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return utils.NewAppError("No document found with that ID", http.StatusNotFound)
	}

	return nil
}

// statusLabel mirrors the conventional fail/error split: 4xx is the caller's
// fault, everything else is ours.
func statusLabel(statusCode int) string {
	if statusCode >= 400 && statusCode < 500 {
		return "fail"
	}
	return "error"
}
