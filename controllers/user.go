// controllers/user.go
package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"

	"go-tours/middleware"
	"go-tours/models"
	"go-tours/utils"
)

// UserController handles the self-service account endpoints plus the
// admin-only user CRUD.
type UserController struct {
	users  *models.Store[models.User]
	errors *ErrorHandler

	GetAllUsers http.HandlerFunc
	GetUser     http.HandlerFunc
	UpdateUser  http.HandlerFunc
	DeleteUser  http.HandlerFunc
}

// NewUserController builds the user endpoints from the CRUD factory.
func NewUserController(stores *models.Stores, eh *ErrorHandler) *UserController {
	uc := &UserController{users: stores.Users, errors: eh}
	uc.GetAllUsers = GetAll(eh, stores.Users, nil)
	uc.GetUser = GetOne(eh, stores.Users, nil)
	// Admin updates never touch credentials; those go through the auth flows.
	uc.UpdateUser = UpdateOne(eh, stores.Users, "password")
	uc.DeleteUser = DeleteOne(eh, stores.Users)
	return uc
}

// GetMe returns the authenticated user's own profile.
func (uc *UserController) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		uc.errors.Respond(w, r, utils.NewAppError("You are not logged in. Please log in to get access.", http.StatusUnauthorized))
		return
	}
	success(w, http.StatusOK, user)
}

// UpdateMe lets the authenticated user change their own name, email and
// photo. Password changes must go through /updatePassword.
func (uc *UserController) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		uc.errors.Respond(w, r, utils.NewAppError("You are not logged in. Please log in to get access.", http.StatusUnauthorized))
		return
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		uc.errors.Respond(w, r, utils.NewAppError("Invalid input", http.StatusBadRequest))
		return
	}
	if _, hasPassword := payload["password"]; hasPassword {
		uc.errors.Respond(w, r, utils.NewAppError("This route is not for password updates. Please use /updatePassword.", http.StatusBadRequest))
		return
	}
	if _, hasConfirm := payload["passwordConfirm"]; hasConfirm {
		uc.errors.Respond(w, r, utils.NewAppError("This route is not for password updates. Please use /updatePassword.", http.StatusBadRequest))
		return
	}

	filtered := utils.FilterFields(payload, "name", "email", "photo")

	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()
	updated, err := uc.users.UpdateByID(ctx, user.ID, bson.M(filtered))
	if err != nil {
		uc.errors.Respond(w, r, err)
		return
	}
	success(w, http.StatusOK, updated)
}

// DeleteMe soft-deletes the account: it only clears the active flag, the
// record stays in the database but disappears from every read.
func (uc *UserController) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		uc.errors.Respond(w, r, utils.NewAppError("You are not logged in. Please log in to get access.", http.StatusUnauthorized))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()
	_, err := uc.users.Collection().UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{"active": false}})
	if err != nil {
		uc.errors.Respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateUser is intentionally not implemented; accounts are created through
// /signup so they get a hashed password and a session.
func (uc *UserController) CreateUser(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusInternalServerError, envelope{
		"status":  "error",
		"message": "This route is not implemented. Please use /signup instead.",
	})
}
