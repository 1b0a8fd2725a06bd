// controllers/review.go
package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-tours/middleware"
	"go-tours/models"
	"go-tours/utils"
)

// ReviewController handles the review lifecycle, both flat and nested under
// a tour.
type ReviewController struct {
	reviews *models.Store[models.Review]
	errors  *ErrorHandler

	GetAllReviews http.HandlerFunc
	GetReview     http.HandlerFunc
	UpdateReview  http.HandlerFunc
	DeleteReview  http.HandlerFunc
}

// NewReviewController builds the review endpoints from the CRUD factory.
// Listing supports the nested route by pre-filtering on the tour from the
// path.
func NewReviewController(stores *models.Stores, eh *ErrorHandler) *ReviewController {
	rc := &ReviewController{reviews: stores.Reviews, errors: eh}

	byTour := func(r *http.Request) (bson.M, error) {
		tourID, ok := mux.Vars(r)["tourId"]
		if !ok {
			return nil, nil
		}
		id, err := primitive.ObjectIDFromHex(tourID)
		if err != nil {
			return nil, err
		}
		return bson.M{"tour": id}, nil
	}

	rc.GetAllReviews = GetAll(eh, stores.Reviews, byTour)
	rc.GetReview = GetOne(eh, stores.Reviews, nil)
	rc.UpdateReview = UpdateOne(eh, stores.Reviews)
	rc.DeleteReview = DeleteOne(eh, stores.Reviews)
	return rc
}

// CreateReview inserts a review. The tour comes from the route (or body on
// the flat route) and the reviewer is always the session user; the body is
// whitelisted to the review text and rating.
func (rc *ReviewController) CreateReview(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		rc.errors.Respond(w, r, utils.NewAppError("You are not logged in. Please log in to get access.", http.StatusUnauthorized))
		return
	}

	var payload struct {
		Review string  `json:"review"`
		Rating float64 `json:"rating"`
		Tour   string  `json:"tour"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		rc.errors.Respond(w, r, utils.NewAppError("Invalid input", http.StatusBadRequest))
		return
	}

	tourHex := mux.Vars(r)["tourId"]
	if tourHex == "" {
		tourHex = payload.Tour
	}
	tourID, err := primitive.ObjectIDFromHex(tourHex)
	if err != nil {
		rc.errors.Respond(w, r, utils.NewAppError("Please provide a valid tour", http.StatusBadRequest))
		return
	}

	review := &models.Review{
		Review: payload.Review,
		Rating: payload.Rating,
		Tour:   tourID,
		User:   user.ID,
	}

	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()
	created, err := rc.reviews.InsertOne(ctx, review)
	if err != nil {
		rc.errors.Respond(w, r, err)
		return
	}
	success(w, http.StatusCreated, created)
}
