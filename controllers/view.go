// controllers/view.go
package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"go-tours/middleware"
	"go-tours/models"
	"go-tours/utils"
	"go-tours/views"
)

// ViewController renders the HTML pages. Every handler reads the session
// user the IsLoggedIn middleware may have attached.
type ViewController struct {
	tours    *models.Store[models.Tour]
	reviews  *models.Store[models.Review]
	bookings *models.Store[models.Booking]
	renderer *views.Renderer
	errors   *ErrorHandler
}

// NewViewController wires the page handlers.
func NewViewController(stores *models.Stores, renderer *views.Renderer, eh *ErrorHandler) *ViewController {
	return &ViewController{
		tours:    stores.Tours,
		reviews:  stores.Reviews,
		bookings: stores.Bookings,
		renderer: renderer,
		errors:   eh,
	}
}

func (vc *ViewController) render(w http.ResponseWriter, r *http.Request, status int, name string, data views.PageData) {
	if user, ok := middleware.UserFromContext(r.Context()); ok {
		data.User = user
	}
	if err := vc.renderer.Render(w, status, name, data); err != nil {
		vc.errors.Respond(w, r, err)
	}
}

// GetOverview renders the landing page with all tours.
func (vc *ViewController) GetOverview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	tours, err := vc.tours.FindAll(ctx, nil, nil)
	if err != nil {
		vc.errors.Respond(w, r, err)
		return
	}
	vc.render(w, r, http.StatusOK, "overview", views.PageData{Title: "All Tours", Tours: tours})
}

// GetTour renders one tour's detail page, reviews included.
func (vc *ViewController) GetTour(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()
	tour, err := vc.tours.FindOne(ctx, bson.M{"slug": slug})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			vc.errors.Respond(w, r, utils.NewAppError("There is no tour with that name.", http.StatusNotFound))
			return
		}
		vc.errors.Respond(w, r, err)
		return
	}

	reviews, err := vc.reviews.FindAll(ctx, bson.M{"tour": tour.ID}, nil)
	if err != nil {
		vc.errors.Respond(w, r, err)
		return
	}
	tour.Reviews = reviews

	vc.render(w, r, http.StatusOK, "tour", views.PageData{Title: tour.Name + " Tour", Tour: tour})
}

// Login renders the login form.
func (vc *ViewController) Login(w http.ResponseWriter, r *http.Request) {
	vc.render(w, r, http.StatusOK, "login", views.PageData{Title: "Log into your account"})
}

// GetAccount renders the account settings page.
func (vc *ViewController) GetAccount(w http.ResponseWriter, r *http.Request) {
	vc.render(w, r, http.StatusOK, "account", views.PageData{Title: "Your Account"})
}

// MyBookings renders the overview restricted to the tours the user booked.
func (vc *ViewController) MyBookings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		vc.errors.Respond(w, r, utils.NewAppError("You are not logged in. Please log in to get access.", http.StatusUnauthorized))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	bookings, err := vc.bookings.FindAll(ctx, bson.M{"user": user.ID}, nil)
	if err != nil {
		vc.errors.Respond(w, r, err)
		return
	}

	tourIDs := make([]interface{}, 0, len(bookings))
	for _, booking := range bookings {
		tourIDs = append(tourIDs, booking.Tour)
	}

	var tours []models.Tour
	if len(tourIDs) > 0 {
		tours, err = vc.tours.FindAll(ctx, bson.M{"_id": bson.M{"$in": tourIDs}}, nil)
		if err != nil {
			vc.errors.Respond(w, r, err)
			return
		}
	}

	vc.render(w, r, http.StatusOK, "overview", views.PageData{Title: "My Bookings", Tours: tours})
}
