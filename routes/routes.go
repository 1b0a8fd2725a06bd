// routes/routes.go
package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"go-tours/controllers"
	"go-tours/middleware"
	"go-tours/models"
	"go-tours/utils"
)

// Controllers bundles every handler group the router mounts.
type Controllers struct {
	Auth     *controllers.AuthController
	Tours    *controllers.TourController
	Users    *controllers.UserController
	Reviews  *controllers.ReviewController
	Bookings *controllers.BookingController
	Views    *controllers.ViewController
	Errors   *controllers.ErrorHandler
}

// RegisterRoutes mounts the API and the rendered pages on the router.
func RegisterRoutes(r *mux.Router, c Controllers, auth *middleware.Auth, limiter *middleware.RateLimiter) {
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(limiter.Middleware)
	api.Use(middleware.BodyLimit(maxBodySize))

	registerUserRoutes(api, c, auth)
	registerTourRoutes(api, c, auth)
	registerReviewRoutes(api, c, auth)
	registerBookingRoutes(api, c, auth)
	registerViewRoutes(r, c, auth)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		c.Errors.Respond(w, req, utils.NewAppError("Can't find "+req.URL.Path+" on this server!", http.StatusNotFound))
	})
}

// maxBodySize caps JSON request bodies at 10kb.
const maxBodySize = 10 << 10

func registerUserRoutes(api *mux.Router, c Controllers, auth *middleware.Auth) {
	users := api.PathPrefix("/users").Subrouter()

	users.HandleFunc("/signup", c.Auth.Signup).Methods(http.MethodPost)
	users.HandleFunc("/login", c.Auth.Login).Methods(http.MethodPost)
	users.HandleFunc("/logout", c.Auth.Logout).Methods(http.MethodGet)
	users.HandleFunc("/forgotPassword", c.Auth.ForgotPassword).Methods(http.MethodPost)
	users.HandleFunc("/resetPassword/{token}", c.Auth.ResetPassword).Methods(http.MethodPatch)

	// Everything below requires a valid session.
	users.Handle("/updateMyPassword", auth.Protect(http.HandlerFunc(c.Auth.UpdatePassword))).Methods(http.MethodPatch)
	users.Handle("/me", auth.Protect(http.HandlerFunc(c.Users.GetMe))).Methods(http.MethodGet)
	users.Handle("/updateMe", auth.Protect(http.HandlerFunc(c.Users.UpdateMe))).Methods(http.MethodPatch)
	users.Handle("/deleteMe", auth.Protect(http.HandlerFunc(c.Users.DeleteMe))).Methods(http.MethodDelete)

	admin := func(h http.HandlerFunc) http.Handler {
		return auth.Protect(auth.RestrictTo(models.RoleAdmin)(h))
	}
	users.Handle("", admin(c.Users.GetAllUsers)).Methods(http.MethodGet)
	users.Handle("", admin(c.Users.CreateUser)).Methods(http.MethodPost)
	users.Handle("/{id}", admin(c.Users.GetUser)).Methods(http.MethodGet)
	users.Handle("/{id}", admin(c.Users.UpdateUser)).Methods(http.MethodPatch)
	users.Handle("/{id}", admin(c.Users.DeleteUser)).Methods(http.MethodDelete)
}

func registerTourRoutes(api *mux.Router, c Controllers, auth *middleware.Auth) {
	tours := api.PathPrefix("/tours").Subrouter()

	manage := func(h http.HandlerFunc) http.Handler {
		return auth.Protect(auth.RestrictTo(models.RoleAdmin, models.RoleLeadGuide)(h))
	}

	// Static paths are registered ahead of /{id} so mux does not swallow
	// them as identifiers.
	tours.HandleFunc("/top-5-cheap", c.Tours.AliasTopTours).Methods(http.MethodGet)
	tours.HandleFunc("/tour-stats", c.Tours.GetTourStats).Methods(http.MethodGet)
	tours.HandleFunc("/tour-by-year/{year}", c.Tours.GetToursByYear).Methods(http.MethodGet)
	tours.HandleFunc("/tours-within/{distance}/center/{latlng}/unit/{unit}", c.Tours.GetToursWithin).Methods(http.MethodGet)
	tours.HandleFunc("/distance/{latlng}/unit/{unit}", c.Tours.GetDistances).Methods(http.MethodGet)

	tours.HandleFunc("", c.Tours.GetAllTours).Methods(http.MethodGet)
	tours.Handle("", manage(c.Tours.CreateTour)).Methods(http.MethodPost)
	tours.HandleFunc("/{id}", c.Tours.GetTour).Methods(http.MethodGet)
	tours.Handle("/{id}", manage(c.Tours.UpdateTour)).Methods(http.MethodPatch)
	tours.Handle("/{id}", manage(c.Tours.DeleteTour)).Methods(http.MethodDelete)

	// Nested review routes under a tour.
	nested := tours.PathPrefix("/{tourId}/reviews").Subrouter()
	nested.Handle("", auth.Protect(http.HandlerFunc(c.Reviews.GetAllReviews))).Methods(http.MethodGet)
	nested.Handle("", auth.Protect(auth.RestrictTo(models.RoleUser)(http.HandlerFunc(c.Reviews.CreateReview)))).Methods(http.MethodPost)
}

func registerReviewRoutes(api *mux.Router, c Controllers, auth *middleware.Auth) {
	reviews := api.PathPrefix("/reviews").Subrouter()
	reviews.Use(auth.Protect)

	moderate := func(h http.HandlerFunc) http.Handler {
		return auth.RestrictTo(models.RoleUser, models.RoleAdmin)(h)
	}
	reviews.HandleFunc("", c.Reviews.GetAllReviews).Methods(http.MethodGet)
	reviews.Handle("", auth.RestrictTo(models.RoleUser)(http.HandlerFunc(c.Reviews.CreateReview))).Methods(http.MethodPost)
	reviews.HandleFunc("/{id}", c.Reviews.GetReview).Methods(http.MethodGet)
	reviews.Handle("/{id}", moderate(c.Reviews.UpdateReview)).Methods(http.MethodPatch)
	reviews.Handle("/{id}", moderate(c.Reviews.DeleteReview)).Methods(http.MethodDelete)
}

func registerBookingRoutes(api *mux.Router, c Controllers, auth *middleware.Auth) {
	bookings := api.PathPrefix("/bookings").Subrouter()
	bookings.Use(auth.Protect)

	bookings.HandleFunc("/checkout-session/{tourId}", c.Bookings.GetCheckoutSession).Methods(http.MethodGet)

	manage := func(h http.HandlerFunc) http.Handler {
		return auth.RestrictTo(models.RoleAdmin, models.RoleLeadGuide)(h)
	}
	bookings.Handle("", manage(c.Bookings.GetAllBookings)).Methods(http.MethodGet)
	bookings.Handle("", manage(c.Bookings.CreateBooking)).Methods(http.MethodPost)
	bookings.Handle("/{id}", manage(c.Bookings.GetBooking)).Methods(http.MethodGet)
	bookings.Handle("/{id}", manage(c.Bookings.UpdateBooking)).Methods(http.MethodPatch)
	bookings.Handle("/{id}", manage(c.Bookings.DeleteBooking)).Methods(http.MethodDelete)
}

func registerViewRoutes(r *mux.Router, c Controllers, auth *middleware.Auth) {
	// The landing page doubles as the Stripe success URL, so the booking
	// middleware runs ahead of the session check.
	r.Handle("/", c.Bookings.CreateBookingCheckout(auth.IsLoggedIn(http.HandlerFunc(c.Views.GetOverview)))).Methods(http.MethodGet)
	r.Handle("/tour/{slug}", auth.IsLoggedIn(http.HandlerFunc(c.Views.GetTour))).Methods(http.MethodGet)
	r.Handle("/login", auth.IsLoggedIn(http.HandlerFunc(c.Views.Login))).Methods(http.MethodGet)
	r.Handle("/me", auth.Protect(http.HandlerFunc(c.Views.GetAccount))).Methods(http.MethodGet)
	r.Handle("/my-bookings", auth.Protect(http.HandlerFunc(c.Views.MyBookings))).Methods(http.MethodGet)
}
