// controllers/booking.go
package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-tours/middleware"
	"go-tours/models"
	"go-tours/utils"
)

// BookingController handles booking CRUD and the payment-checkout flow.
type BookingController struct {
	tours    *models.Store[models.Tour]
	bookings *models.Store[models.Booking]
	errors   *ErrorHandler
	cfg      *utils.Config

	GetAllBookings http.HandlerFunc
	GetBooking     http.HandlerFunc
	CreateBooking  http.HandlerFunc
	UpdateBooking  http.HandlerFunc
	DeleteBooking  http.HandlerFunc
}

// NewBookingController builds the booking endpoints from the CRUD factory.
func NewBookingController(stores *models.Stores, eh *ErrorHandler, cfg *utils.Config) *BookingController {
	bc := &BookingController{
		tours:    stores.Tours,
		bookings: stores.Bookings,
		errors:   eh,
		cfg:      cfg,
	}
	bc.GetAllBookings = GetAll(eh, stores.Bookings, nil)
	bc.GetBooking = GetOne(eh, stores.Bookings, nil)
	bc.CreateBooking = CreateOne(eh, stores.Bookings)
	bc.UpdateBooking = UpdateOne(eh, stores.Bookings)
	bc.DeleteBooking = DeleteOne(eh, stores.Bookings)
	return bc
}

// GetCheckoutSession creates a Stripe Checkout session for one tour and
// returns its handle; the client redirects to Stripe with it.
func (bc *BookingController) GetCheckoutSession(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		bc.errors.Respond(w, r, utils.NewAppError("You are not logged in. Please log in to get access.", http.StatusUnauthorized))
		return
	}

	tourID, err := primitive.ObjectIDFromHex(mux.Vars(r)["tourId"])
	if err != nil {
		bc.errors.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()
	tour, err := bc.tours.FindByID(ctx, tourID)
	if err != nil {
		bc.errors.Respond(w, r, err)
		return
	}

	// The success redirect carries the purchase data back to the landing
	// page, which records the booking before stripping the query.
	successURL := fmt.Sprintf("%s/?tour=%s&user=%s&price=%g",
		bc.cfg.BaseURL, tour.ID.Hex(), user.ID.Hex(), tour.Price)
	cancelURL := fmt.Sprintf("%s/tour/%s", bc.cfg.BaseURL, tour.Slug)

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		CustomerEmail:     stripe.String(user.Email),
		ClientReferenceID: stripe.String(tour.ID.Hex()),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String("usd"),
					UnitAmount: stripe.Int64(int64(tour.Price * 100)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(tour.Name + " Tour"),
						Description: stripe.String(tour.Summary),
						Images:      []*string{stripe.String(fmt.Sprintf("%s/img/tours/%s", bc.cfg.BaseURL, tour.ImageCover))},
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}

	checkoutSession, err := session.New(params)
	if err != nil {
		bc.errors.Respond(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, envelope{
		"status":  "success",
		"session": checkoutSession,
	})
}

// CreateBookingCheckout is the landing-page middleware for the checkout
// success redirect: when the query carries tour, user and price it records
// the booking, then redirects to the clean URL so the data never shows up in
// the address bar.
func (bc *BookingController) CreateBookingCheckout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		tourHex, userHex, priceRaw := q.Get("tour"), q.Get("user"), q.Get("price")
		if tourHex == "" || userHex == "" || priceRaw == "" {
			next.ServeHTTP(w, r)
			return
		}

		tourID, errTour := primitive.ObjectIDFromHex(tourHex)
		userID, errUser := primitive.ObjectIDFromHex(userHex)
		price, errPrice := strconv.ParseFloat(priceRaw, 64)
		if errTour != nil || errUser != nil || errPrice != nil {
			next.ServeHTTP(w, r)
			return
		}

		booking := &models.Booking{Tour: tourID, User: userID, Price: price, Paid: true}

		ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
		defer cancel()
		if _, err := bc.bookings.InsertOne(ctx, booking); err != nil {
			bc.errors.Respond(w, r, err)
			return
		}

		http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
	})
}
