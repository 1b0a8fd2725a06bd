// controllers/tour.go
package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"

	"go-tours/models"
	"go-tours/utils"
)

// Unit conversion factors for the geospatial endpoints.
const (
	earthRadiusMiles = 3963.2
	earthRadiusKm    = 6378.1
	metersToMiles    = 0.000621371
	metersToKm       = 0.001
)

// TourController handles tour CRUD plus the derived aggregate and
// geospatial views.
type TourController struct {
	tours  *models.Store[models.Tour]
	errors *ErrorHandler

	GetAllTours http.HandlerFunc
	GetTour     http.HandlerFunc
	CreateTour  http.HandlerFunc
	UpdateTour  http.HandlerFunc
	DeleteTour  http.HandlerFunc
}

// NewTourController builds the tour endpoints from the CRUD factory. Reading
// a single tour follows the reviews relation.
func NewTourController(stores *models.Stores, eh *ErrorHandler) *TourController {
	tc := &TourController{tours: stores.Tours, errors: eh}

	withReviews := func(ctx context.Context, t *models.Tour) error {
		reviews, err := stores.Reviews.FindAll(ctx, bson.M{"tour": t.ID}, nil)
		if err != nil {
			return err
		}
		t.Reviews = reviews
		return nil
	}

	tc.GetAllTours = GetAll(eh, stores.Tours, nil)
	tc.GetTour = GetOne(eh, stores.Tours, withReviews)
	// The rating aggregate belongs to the review hooks, never to the client.
	tc.CreateTour = CreateOne(eh, stores.Tours, "ratingsAverage", "ratingsQuantity")
	tc.UpdateTour = UpdateOne(eh, stores.Tours, "ratingsAverage", "ratingsQuantity")
	tc.DeleteTour = DeleteOne(eh, stores.Tours)
	return tc
}

// AliasTopTours presets the query for the five best-rated tours before
// handing off to the regular listing.
func (tc *TourController) AliasTopTours(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	q.Set("limit", "5")
	q.Set("sort", "-ratingsAverage,price")
	r.URL.RawQuery = q.Encode()
	tc.GetAllTours(w, r)
}

// GetTourStats aggregates tour metrics per difficulty over the well-rated
// tours.
func (tc *TourController) GetTourStats(w http.ResponseWriter, r *http.Request) {
	pipeline := []bson.M{
		{"$match": bson.M{"ratingsAverage": bson.M{"$gte": 4.5}}},
		{"$group": bson.M{
			"_id":       bson.M{"$toUpper": "$difficulty"},
			"numTours":  bson.M{"$sum": 1},
			"avgRating": bson.M{"$avg": "$ratingsAverage"},
			"avgPrice":  bson.M{"$avg": "$price"},
			"minPrice":  bson.M{"$min": "$price"},
			"maxPrice":  bson.M{"$max": "$price"},
		}},
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	cursor, err := tc.tours.Collection().Aggregate(ctx, pipeline)
	if err != nil {
		tc.errors.Respond(w, r, err)
		return
	}
	var stats []bson.M
	if err := cursor.All(ctx, &stats); err != nil {
		tc.errors.Respond(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, envelope{
		"status": "success",
		"data":   envelope{"stats": stats},
	})
}

// GetToursByYear groups the tour starts of one year by month.
func (tc *TourController) GetToursByYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(mux.Vars(r)["year"])
	if err != nil {
		tc.errors.Respond(w, r, utils.NewAppError("Please provide a valid year", http.StatusBadRequest))
		return
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
	pipeline := []bson.M{
		{"$unwind": "$startDates"},
		{"$match": bson.M{"startDates": bson.M{"$gte": from, "$lte": to}}},
		{"$group": bson.M{
			"_id":           bson.M{"$month": "$startDates"},
			"numTourStarts": bson.M{"$sum": 1},
			"tours":         bson.M{"$push": "$name"},
		}},
		{"$sort": bson.M{"numTourStarts": -1}},
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	cursor, err := tc.tours.Collection().Aggregate(ctx, pipeline)
	if err != nil {
		tc.errors.Respond(w, r, err)
		return
	}
	var monthsData []bson.M
	if err := cursor.All(ctx, &monthsData); err != nil {
		tc.errors.Respond(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, envelope{
		"status":      "success",
		"requestedAt": time.Now().UTC().Format(time.RFC3339),
		"result":      len(monthsData),
		"data":        envelope{"monthsData": monthsData},
	})
}

// GetToursWithin lists tours whose start location lies within a radius of a
// center point, e.g. /tours-within/200/center/34.1,-118.1/unit/mi.
func (tc *TourController) GetToursWithin(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	distance, err := strconv.ParseFloat(vars["distance"], 64)
	if err != nil {
		tc.errors.Respond(w, r, utils.NewAppError("Please provide a valid distance", http.StatusBadRequest))
		return
	}
	lat, lng, err := parseLatLng(vars["latlng"])
	if err != nil {
		tc.errors.Respond(w, r, err)
		return
	}

	// The radius must be in radians for $centerSphere.
	radius := distance / earthRadiusKm
	if vars["unit"] == "mi" {
		radius = distance / earthRadiusMiles
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	tours, err := tc.tours.FindAll(ctx, bson.M{
		"startLocation": bson.M{
			"$geoWithin": bson.M{"$centerSphere": bson.A{bson.A{lng, lat}, radius}},
		},
	}, nil)
	if err != nil {
		tc.errors.Respond(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, envelope{
		"status": "success",
		"result": len(tours),
		"data":   envelope{"data": tours},
	})
}

// GetDistances returns each tour's distance from a point, in the requested
// unit.
func (tc *TourController) GetDistances(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	lat, lng, err := parseLatLng(vars["latlng"])
	if err != nil {
		tc.errors.Respond(w, r, err)
		return
	}

	multiplier := metersToKm
	if vars["unit"] == "mi" {
		multiplier = metersToMiles
	}

	// $geoNear must be the first pipeline stage.
	pipeline := []bson.M{
		{"$geoNear": bson.M{
			"near": bson.M{
				"type":        "Point",
				"coordinates": bson.A{lng, lat},
			},
			"distanceField":      "distance",
			"distanceMultiplier": multiplier,
		}},
		{"$project": bson.M{"distance": 1, "name": 1}},
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	cursor, err := tc.tours.Collection().Aggregate(ctx, pipeline)
	if err != nil {
		tc.errors.Respond(w, r, err)
		return
	}
	var distances []bson.M
	if err := cursor.All(ctx, &distances); err != nil {
		tc.errors.Respond(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, envelope{
		"status": "success",
		"data":   envelope{"data": distances},
	})
}

// parseLatLng splits a "lat,lng" path segment.
func parseLatLng(latlng string) (float64, float64, error) {
	parts := strings.Split(latlng, ",")
	if len(parts) != 2 {
		return 0, 0, utils.NewAppError("Please provide latitude and longitude in the format lat,lng.", http.StatusBadRequest)
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLat != nil || errLng != nil {
		return 0, 0, utils.NewAppError("Please provide latitude and longitude in the format lat,lng.", http.StatusBadRequest)
	}
	return lat, lng, nil
}
