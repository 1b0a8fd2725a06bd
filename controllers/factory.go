// controllers/factory.go
package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-tours/models"
	"go-tours/utils"
)

const dbTimeout = 5 * time.Second

type envelope map[string]interface{}

// respondJSON writes a JSON body with the given status code.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// success wraps a document in the standard response envelope.
func success(w http.ResponseWriter, status int, doc interface{}) {
	respondJSON(w, status, envelope{
		"status": "success",
		"data":   envelope{"data": doc},
	})
}

// pathID parses the {id} route variable into an ObjectID.
func pathID(r *http.Request) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(mux.Vars(r)["id"])
}

// NestedFilter extracts a parent-resource filter from the route, enabling
// nested listings such as the reviews under one tour.
type NestedFilter func(r *http.Request) (bson.M, error)

// CreateOne returns a handler that inserts a full payload and responds 201
// with the created record. Fields named in protected are dropped from the
// payload before decoding; everything else is gated by model validation.
func CreateOne[T any](eh *ErrorHandler, store *models.Store[T], protected ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			eh.Respond(w, r, utils.NewAppError("Invalid input", http.StatusBadRequest))
			return
		}
		for _, field := range protected {
			delete(payload, field)
		}

		raw, err := json.Marshal(payload)
		if err != nil {
			eh.Respond(w, r, err)
			return
		}
		var doc T
		if err := json.Unmarshal(raw, &doc); err != nil {
			eh.Respond(w, r, utils.NewAppError("Invalid input", http.StatusBadRequest))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
		defer cancel()
		created, err := store.InsertOne(ctx, &doc)
		if err != nil {
			eh.Respond(w, r, err)
			return
		}
		success(w, http.StatusCreated, created)
	}
}

// GetOne returns a handler that looks a record up by identifier, optionally
// following a named relation via populate.
func GetOne[T any](eh *ErrorHandler, store *models.Store[T], populate models.PopulateFunc[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			eh.Respond(w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
		defer cancel()
		doc, err := store.FindByID(ctx, id)
		if err != nil {
			eh.Respond(w, r, err)
			return
		}
		if populate != nil {
			if err := populate(ctx, doc); err != nil {
				eh.Respond(w, r, err)
				return
			}
		}
		success(w, http.StatusOK, doc)
	}
}

// GetAll returns a handler that applies the query feature builder to the
// store's collection, optionally pre-filtered by a parent resource from the
// route.
func GetAll[T any](eh *ErrorHandler, store *models.Store[T], nested NestedFilter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		features := utils.NewAPIFeatures(r.URL.Query()).
			Filter().
			Sort().
			LimitFields().
			Paginate()

		filter := features.FilterQuery()
		if nested != nil {
			parent, err := nested(r)
			if err != nil {
				eh.Respond(w, r, err)
				return
			}
			for k, v := range parent {
				filter[k] = v
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()
		docs, err := store.FindAll(ctx, filter, features.FindOptions())
		if err != nil {
			eh.Respond(w, r, err)
			return
		}

		respondJSON(w, http.StatusOK, envelope{
			"status":      "success",
			"requestedAt": time.Now().UTC().Format(time.RFC3339),
			"result":      len(docs),
			"data":        envelope{"data": docs},
		})
	}
}

// UpdateOne returns a handler that applies a partial payload by identifier,
// with schema validation re-run on the merged document. Fields named in
// protected are dropped from the patch alongside the identifier.
func UpdateOne[T any](eh *ErrorHandler, store *models.Store[T], protected ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			eh.Respond(w, r, err)
			return
		}

		var patch map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			eh.Respond(w, r, utils.NewAppError("Invalid input", http.StatusBadRequest))
			return
		}
		// The identifier is immutable.
		delete(patch, "_id")
		delete(patch, "id")
		for _, field := range protected {
			delete(patch, field)
		}

		ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
		defer cancel()
		updated, err := store.UpdateByID(ctx, id, bson.M(patch))
		if err != nil {
			eh.Respond(w, r, err)
			return
		}
		success(w, http.StatusOK, updated)
	}
}

// DeleteOne returns a handler that removes a record by identifier and
// responds with an empty success body.
func DeleteOne[T any](eh *ErrorHandler, store *models.Store[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			eh.Respond(w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
		defer cancel()
		if _, err := store.DeleteByID(ctx, id); err != nil {
			eh.Respond(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
