package models

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Stores bundles one Store per entity type, with the cross-entity hooks
// already wired. It is built once at startup and handed to the controllers.
type Stores struct {
	Tours    *Store[Tour]
	Users    *Store[User]
	Reviews  *Store[Review]
	Bookings *Store[Booking]
}

// NewStores constructs the stores over the given database and registers the
// schema-level behavior: secret tours and soft-deleted users are invisible
// to reads, review reads join the reviewer, and every review write
// recomputes the owning tour's rating aggregate.
func NewStores(db *mongo.Database, validate *validator.Validate) *Stores {
	tours := NewStore[Tour](db.Collection("tours"), validate)
	users := NewStore[User](db.Collection("users"), validate)
	reviews := NewStore[Review](db.Collection("reviews"), validate)
	bookings := NewStore[Booking](db.Collection("bookings"), validate)

	tours.SetBaseFilter(bson.M{"secretTour": bson.M{"$ne": true}})
	users.SetBaseFilter(bson.M{"active": bson.M{"$ne": false}})

	reviews.SetPopulate(func(ctx context.Context, r *Review) error {
		author, err := users.FindByID(ctx, r.User)
		if err != nil {
			// A deleted or deactivated reviewer just leaves the join empty.
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil
			}
			return err
		}
		r.Author = &ReviewAuthor{ID: author.ID, Name: author.Name, Photo: author.Photo}
		return nil
	})

	reviews.OnAfterWrite(func(ctx context.Context, r *Review) error {
		return CalcAverageRatings(ctx, reviews.Collection(), tours.Collection(), r.Tour)
	})

	return &Stores{
		Tours:    tours,
		Users:    users,
		Reviews:  reviews,
		Bookings: bookings,
	}
}

// EnsureIndexes creates the indexes the schemas rely on. Safe to call on
// every startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	_, err := db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("reviews").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "tour", Value: 1}, {Key: "user", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("tours").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "startLocation", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "price", Value: 1}, {Key: "ratingsAverage", Value: -1}}},
		{Keys: bson.D{{Key: "slug", Value: 1}}},
	})
	return err
}
