package models

import (
	"context"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ReviewAuthor is the slice of the reviewer joined onto every review read.
type ReviewAuthor struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Photo string             `json:"photo,omitempty"`
}

// Review represents one user's review of one tour. A compound unique index
// on (tour, user) keeps it to at most one review per pair.
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Review    string             `bson:"review" json:"review" validate:"required"`
	Rating    float64            `bson:"rating" json:"rating" validate:"required,gte=1,lte=5"`
	Tour      primitive.ObjectID `bson:"tour" json:"tour" validate:"required"`
	User      primitive.ObjectID `bson:"user" json:"-" validate:"required"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`

	// Author is populated on read with the reviewer's name and photo.
	Author *ReviewAuthor `bson:"-" json:"user,omitempty"`
}

// BeforeSave stamps the creation time before the first insert.
func (r *Review) BeforeSave() {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
}

type ratingStats struct {
	NRating   int     `bson:"nRating"`
	AvgRating float64 `bson:"avgRating"`
}

// ratingUpdate maps aggregation output to the tour update. With no reviews
// left the average resets to the default rather than zero.
func ratingUpdate(stats []ratingStats) bson.M {
	if len(stats) == 0 {
		return bson.M{"$set": bson.M{
			"ratingsQuantity": 0,
			"ratingsAverage":  DefaultRatingsAverage,
		}}
	}
	return bson.M{"$set": bson.M{
		"ratingsQuantity": stats[0].NRating,
		"ratingsAverage":  math.Round(stats[0].AvgRating*10) / 10,
	}}
}

// CalcAverageRatings recomputes a tour's rating count and average from all
// reviews referencing it.
func CalcAverageRatings(ctx context.Context, reviews, tours *mongo.Collection, tourID primitive.ObjectID) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"tour": tourID}}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$tour",
			"nRating":   bson.M{"$sum": 1},
			"avgRating": bson.M{"$avg": "$rating"},
		}}},
	}
	cursor, err := reviews.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	var stats []ratingStats
	if err := cursor.All(ctx, &stats); err != nil {
		return err
	}
	_, err = tours.UpdateOne(ctx, bson.M{"_id": tourID}, ratingUpdate(stats))
	return err
}
