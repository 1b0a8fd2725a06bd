package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestRatingUpdateWithStats(t *testing.T) {
	update := ratingUpdate([]ratingStats{{NRating: 3, AvgRating: 4.666666}})

	set := update["$set"].(bson.M)
	assert.Equal(t, 3, set["ratingsQuantity"])
	assert.Equal(t, 4.7, set["ratingsAverage"], "average is rounded to one decimal")
}

func TestRatingUpdateLastReviewDeleted(t *testing.T) {
	update := ratingUpdate(nil)

	set := update["$set"].(bson.M)
	assert.Equal(t, 0, set["ratingsQuantity"])
	assert.Equal(t, DefaultRatingsAverage, set["ratingsAverage"], "average resets to the default, not zero")
}

func TestTourBeforeSaveSlugAndDefaults(t *testing.T) {
	tour := &Tour{Name: "The Forest Hiker"}
	tour.BeforeSave()

	assert.Equal(t, "the-forest-hiker", tour.Slug)
	assert.Equal(t, DefaultRatingsAverage, tour.RatingsAverage)
	assert.False(t, tour.CreatedAt.IsZero())
}
