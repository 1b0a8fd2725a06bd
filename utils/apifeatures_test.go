package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestFilterRewritesComparisonSuffixes(t *testing.T) {
	values, err := url.ParseQuery("duration[gte]=5&price[lt]=1000&difficulty=easy")
	require.NoError(t, err)

	filter := NewAPIFeatures(values).Filter().FilterQuery()

	assert.Equal(t, bson.M{"$gte": float64(5)}, filter["duration"])
	assert.Equal(t, bson.M{"$lt": float64(1000)}, filter["price"])
	assert.Equal(t, "easy", filter["difficulty"])
}

func TestFilterMergesOperatorsOnSameField(t *testing.T) {
	values, err := url.ParseQuery("price[gte]=100&price[lte]=500")
	require.NoError(t, err)

	filter := NewAPIFeatures(values).Filter().FilterQuery()

	assert.Equal(t, bson.M{"$gte": float64(100), "$lte": float64(500)}, filter["price"])
}

func TestFilterSkipsReservedKeys(t *testing.T) {
	values, err := url.ParseQuery("page=2&limit=10&sort=price&fields=name&duration=5")
	require.NoError(t, err)

	filter := NewAPIFeatures(values).Filter().FilterQuery()

	assert.Equal(t, bson.M{"duration": float64(5)}, filter)
}

func TestSortParsesDirection(t *testing.T) {
	values, err := url.ParseQuery("sort=-price,ratingsAverage")
	require.NoError(t, err)

	f := NewAPIFeatures(values).Sort()

	assert.Equal(t, bson.D{
		{Key: "price", Value: -1},
		{Key: "ratingsAverage", Value: 1},
	}, f.sort)
}

func TestSortDefaultsToNewestFirst(t *testing.T) {
	f := NewAPIFeatures(url.Values{}).Sort()

	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, f.sort)
}

func TestLimitFieldsBuildsProjection(t *testing.T) {
	values, err := url.ParseQuery("fields=name,price,duration")
	require.NoError(t, err)

	f := NewAPIFeatures(values).LimitFields()

	assert.Equal(t, bson.M{"name": 1, "price": 1, "duration": 1}, f.projection)
}

func TestLimitFieldsDefaultExcludesVersionKey(t *testing.T) {
	f := NewAPIFeatures(url.Values{}).LimitFields()

	assert.Equal(t, bson.M{"__v": 0}, f.projection)
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantSkip  int64
		wantLimit int64
	}{
		{"defaults", "", 0, DefaultLimit},
		{"explicit page and limit", "page=3&limit=10", 20, 10},
		{"limit clamped", "limit=5000", 0, MaxLimit},
		{"invalid page ignored", "page=-1&limit=10", 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			f := NewAPIFeatures(values).Paginate()

			assert.Equal(t, tt.wantSkip, f.skip)
			assert.Equal(t, tt.wantLimit, f.limit)
		})
	}
}

func TestCoerceValue(t *testing.T) {
	assert.Equal(t, float64(42), coerceValue("42"))
	assert.Equal(t, 4.5, coerceValue("4.5"))
	assert.Equal(t, true, coerceValue("true"))
	assert.Equal(t, "medium", coerceValue("medium"))
}
