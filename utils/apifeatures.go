// utils/apifeatures.go
package utils

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultLimit is the page size used when the caller does not pass one.
	DefaultLimit = 100
	// MaxLimit caps the page size so a caller cannot request an unbounded
	// result set.
	MaxLimit = 1000
)

// comparisonKey matches query keys of the form field[gte], field[lt], etc.
var comparisonKey = regexp.MustCompile(`^(\w+)\[(gte|gt|lte|lt)\]$`)

// reservedKeys are consumed by the builder itself and never become filters.
var reservedKeys = map[string]bool{
	"page":   true,
	"limit":  true,
	"sort":   true,
	"fields": true,
}

// APIFeatures translates a raw query string into the pieces of a MongoDB
// find: an equality/range filter, a sort order, a projection and a skip/limit
// pair. Each step is chainable and independent of the others.
type APIFeatures struct {
	values     url.Values
	filter     bson.M
	sort       bson.D
	projection bson.M
	skip       int64
	limit      int64
}

// NewAPIFeatures wraps the parsed query string of a request.
func NewAPIFeatures(values url.Values) *APIFeatures {
	return &APIFeatures{values: values, filter: bson.M{}}
}

// Filter strips the reserved keys and rewrites comparison suffixes into the
// operators MongoDB expects, e.g. price[gte]=100 -> {"price": {"$gte": 100}}.
// Remaining keys become equality matches.
func (f *APIFeatures) Filter() *APIFeatures {
	for key, vals := range f.values {
		if reservedKeys[key] || len(vals) == 0 {
			continue
		}
		if m := comparisonKey.FindStringSubmatch(key); m != nil {
			field, op := m[1], "$"+m[2]
			cond, ok := f.filter[field].(bson.M)
			if !ok {
				cond = bson.M{}
				f.filter[field] = cond
			}
			cond[op] = coerceValue(vals[0])
			continue
		}
		f.filter[key] = coerceValue(vals[0])
	}
	return f
}

// Sort parses the comma-separated sort list. A leading "-" marks a field as
// descending. Without a sort key the newest documents come first.
func (f *APIFeatures) Sort() *APIFeatures {
	raw := f.values.Get("sort")
	if raw == "" {
		f.sort = bson.D{{Key: "createdAt", Value: -1}}
		return f
	}
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		order := 1
		if strings.HasPrefix(field, "-") {
			order = -1
			field = field[1:]
		}
		f.sort = append(f.sort, bson.E{Key: field, Value: order})
	}
	return f
}

// LimitFields parses the comma-separated projection list. Without one, only
// the internal version field is excluded.
func (f *APIFeatures) LimitFields() *APIFeatures {
	raw := f.values.Get("fields")
	if raw == "" {
		f.projection = bson.M{"__v": 0}
		return f
	}
	projection := bson.M{}
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		projection[field] = 1
	}
	f.projection = projection
	return f
}

// Paginate converts page/limit into a skip/take pair. Page defaults to 1 and
// limit to DefaultLimit, clamped at MaxLimit.
func (f *APIFeatures) Paginate() *APIFeatures {
	page := int64(1)
	if p, err := strconv.ParseInt(f.values.Get("page"), 10, 64); err == nil && p > 0 {
		page = p
	}
	limit := int64(DefaultLimit)
	if l, err := strconv.ParseInt(f.values.Get("limit"), 10, 64); err == nil && l > 0 {
		limit = l
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	f.skip = (page - 1) * limit
	f.limit = limit
	return f
}

// FilterQuery returns the accumulated filter document.
func (f *APIFeatures) FilterQuery() bson.M {
	return f.filter
}

// FindOptions returns the sort, projection and pagination settings as driver
// options.
func (f *APIFeatures) FindOptions() *options.FindOptions {
	opts := options.Find()
	if len(f.sort) > 0 {
		opts.SetSort(f.sort)
	}
	if f.projection != nil {
		opts.SetProjection(f.projection)
	}
	if f.limit > 0 {
		opts.SetSkip(f.skip)
		opts.SetLimit(f.limit)
	}
	return opts
}

// coerceValue turns numeric and boolean query values into their typed form so
// range operators compare numbers instead of strings.
func coerceValue(v string) interface{} {
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v
}
