package models

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AfterWriteHook runs synchronously after a document has been inserted,
// updated or deleted, within the same request. Its effect is visible to the
// response of that request. No transaction spans the write and the hook; a
// crash in between leaves derived data stale until the next write.
type AfterWriteHook[T any] func(ctx context.Context, doc *T) error

// PopulateFunc resolves referenced documents onto a freshly read one.
type PopulateFunc[T any] func(ctx context.Context, doc *T) error

// beforeSaver lets a model normalize itself before its first insert.
type beforeSaver interface {
	BeforeSave()
}

// Store is a validated, hook-aware handle on one MongoDB collection. It is
// the single data access path: every read merges the store's base filter,
// every write re-runs schema validation, and registered hooks fire after
// each committed write.
type Store[T any] struct {
	coll       *mongo.Collection
	validate   *validator.Validate
	baseFilter bson.M
	afterWrite []AfterWriteHook[T]
	populate   PopulateFunc[T]
}

// NewStore wraps a collection with validation.
func NewStore[T any](coll *mongo.Collection, validate *validator.Validate) *Store[T] {
	return &Store[T]{coll: coll, validate: validate}
}

// SetBaseFilter installs a filter merged into every read, e.g. hiding
// soft-deleted accounts.
func (s *Store[T]) SetBaseFilter(filter bson.M) {
	s.baseFilter = filter
}

// OnAfterWrite registers a post-commit callback.
func (s *Store[T]) OnAfterWrite(hook AfterWriteHook[T]) {
	s.afterWrite = append(s.afterWrite, hook)
}

// SetPopulate installs the relation loader applied to every read result.
func (s *Store[T]) SetPopulate(fn PopulateFunc[T]) {
	s.populate = fn
}

// Collection exposes the raw collection for aggregations and field-level
// updates that bypass schema validation on purpose.
func (s *Store[T]) Collection() *mongo.Collection {
	return s.coll
}

func (s *Store[T]) readFilter(filter bson.M) bson.M {
	if len(s.baseFilter) == 0 {
		return filter
	}
	merged := bson.M{}
	for k, v := range s.baseFilter {
		merged[k] = v
	}
	for k, v := range filter {
		merged[k] = v
	}
	return merged
}

func (s *Store[T]) runPopulate(ctx context.Context, doc *T) error {
	if s.populate == nil {
		return nil
	}
	return s.populate(ctx, doc)
}

func (s *Store[T]) runAfterWrite(ctx context.Context, doc *T) error {
	for _, hook := range s.afterWrite {
		if err := hook(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// InsertOne validates and inserts a document, reads the created record back
// and fires the post-commit hooks.
func (s *Store[T]) InsertOne(ctx context.Context, doc *T) (*T, error) {
	if b, ok := any(doc).(beforeSaver); ok {
		b.BeforeSave()
	}
	if err := s.validate.Struct(doc); err != nil {
		return nil, err
	}
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	created, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.runAfterWrite(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

// FindByID looks a document up by identifier, applying the base filter and
// the populate callback. Returns mongo.ErrNoDocuments when absent.
func (s *Store[T]) FindByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	return s.FindOne(ctx, bson.M{"_id": id})
}

// FindOne returns the first document matching the filter.
func (s *Store[T]) FindOne(ctx context.Context, filter bson.M) (*T, error) {
	var doc T
	if err := s.coll.FindOne(ctx, s.readFilter(filter)).Decode(&doc); err != nil {
		return nil, err
	}
	if err := s.runPopulate(ctx, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindAll returns every document matching the filter, honoring the given
// find options (sort, projection, skip, limit).
func (s *Store[T]) FindAll(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]T, error) {
	if filter == nil {
		filter = bson.M{}
	}
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = s.coll.Find(ctx, s.readFilter(filter), opts)
	} else {
		cursor, err = s.coll.Find(ctx, s.readFilter(filter))
	}
	if err != nil {
		return nil, err
	}
	var docs []T
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	for i := range docs {
		if err := s.runPopulate(ctx, &docs[i]); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// UpdateByID applies a partial patch to a document. The patch is merged into
// the current document and the result re-validated against the schema before
// anything is written. Returns mongo.ErrNoDocuments when absent.
func (s *Store[T]) UpdateByID(ctx context.Context, id primitive.ObjectID, patch bson.M) (*T, error) {
	current, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		return current, nil
	}
	merged, err := applyPatch(current, patch)
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(merged); err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated T
	err = s.coll.FindOneAndUpdate(ctx, s.readFilter(bson.M{"_id": id}), bson.M{"$set": patch}, opts).Decode(&updated)
	if err != nil {
		return nil, err
	}
	if err := s.runPopulate(ctx, &updated); err != nil {
		return nil, err
	}
	if err := s.runAfterWrite(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteByID removes a document and fires the post-commit hooks with the
// deleted record. Returns mongo.ErrNoDocuments when absent.
func (s *Store[T]) DeleteByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	var deleted T
	err := s.coll.FindOneAndDelete(ctx, s.readFilter(bson.M{"_id": id})).Decode(&deleted)
	if err != nil {
		return nil, err
	}
	if err := s.runAfterWrite(ctx, &deleted); err != nil {
		return nil, err
	}
	return &deleted, nil
}

// applyPatch merges a partial payload into a document by round-tripping
// through BSON, so the patched result can be validated as a whole.
func applyPatch[T any](current *T, patch bson.M) (*T, error) {
	raw, err := bson.Marshal(current)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	for k, v := range patch {
		m[k] = v
	}
	data, err := bson.Marshal(m)
	if err != nil {
		return nil, err
	}
	var merged T
	if err := bson.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	return &merged, nil
}
