package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"franchise-catalog/internal/catalog/domain/model"
	apperrors "franchise-catalog/internal/shared/errors"
	"franchise-catalog/internal/shared/logger"
	"franchise-catalog/internal/shared/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CodeDocumentNotFound is attached to NotFound errors raised by the generic layer
const CodeDocumentNotFound = "DOCUMENT_NOT_FOUND"

// mergeExcluded lists the fields a partial update never overwrites
var mergeExcluded = map[string]struct{}{
	fieldID:        {},
	fieldVersion:   {},
	fieldCreatedAt: {},
}

// AdapterOperations provides typed persistence over one collection for entity E stored as document D
// under identifiers of type I. Every write increments the document version; replacements are guarded
// by the version that was read.
type AdapterOperations[E, D any, I comparable] struct {
	collection CollectionInterface
	name       string
	entity     string
	mapper     *Mapper[E, D]
	idOf       func(*D) I
	versionOf  func(*D) *int64
	logger     logger.Logger
}

// NewAdapterOperations wires a generic adapter. idOf and versionOf expose the document's key and counter.
func NewAdapterOperations[E, D any, I comparable](
	collection CollectionInterface,
	name string,
	entity string,
	mapper *Mapper[E, D],
	idOf func(*D) I,
	versionOf func(*D) *int64,
	log logger.Logger,
) *AdapterOperations[E, D, I] {
	return &AdapterOperations[E, D, I]{
		collection: collection,
		name:       name,
		entity:     entity,
		mapper:     mapper,
		idOf:       idOf,
		versionOf:  versionOf,
		logger:     log.WithComponent("adapter." + name),
	}
}

// Mapper returns the entity/document mapper
func (o *AdapterOperations[E, D, I]) Mapper() *Mapper[E, D] {
	return o.mapper
}

// Save maps e, persists it and maps the stored document back.
// A document without version is inserted; otherwise it replaces the stored one guarded by its version.
func (o *AdapterOperations[E, D, I]) Save(ctx context.Context, e E) (E, error) {
	doc := o.mapper.ToDocument(&e)
	if err := o.persist(ctx, doc); err != nil {
		var zero E
		return zero, err
	}
	return *o.mapper.ToEntity(doc), nil
}

// FindByID loads the entity stored under id. The boolean is false when nothing matches.
func (o *AdapterOperations[E, D, I]) FindByID(ctx context.Context, id I) (E, bool, error) {
	return o.FindOneByQuery(ctx, bson.M{fieldID: id})
}

// FindAll returns every stored entity in store order
func (o *AdapterOperations[E, D, I]) FindAll(ctx context.Context) ([]E, error) {
	return o.FindByQuery(ctx, bson.M{})
}

// Stream decodes matching documents one at a time and hands each entity to fn.
// Iteration stops at the first error returned by fn.
func (o *AdapterOperations[E, D, I]) Stream(ctx context.Context, filter interface{}, fn func(E) error, opts ...*options.FindOptions) (err error) {
	started := time.Now()
	defer func() { o.observe("find", started, err) }()

	cursor, err := o.collection.Find(ctx, filter, opts...)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", o.name, err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc D
		if err = cursor.Decode(&doc); err != nil {
			return fmt.Errorf("failed to decode %s document: %w", o.name, err)
		}
		if err = fn(*o.mapper.ToEntity(&doc)); err != nil {
			return err
		}
	}
	if err = cursor.Err(); err != nil {
		return fmt.Errorf("cursor error on %s: %w", o.name, err)
	}
	return nil
}

// FindByQuery collects every entity matching filter
func (o *AdapterOperations[E, D, I]) FindByQuery(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]E, error) {
	out := []E{}
	err := o.Stream(ctx, filter, func(e E) error {
		out = append(out, e)
		return nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindOneByQuery returns the first entity matching filter
func (o *AdapterOperations[E, D, I]) FindOneByQuery(ctx context.Context, filter interface{}) (E, bool, error) {
	var zero E
	var doc D
	found, err := o.findDocument(ctx, filter, &doc)
	if err != nil || !found {
		return zero, false, err
	}
	return *o.mapper.ToEntity(&doc), true, nil
}

// ExistsByQuery reports whether at least one document matches filter
func (o *AdapterOperations[E, D, I]) ExistsByQuery(ctx context.Context, filter interface{}) (exists bool, err error) {
	started := time.Now()
	defer func() { o.observe("count", started, err) }()

	count, err := o.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to count %s: %w", o.name, err)
	}
	return count > 0, nil
}

// DeleteByID removes the document stored under id. Deleting a missing id is not an error;
// the boolean reports whether a document was removed.
func (o *AdapterOperations[E, D, I]) DeleteByID(ctx context.Context, id I) (deleted bool, err error) {
	started := time.Now()
	defer func() { o.observe("delete", started, err) }()

	res, err := o.collection.DeleteOne(ctx, bson.M{fieldID: id})
	if err != nil {
		return false, fmt.Errorf("failed to delete %s: %w", o.name, err)
	}
	return res.Deleted() > 0, nil
}

// MergeNonNullAndSave copies the present fields of partial onto the stored document and saves it.
// Fields _id, version and createdAt are never copied. A missing id fails with NotFound before any
// write. Duplicate-key errors are returned unchanged; a concurrent write between the read and the
// replace fails with a version Conflict. Each set func runs on the merged document before the write,
// for values the presence rule cannot carry such as an explicit zero.
func (o *AdapterOperations[E, D, I]) MergeNonNullAndSave(ctx context.Context, id I, partial E, set ...func(*D)) (E, error) {
	var zero E
	var existing D
	found, err := o.findDocument(ctx, bson.M{fieldID: id}, &existing)
	if err != nil {
		return zero, err
	}
	if !found {
		return zero, apperrors.NewNotFoundError(o.entity).
			WithCode(CodeDocumentNotFound).
			WithComponent("adapter." + o.name).
			WithDetail("entity", o.entity).
			WithDetail("id", id)
	}

	merged := o.mapper.Merge(&existing, &partial, mergeExcluded)
	for _, fn := range set {
		fn(&existing)
	}
	if err := o.persist(ctx, &existing); err != nil {
		return zero, err
	}

	o.logger.WithFields(map[string]interface{}{
		"id":      id,
		"fields":  merged,
		"version": *o.versionOf(&existing),
	}).Debug("Merged partial update")

	return *o.mapper.ToEntity(&existing), nil
}

// UpdateFirstMatched applies update to the first document matching filter and reports whether one matched.
// The version counter is incremented alongside the update.
func (o *AdapterOperations[E, D, I]) UpdateFirstMatched(ctx context.Context, filter interface{}, update bson.M) (matched bool, err error) {
	started := time.Now()
	defer func() { o.observe("update", started, err) }()

	res, err := o.collection.UpdateOne(ctx, filter, withVersionBump(update))
	if err != nil {
		return false, err
	}
	return res.Matched() > 0, nil
}

// FindAndModifyReturningEntity applies update to the first document matching filter and returns the
// entity as stored after the update. The boolean is false when nothing matched.
func (o *AdapterOperations[E, D, I]) FindAndModifyReturningEntity(ctx context.Context, filter interface{}, update bson.M) (E, bool, error) {
	var zero E
	var doc D
	started := time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := o.collection.FindOneAndUpdate(ctx, filter, withVersionBump(update), opts).Decode(&doc)
	o.observe("find_and_modify", started, err)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	return *o.mapper.ToEntity(&doc), true, nil
}

func (o *AdapterOperations[E, D, I]) findDocument(ctx context.Context, filter interface{}, doc *D) (bool, error) {
	started := time.Now()
	err := o.collection.FindOne(ctx, filter).Decode(doc)
	o.observe("find_one", started, err)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", o.name, err)
	}
	return true, nil
}

// persist inserts a new document or replaces the stored one guarded by its current version.
// On success the document carries its new version.
func (o *AdapterOperations[E, D, I]) persist(ctx context.Context, doc *D) (err error) {
	version := o.versionOf(doc)
	if *version == 0 {
		started := time.Now()
		defer func() { o.observe("insert", started, err) }()

		*version = 1
		if _, err = o.collection.InsertOne(ctx, doc); err != nil {
			*version = 0
			return err
		}
		return nil
	}

	started := time.Now()
	defer func() { o.observe("replace", started, err) }()

	expected := *version
	*version = expected + 1
	id := o.idOf(doc)
	res, err := o.collection.ReplaceOne(ctx, bson.M{fieldID: id, fieldVersion: expected}, doc)
	if err != nil {
		*version = expected
		return err
	}
	if res.Matched() == 0 {
		*version = expected
		return model.VersionConflict(o.entity, id)
	}
	return nil
}

func (o *AdapterOperations[E, D, I]) observe(operation string, started time.Time, err error) {
	metrics.ObserveStore(o.name, operation, outcomeOf(err), started)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, mongo.ErrNoDocuments):
		return metrics.OutcomeMiss
	case mongo.IsDuplicateKeyError(err):
		return metrics.OutcomeDuplicate
	default:
		return metrics.OutcomeError
	}
}

// withVersionBump returns a copy of update that also increments the version counter
func withVersionBump(update bson.M) bson.M {
	out := make(bson.M, len(update)+1)
	for k, v := range update {
		out[k] = v
	}
	inc := bson.M{}
	if existing, ok := out["$inc"].(bson.M); ok {
		for k, v := range existing {
			inc[k] = v
		}
	}
	inc[fieldVersion] = 1
	out["$inc"] = inc
	return out
}
