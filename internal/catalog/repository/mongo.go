package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/catalog"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Collection over one MongoDB collection. Documents are
// decoded into maps so unknown fields round-trip untouched.
type MongoRepo struct {
	col  *mongo.Collection
	name string
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col, name: col.Name()}
}

// EnsureIndexes creates non-unique indexes on the given fields. Safe to call
// on every start.
func (m *MongoRepo) EnsureIndexes(ctx context.Context, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	models := make([]mongo.IndexModel, 0, len(fields))
	for _, f := range fields {
		models = append(models, mongo.IndexModel{Keys: bson.D{{Key: f, Value: 1}}})
	}
	_, err := m.col.Indexes().CreateMany(ctx, models)
	metrics.ObserveStore(m.name, "create_indexes", err)
	return classify(err)
}

func (m *MongoRepo) Find(ctx context.Context, q Query) ([]catalog.Document, error) {
	filter := bson.M{}
	for k, v := range q.Equals {
		filter[k] = v
	}
	opts := options.Find()
	if q.SortDesc != "" {
		opts.SetSort(bson.D{{Key: q.SortDesc, Value: -1}})
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		metrics.ObserveStore(m.name, "find", err)
		return nil, classify(err)
	}
	defer cur.Close(ctx)

	out := []catalog.Document{}
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			metrics.ObserveStore(m.name, "find", err)
			return nil, classify(err)
		}
		out = append(out, toDocument(raw))
	}
	err = cur.Err()
	metrics.ObserveStore(m.name, "find", err)
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (m *MongoRepo) FindByID(ctx context.Context, id string) (catalog.Document, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var raw bson.M
	err = m.col.FindOne(ctx, bson.M{catalog.FieldID: oid}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		metrics.ObserveStore(m.name, "find_one", nil)
		return nil, nil
	}
	metrics.ObserveStore(m.name, "find_one", err)
	if err != nil {
		return nil, classify(err)
	}
	return toDocument(raw), nil
}

func (m *MongoRepo) Insert(ctx context.Context, doc catalog.Document) (*catalog.InsertResult, error) {
	res, err := m.col.InsertOne(ctx, bson.M(doc))
	metrics.ObserveStore(m.name, "insert_one", err)
	if err != nil {
		return nil, classify(err)
	}
	return &catalog.InsertResult{Acknowledged: true, InsertedID: res.InsertedID}, nil
}

func (m *MongoRepo) Set(ctx context.Context, id string, fields catalog.Document) (*catalog.UpdateResult, error) {
	return m.update(ctx, "set", id, bson.M{"$set": bson.M(fields)})
}

func (m *MongoRepo) Increment(ctx context.Context, id string, deltas catalog.Document) (*catalog.UpdateResult, error) {
	return m.update(ctx, "increment", id, bson.M{"$inc": bson.M(deltas)})
}

func (m *MongoRepo) update(ctx context.Context, op, id string, update bson.M) (*catalog.UpdateResult, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	res, err := m.col.UpdateOne(ctx, bson.M{catalog.FieldID: oid}, update)
	metrics.ObserveStore(m.name, op, err)
	if err != nil {
		return nil, classify(err)
	}
	return &catalog.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
		UpsertedID:    res.UpsertedID,
	}, nil
}

func (m *MongoRepo) Delete(ctx context.Context, id string) (*catalog.DeleteResult, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	res, err := m.col.DeleteOne(ctx, bson.M{catalog.FieldID: oid})
	metrics.ObserveStore(m.name, "delete_one", err)
	if err != nil {
		return nil, classify(err)
	}
	return &catalog.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

// server error codes that mean the request itself was malformed:
// BadValue, FailedToParse, TypeMismatch, ConflictingUpdateOperators, ImmutableField.
var rejectedCodes = map[int32]bool{2: true, 9: true, 14: true, 40: true, 52: true, 66: true}

// classify maps driver errors onto the package's sentinel errors.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded),
		mongo.IsTimeout(err), mongo.IsNetworkError(err), errors.Is(err, mongo.ErrClientDisconnected):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}

	var we mongo.WriteException
	if errors.As(err, &we) {
		return fmt.Errorf("%w: %w", ErrRejected, err)
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && rejectedCodes[ce.Code] {
		return fmt.Errorf("%w: %w", ErrRejected, err)
	}
	return fmt.Errorf("mongo: %w", err)
}

func toDocument(raw bson.M) catalog.Document {
	return catalog.Document(fromBSON(map[string]interface{}(raw)).(map[string]interface{}))
}

// fromBSON rewrites driver container types into plain maps and slices so
// documents from either store look the same to callers.
func fromBSON(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, vv := range t {
			out[k] = fromBSON(vv)
		}
		return out
	case primitive.M:
		return fromBSON(map[string]interface{}(t))
	case primitive.D:
		out := make(map[string]interface{}, len(t))
		for _, e := range t {
			out[e.Key] = fromBSON(e.Value)
		}
		return out
	case primitive.A:
		return fromBSON([]interface{}(t))
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, vv := range t {
			out[i] = fromBSON(vv)
		}
		return out
	}
	return v
}
