package repository

import (
	"context"
	"errors"

	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/catalog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrInvalidID is returned when an identifier is not a 24-hex ObjectID.
	ErrInvalidID = errors.New("invalid id")
	// ErrRejected is returned when the store refuses a write or query as malformed.
	ErrRejected = errors.New("rejected by store")
	// ErrConflict is returned on unique-key violations.
	ErrConflict = errors.New("conflicting document")
	// ErrUnavailable is returned when the store cannot be reached in time.
	ErrUnavailable = errors.New("store unavailable")
)

// Query selects documents by string equality on dotted fields, optionally
// sorted descending on one field and capped at Limit (0 = no cap).
type Query struct {
	Equals   map[string]string
	SortDesc string
	Limit    int64
}

// Collection is one logical document collection. FindByID returns (nil, nil)
// when no document has the id.
type Collection interface {
	Find(ctx context.Context, q Query) ([]catalog.Document, error)
	FindByID(ctx context.Context, id string) (catalog.Document, error)
	Insert(ctx context.Context, doc catalog.Document) (*catalog.InsertResult, error)
	Set(ctx context.Context, id string, fields catalog.Document) (*catalog.UpdateResult, error)
	Increment(ctx context.Context, id string, deltas catalog.Document) (*catalog.UpdateResult, error)
	Delete(ctx context.Context, id string) (*catalog.DeleteResult, error)
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}
