package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/catalog"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/catalog/repository"
)

// Catalog holds the business operations over the services and reviews
// collections. Every method performs at most one store call.
type Catalog struct {
	services repository.Collection
	reviews  repository.Collection
}

func New(services, reviews repository.Collection) *Catalog {
	return &Catalog{services: services, reviews: reviews}
}

// NewMemory returns a Catalog backed by in-memory collections.
func NewMemory() *Catalog {
	return New(
		repository.NewMemoryRepo(catalog.ServicesCollection),
		repository.NewMemoryRepo(catalog.ReviewsCollection),
	)
}

// ParseLimit reads the datasize query value. Empty and "0" mean no limit.
func ParseLimit(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: datasize must be a non-negative integer", catalog.ErrInvalidInput)
	}
	return n, nil
}

func (s *Catalog) ListServices(ctx context.Context, limit int64) ([]catalog.Document, error) {
	return s.services.Find(ctx, repository.Query{Limit: limit})
}

func (s *Catalog) CreateService(ctx context.Context, doc catalog.Document) (*catalog.InsertResult, error) {
	return s.services.Insert(ctx, withoutID(doc))
}

func (s *Catalog) GetService(ctx context.Context, id string) (catalog.Document, error) {
	return s.services.FindByID(ctx, id)
}

func (s *Catalog) ListReviews(ctx context.Context) ([]catalog.Document, error) {
	return s.reviews.Find(ctx, repository.Query{})
}

func (s *Catalog) CreateReview(ctx context.Context, doc catalog.Document) (*catalog.InsertResult, error) {
	return s.reviews.Insert(ctx, withoutID(doc))
}

func (s *Catalog) GetReview(ctx context.Context, id string) (catalog.Document, error) {
	return s.reviews.FindByID(ctx, id)
}

// ReviewsByService lists reviews whose service_id equals serviceID, newest first.
func (s *Catalog) ReviewsByService(ctx context.Context, serviceID string) ([]catalog.Document, error) {
	return s.reviews.Find(ctx, repository.Query{
		Equals:   map[string]string{catalog.FieldServiceID: serviceID},
		SortDesc: catalog.FieldReviewDate,
	})
}

// ReviewsByUser lists reviews written by userID, newest first.
func (s *Catalog) ReviewsByUser(ctx context.Context, userID string) ([]catalog.Document, error) {
	return s.reviews.Find(ctx, repository.Query{
		Equals:   map[string]string{catalog.FieldReviewerUserID: userID},
		SortDesc: catalog.FieldReviewDate,
	})
}

// UpdateReview overwrites the named fields of one review.
func (s *Catalog) UpdateReview(ctx context.Context, id string, fields catalog.Document) (*catalog.UpdateResult, error) {
	fields = withoutID(fields)
	if err := checkFieldNames(fields); err != nil {
		return nil, err
	}
	return s.reviews.Set(ctx, id, fields)
}

// IncrementReview adds each delta to its field; missing fields start at zero.
func (s *Catalog) IncrementReview(ctx context.Context, id string, deltas catalog.Document) (*catalog.UpdateResult, error) {
	if err := checkFieldNames(deltas); err != nil {
		return nil, err
	}
	for k, v := range deltas {
		switch v.(type) {
		case int64, float64:
		default:
			return nil, fmt.Errorf("%w: increment for %q must be a number", catalog.ErrInvalidInput, k)
		}
	}
	return s.reviews.Increment(ctx, id, deltas)
}

func (s *Catalog) DeleteReview(ctx context.Context, id string) (*catalog.DeleteResult, error) {
	return s.reviews.Delete(ctx, id)
}

var errEmptyUpdate = errors.New("update body must name at least one field")

func checkFieldNames(doc catalog.Document) error {
	if len(doc) == 0 {
		return fmt.Errorf("%w: %w", catalog.ErrInvalidInput, errEmptyUpdate)
	}
	for k := range doc {
		if k == "" || strings.HasPrefix(k, "$") || strings.Contains(k, "..") || strings.HasSuffix(k, ".") || strings.HasPrefix(k, ".") {
			return fmt.Errorf("%w: invalid field name %q", catalog.ErrInvalidInput, k)
		}
	}
	return nil
}

func withoutID(doc catalog.Document) catalog.Document {
	if _, ok := doc[catalog.FieldID]; !ok {
		return doc
	}
	out := make(catalog.Document, len(doc))
	for k, v := range doc {
		if k != catalog.FieldID {
			out[k] = v
		}
	}
	return out
}
