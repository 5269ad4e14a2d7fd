package repository

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/catalog"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is an in-process Collection used by the dev server and tests.
// It mirrors the Mongo semantics the service relies on: store-assigned
// ObjectIDs, dotted-path $set/$inc, descending sorts and limits.
type MemoryRepo struct {
	name  string
	mu    sync.RWMutex
	order []primitive.ObjectID
	store map[primitive.ObjectID]catalog.Document
}

func NewMemoryRepo(name string) *MemoryRepo {
	return &MemoryRepo{name: name, store: make(map[primitive.ObjectID]catalog.Document)}
}

func (m *MemoryRepo) Find(ctx context.Context, q Query) ([]catalog.Document, error) {
	m.mu.RLock()
	out := make([]catalog.Document, 0, len(m.order))
	for _, id := range m.order {
		d := m.store[id]
		if matches(d, q.Equals) {
			out = append(out, copyDocument(d))
		}
	}
	m.mu.RUnlock()

	if q.SortDesc != "" {
		sort.SliceStable(out, func(i, j int) bool {
			a, aok := catalog.Lookup(out[i], q.SortDesc)
			b, bok := catalog.Lookup(out[j], q.SortDesc)
			return compareValues(a, aok, b, bok) > 0
		})
	}
	if q.Limit > 0 && int64(len(out)) > q.Limit {
		out = out[:q.Limit]
	}
	metrics.ObserveStore(m.name, "find", nil)
	return out, nil
}

func (m *MemoryRepo) FindByID(ctx context.Context, id string) (catalog.Document, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	metrics.ObserveStore(m.name, "find_one", nil)
	d, ok := m.store[oid]
	if !ok {
		return nil, nil
	}
	return copyDocument(d), nil
}

func (m *MemoryRepo) Insert(ctx context.Context, doc catalog.Document) (*catalog.InsertResult, error) {
	d := copyDocument(doc)
	oid := primitive.NewObjectID()
	d[catalog.FieldID] = oid

	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[oid] = d
	m.order = append(m.order, oid)
	metrics.ObserveStore(m.name, "insert_one", nil)
	return &catalog.InsertResult{Acknowledged: true, InsertedID: oid}, nil
}

func (m *MemoryRepo) Set(ctx context.Context, id string, fields catalog.Document) (*catalog.UpdateResult, error) {
	return m.update(ctx, "set", id, func(d catalog.Document) error {
		for path, v := range fields {
			if err := setPath(d, path, deepCopy(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (m *MemoryRepo) Increment(ctx context.Context, id string, deltas catalog.Document) (*catalog.UpdateResult, error) {
	return m.update(ctx, "increment", id, func(d catalog.Document) error {
		for path, delta := range deltas {
			cur, ok := catalog.Lookup(d, path)
			if !ok {
				cur = int64(0)
			}
			sum, err := addNumbers(cur, delta)
			if err != nil {
				return fmt.Errorf("%w: field %q: %v", ErrRejected, path, err)
			}
			if err := setPath(d, path, sum); err != nil {
				return err
			}
		}
		return nil
	})
}

// update applies mutate to a copy and commits only when it succeeds, keeping
// single-document writes atomic.
func (m *MemoryRepo) update(ctx context.Context, op, id string, mutate func(catalog.Document) error) (*catalog.UpdateResult, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	res := &catalog.UpdateResult{Acknowledged: true}
	cur, ok := m.store[oid]
	if !ok {
		metrics.ObserveStore(m.name, op, nil)
		return res, nil
	}
	next := copyDocument(cur)
	if err := mutate(next); err != nil {
		metrics.ObserveStore(m.name, op, err)
		return nil, err
	}
	res.MatchedCount = 1
	if !reflect.DeepEqual(cur, next) {
		res.ModifiedCount = 1
		m.store[oid] = next
	}
	metrics.ObserveStore(m.name, op, nil)
	return res, nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) (*catalog.DeleteResult, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	metrics.ObserveStore(m.name, "delete_one", nil)

	res := &catalog.DeleteResult{Acknowledged: true}
	if _, ok := m.store[oid]; !ok {
		return res, nil
	}
	delete(m.store, oid)
	for i, o := range m.order {
		if o == oid {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	res.DeletedCount = 1
	return res, nil
}

func matches(d catalog.Document, equals map[string]string) bool {
	for path, want := range equals {
		v, ok := catalog.Lookup(d, path)
		if !ok {
			return false
		}
		if s, isStr := v.(string); !isStr || s != want {
			return false
		}
	}
	return true
}

func setPath(d catalog.Document, path string, v interface{}) error {
	parts := strings.Split(path, ".")
	cur := map[string]interface{}(d)
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p]
		if !ok {
			child := map[string]interface{}{}
			cur[p] = child
			cur = child
			continue
		}
		child, ok := next.(map[string]interface{})
		if !ok {
			return fmt.Errorf("%w: cannot create field %q in non-document %q", ErrRejected, path, p)
		}
		cur = child
	}
	cur[parts[len(parts)-1]] = v
	return nil
}

func addNumbers(cur, delta interface{}) (interface{}, error) {
	ci, cInt := asInt64(cur)
	di, dInt := asInt64(delta)
	if cInt && dInt {
		return ci + di, nil
	}
	cf, ok := asFloat64(cur)
	if !ok {
		return nil, fmt.Errorf("existing value of type %T is not numeric", cur)
	}
	df, ok := asFloat64(delta)
	if !ok {
		return nil, fmt.Errorf("increment of type %T is not numeric", delta)
	}
	return cf + df, nil
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	}
	return 0, false
}

func asFloat64(v interface{}) (float64, bool) {
	if n, ok := asInt64(v); ok {
		return float64(n), true
	}
	if f, ok := v.(float64); ok {
		return f, true
	}
	return 0, false
}

// typeRank follows the store's cross-type sort order for the types JSON can produce.
func typeRank(v interface{}, present bool) int {
	if !present || v == nil {
		return 0
	}
	if _, ok := asFloat64(v); ok {
		return 1
	}
	switch v.(type) {
	case string:
		return 2
	case map[string]interface{}, catalog.Document:
		return 3
	case []interface{}:
		return 4
	case primitive.ObjectID:
		return 5
	case bool:
		return 6
	case time.Time:
		return 7
	}
	return 8
}

func compareValues(a interface{}, aok bool, b interface{}, bok bool) int {
	ra, rb := typeRank(a, aok), typeRank(b, bok)
	if ra != rb {
		return ra - rb
	}
	switch ra {
	case 1:
		fa, _ := asFloat64(a)
		fb, _ := asFloat64(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
	case 2:
		return strings.Compare(a.(string), b.(string))
	case 5:
		x, y := a.(primitive.ObjectID), b.(primitive.ObjectID)
		return strings.Compare(x.Hex(), y.Hex())
	case 6:
		x, y := a.(bool), b.(bool)
		if x != y {
			if y {
				return -1
			}
			return 1
		}
	case 7:
		return a.(time.Time).Compare(b.(time.Time))
	}
	return 0
}

func copyDocument(d catalog.Document) catalog.Document {
	out := make(catalog.Document, len(d))
	for k, v := range d {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(v interface{}) interface{} {
	switch t := v.(type) {
	case catalog.Document:
		return map[string]interface{}(copyDocument(t))
	case map[string]interface{}:
		return map[string]interface{}(copyDocument(t))
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, vv := range t {
			out[i] = deepCopy(vv)
		}
		return out
	}
	return v
}
