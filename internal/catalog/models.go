package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Document is a schema-less record from the services or reviews collection.
// Fields are opaque payload except the few named below, which queries use.
type Document map[string]interface{}

// Field names the service reads from otherwise opaque documents.
const (
	FieldID             = "_id"
	FieldServiceID      = "service_id"
	FieldReviewerUserID = "reviewer_info.userID"
	FieldReviewDate     = "review_date"
	FieldHelpCount      = "helpCount"
	FieldAbuseCount     = "abuseCount"
)

// Collection names inside the configured database.
const (
	ServicesCollection = "services"
	ReviewsCollection  = "reviews"
)

// ErrInvalidInput marks a request the service refuses before touching the store.
var ErrInvalidInput = errors.New("invalid input")

// InsertResult acknowledges a single-document insert.
type InsertResult struct {
	Acknowledged bool        `json:"acknowledged"`
	InsertedID   interface{} `json:"insertedId"`
}

// UpdateResult acknowledges a single-document update.
type UpdateResult struct {
	Acknowledged  bool        `json:"acknowledged"`
	MatchedCount  int64       `json:"matchedCount"`
	ModifiedCount int64       `json:"modifiedCount"`
	UpsertedCount int64       `json:"upsertedCount"`
	UpsertedID    interface{} `json:"upsertedId"`
}

// DeleteResult acknowledges a single-document delete.
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// Lookup reads a dotted path such as "reviewer_info.userID".
func Lookup(doc map[string]interface{}, path string) (interface{}, bool) {
	var cur interface{} = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case Document:
		return m, true
	}
	return nil, false
}

// Normalize converts decoded JSON into store-friendly values: json.Number
// becomes int64 when integral and float64 otherwise, recursively.
func Normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, vv := range t {
			out[k] = Normalize(vv)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, vv := range t {
			out[i] = Normalize(vv)
		}
		return out
	}
	return v
}

// DecodeDocument parses a JSON object body into a Document.
func DecodeDocument(body []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Join(ErrInvalidInput, err)
	}
	if dec.More() {
		return nil, errors.Join(ErrInvalidInput, errors.New("trailing data after JSON object"))
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errors.Join(ErrInvalidInput, errors.New("body must be a JSON object"))
	}
	return Document(Normalize(m).(map[string]interface{})), nil
}
