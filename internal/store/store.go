package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"powertools/internal/shared"
)

// Collection names one of the six document collections.
type Collection string

const (
	Tools       Collection = "tools"
	Orders      Collection = "orders"
	Reviews     Collection = "reviews"
	Users       Collection = "users"
	Payments    Collection = "payments"
	Suggestions Collection = "suggestions"
)

// Collections lists every collection in a stable order.
var Collections = []Collection{Tools, Orders, Reviews, Users, Payments, Suggestions}

// IDField is the document id key in filters and serialized documents.
const IDField = "_id"

var (
	ErrNotFound  = errors.New("document not found")
	ErrInvalidID = errors.New("invalid document id")
)

// Filter matches documents whose fields equal the given string values.
// An empty filter matches every document.
type Filter map[string]string

func ByID(id string) Filter       { return Filter{IDField: id} }
func ByEmail(email string) Filter { return Filter{"email": email} }

// Store is the document store the API talks to. Implementations are safe
// for concurrent use; one instance is opened at startup and reused until
// Close.
//
// Documents are passed as Go values and serialized with their json tags
// (bson tags for Mongo, kept identical). out arguments follow
// encoding/json conventions: a pointer to a struct for FindOne, a pointer
// to a slice for Find.
type Store interface {
	Find(ctx context.Context, c Collection, f Filter, out any) error
	// FindOne returns ErrNotFound when nothing matches.
	FindOne(ctx context.Context, c Collection, f Filter, out any) error
	Insert(ctx context.Context, c Collection, doc any) (shared.InsertResult, error)
	// Update applies set to the first matching document. With upsert and
	// no match, a new document is built from the filter fields plus set.
	Update(ctx context.Context, c Collection, f Filter, set map[string]any, upsert bool) (shared.UpdateResult, error)
	// Delete removes the first matching document; no match is not an error.
	Delete(ctx context.Context, c Collection, f Filter) (shared.DeleteResult, error)
	Close(ctx context.Context) error
}

// toDocument flattens a Go value into a JSON object map.
func toDocument(doc any) (map[string]any, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("document must be a JSON object: %w", err)
	}
	return m, nil
}

// decodeInto copies v into out through its JSON form.
func decodeInto(v any, out any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// applySet merges set into doc and reports whether anything changed.
func applySet(doc map[string]any, set map[string]any) (bool, error) {
	normalized, err := toDocument(set)
	if err != nil {
		return false, err
	}
	changed := false
	for k, v := range normalized {
		if k == IDField {
			continue
		}
		old, ok := doc[k]
		if !ok || !sameValue(old, v) {
			changed = true
		}
		doc[k] = v
	}
	return changed, nil
}

func sameValue(a, b any) bool {
	ab, err1 := json.Marshal(a)
	bb, err2 := json.Marshal(b)
	return err1 == nil && err2 == nil && string(ab) == string(bb)
}

// matches reports whether doc satisfies every field of f.
func matches(id string, doc map[string]any, f Filter) bool {
	for k, want := range f {
		if k == IDField {
			if id != want {
				return false
			}
			continue
		}
		got, ok := doc[k].(string)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// seedFromFilter starts an upserted document from the filter's fields.
func seedFromFilter(f Filter) map[string]any {
	doc := map[string]any{}
	for k, v := range f {
		if k != IDField {
			doc[k] = v
		}
	}
	return doc
}
