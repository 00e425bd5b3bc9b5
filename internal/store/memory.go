package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"powertools/internal/shared"
)

type memDoc struct {
	id   string
	body map[string]any
}

// MemoryStore keeps every collection in process memory. It backs tests
// and the "memory" driver; contents are lost on exit.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[Collection][]memDoc
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[Collection][]memDoc{}}
}

func (s *MemoryStore) Find(_ context.Context, c Collection, f Filter, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := []map[string]any{}
	for _, d := range s.docs[c] {
		if matches(d.id, d.body, f) {
			found = append(found, withID(d))
		}
	}
	return decodeInto(found, out)
}

func (s *MemoryStore) FindOne(_ context.Context, c Collection, f Filter, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.docs[c] {
		if matches(d.id, d.body, f) {
			return decodeInto(withID(d), out)
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) Insert(_ context.Context, c Collection, doc any) (shared.InsertResult, error) {
	body, err := toDocument(doc)
	if err != nil {
		return shared.InsertResult{}, err
	}
	delete(body, IDField)

	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.docs[c] = append(s.docs[c], memDoc{id: id, body: body})
	return shared.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

func (s *MemoryStore) Update(_ context.Context, c Collection, f Filter, set map[string]any, upsert bool) (shared.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := shared.UpdateResult{Acknowledged: true}
	for i, d := range s.docs[c] {
		if !matches(d.id, d.body, f) {
			continue
		}
		changed, err := applySet(d.body, set)
		if err != nil {
			return shared.UpdateResult{}, err
		}
		s.docs[c][i] = d
		res.MatchedCount = 1
		if changed {
			res.ModifiedCount = 1
		}
		return res, nil
	}

	if !upsert {
		return res, nil
	}
	body := seedFromFilter(f)
	if _, err := applySet(body, set); err != nil {
		return shared.UpdateResult{}, err
	}
	id := f[IDField]
	if id == "" {
		id = uuid.NewString()
	}
	s.docs[c] = append(s.docs[c], memDoc{id: id, body: body})
	res.UpsertedCount = 1
	res.UpsertedID = id
	return res, nil
}

func (s *MemoryStore) Delete(_ context.Context, c Collection, f Filter) (shared.DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.docs[c]
	for i, d := range docs {
		if matches(d.id, d.body, f) {
			s.docs[c] = append(docs[:i:i], docs[i+1:]...)
			return shared.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
		}
	}
	return shared.DeleteResult{Acknowledged: true}, nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }

func withID(d memDoc) map[string]any {
	out := make(map[string]any, len(d.body)+1)
	for k, v := range d.body {
		out[k] = v
	}
	out[IDField] = d.id
	return out
}
