// Package memstore provides an in-memory implementation of the entity store
// gateway for tests. It honors the same query bounds as the production
// backend and offers failure-injection hooks for exercising degraded paths.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"medical_advisor_backend/internal/store"

	"github.com/google/uuid"
)

// Store is an in-memory store.Gateway. Safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]record

	// ScanHook, when set, runs before every scan; a non-nil return fails
	// that scan. Used to simulate per-chunk store errors.
	ScanHook func(collection string, filters []store.Filter) error

	// CommitHook, when set, runs before every CommitBatch; a non-nil
	// return fails that commit. Used to simulate batch faults.
	CommitHook func(writes []store.Write) error
}

type record struct {
	data      map[string]interface{}
	createdAt time.Time
	updatedAt time.Time
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{collections: make(map[string]map[string]record)}
}

// Seed inserts or replaces a document without going through CommitBatch.
func (s *Store) Seed(collection, id string, data map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(collection, id, data)
}

func (s *Store) put(collection, id string, data map[string]interface{}) {
	coll, ok := s.collections[collection]
	if !ok {
		coll = make(map[string]record)
		s.collections[collection] = coll
	}
	now := time.Now()
	rec, exists := coll[id]
	if !exists {
		rec.createdAt = now
	}
	rec.data = deepCopy(data)
	rec.updatedAt = now
	coll[id] = rec
}

// Count returns the number of documents in a collection.
func (s *Store) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func (s *Store) Get(_ context.Context, collection, id string) (store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.collections[collection][id]
	if !ok {
		return store.Document{}, store.ErrNotFound
	}
	return store.Document{ID: id, Data: deepCopy(rec.data), CreatedAt: rec.createdAt, UpdatedAt: rec.updatedAt}, nil
}

func (s *Store) ScanAll(ctx context.Context, collection string) ([]store.Document, error) {
	return s.ScanWhereAll(ctx, collection, nil)
}

func (s *Store) ScanWhereEquals(ctx context.Context, collection, field string, value interface{}) ([]store.Document, error) {
	return s.ScanWhereAll(ctx, collection, []store.Filter{store.Equals(field, value)})
}

func (s *Store) ScanWhereIn(ctx context.Context, collection, field string, values []interface{}) ([]store.Document, error) {
	return s.ScanWhereAll(ctx, collection, []store.Filter{store.In(field, values)})
}

func (s *Store) ScanWhereAll(_ context.Context, collection string, filters []store.Filter) ([]store.Document, error) {
	if err := store.ValidateFilters(filters); err != nil {
		return nil, err
	}
	if s.ScanHook != nil {
		if err := s.ScanHook(collection, filters); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.collections[collection]))
	for id := range s.collections[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs := make([]store.Document, 0)
	for _, id := range ids {
		rec := s.collections[collection][id]
		if matchesAll(rec.data, filters) {
			docs = append(docs, store.Document{ID: id, Data: deepCopy(rec.data), CreatedAt: rec.createdAt, UpdatedAt: rec.updatedAt})
		}
	}
	return docs, nil
}

func (s *Store) CommitBatch(_ context.Context, writes []store.Write) error {
	if len(writes) == 0 {
		return nil
	}
	if len(writes) > store.MaxBatchWrites {
		return store.ErrBatchTooLarge
	}
	if s.CommitHook != nil {
		if err := s.CommitHook(writes); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range writes {
		id := w.ID
		if id == "" {
			id = s.NewID()
		}
		s.put(w.Collection, id, w.Data)
	}
	return nil
}

func (s *Store) UpdateArrayUnion(_ context.Context, collection, id, field string, values []interface{}) error {
	if len(values) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.collections[collection][id]
	if !ok {
		return store.ErrNotFound
	}

	existing, _ := rec.data[field].([]interface{})
	seen := make(map[string]bool, len(existing))
	for _, item := range existing {
		seen[fmt.Sprint(item)] = true
	}
	for _, item := range values {
		key := fmt.Sprint(item)
		if !seen[key] {
			existing = append(existing, item)
			seen[key] = true
		}
	}
	rec.data[field] = existing
	rec.updatedAt = time.Now()
	s.collections[collection][id] = rec
	return nil
}

func (s *Store) NewID() string {
	return uuid.NewString()
}

func matchesAll(data map[string]interface{}, filters []store.Filter) bool {
	for _, f := range filters {
		actual, ok := data[f.Field]
		if !ok {
			return false
		}
		switch f.Op {
		case store.OpEquals:
			if scalarText(actual) != scalarText(f.Value) {
				return false
			}
		case store.OpIn:
			found := false
			for _, v := range f.Values {
				if scalarText(actual) == scalarText(v) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// scalarText renders a filter operand for comparison, trimmed per the
// gateway contract.
func scalarText(v interface{}) string {
	return strings.TrimSpace(fmt.Sprint(v))
}

func deepCopy(src map[string]interface{}) map[string]interface{} {
	if src == nil {
		return nil
	}
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = copyValue(v)
	}
	return dst
}

func copyValue(v interface{}) interface{} {
	switch typed := v.(type) {
	case map[string]interface{}:
		return deepCopy(typed)
	case []interface{}:
		out := make([]interface{}, len(typed))
		for i, item := range typed {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
