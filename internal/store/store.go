// Package store defines the entity store gateway: the minimal document-store
// capability contract the reconciliation engine is written against. Any backend
// (Postgres, a hosted document store, or the in-memory test store) implements
// the same contract, including the query bounds, so engine behavior does not
// depend on which backend is wired in.
package store

import (
	"context"
	"errors"
	"time"
)

const (
	// MaxInValues is the maximum number of values one membership ("IN")
	// filter accepts. Callers with larger sets must chunk.
	MaxInValues = 10

	// MaxBatchWrites is the maximum number of writes one CommitBatch call
	// accepts. One call is atomic; there is no atomicity across calls.
	MaxBatchWrites = 500
)

// ErrNotFound is returned by Get when no document exists under the id.
var ErrNotFound = errors.New("document not found")

// ErrTooManyValues is returned when a membership filter exceeds MaxInValues.
var ErrTooManyValues = errors.New("membership filter exceeds value limit")

// ErrBatchTooLarge is returned when CommitBatch receives more than MaxBatchWrites writes.
var ErrBatchTooLarge = errors.New("batch exceeds write limit")

// Document is one stored entity: an id plus a free-form JSON object.
type Document struct {
	ID        string
	Data      map[string]interface{}
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Op is a filter operator.
type Op int

const (
	// OpEquals matches documents whose field equals the single value.
	OpEquals Op = iota
	// OpIn matches documents whose field equals any of the values (≤ MaxInValues).
	OpIn
)

// Filter is one field predicate. Filters passed together are a conjunction.
// Scalar comparison is done on whitespace-trimmed text renderings of both the
// stored value and the filter value, so every backend matches a stored
// "Baghdad " against a requested "Baghdad".
type Filter struct {
	Field  string
	Op     Op
	Value  interface{}   // OpEquals
	Values []interface{} // OpIn
}

// Equals builds an equality filter.
func Equals(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpEquals, Value: value}
}

// In builds a membership filter.
func In(field string, values []interface{}) Filter {
	return Filter{Field: field, Op: OpIn, Values: values}
}

// Write is one pending document write. An empty ID means the backend assigns one.
type Write struct {
	Collection string
	ID         string
	Data       map[string]interface{}
}

// Gateway is the capability contract over the document store.
type Gateway interface {
	// Get returns the document with the given id, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// ScanAll returns every document in the collection.
	ScanAll(ctx context.Context, collection string) ([]Document, error)

	// ScanWhereEquals returns documents whose field equals value.
	ScanWhereEquals(ctx context.Context, collection, field string, value interface{}) ([]Document, error)

	// ScanWhereIn returns documents whose field equals any of values.
	// len(values) must be ≤ MaxInValues.
	ScanWhereIn(ctx context.Context, collection, field string, values []interface{}) ([]Document, error)

	// ScanWhereAll returns documents matching every filter.
	// Each OpIn filter is bounded by MaxInValues.
	ScanWhereAll(ctx context.Context, collection string, filters []Filter) ([]Document, error)

	// CommitBatch atomically persists up to MaxBatchWrites writes.
	CommitBatch(ctx context.Context, writes []Write) error

	// UpdateArrayUnion appends values to an array field as a set union:
	// values already present are not duplicated. Safe to re-run.
	UpdateArrayUnion(ctx context.Context, collection, id, field string, values []interface{}) error

	// NewID returns a fresh document id.
	NewID() string
}

// ValidateFilters checks filter bounds before a backend executes them.
func ValidateFilters(filters []Filter) error {
	for _, f := range filters {
		if f.Op == OpIn && len(f.Values) > MaxInValues {
			return ErrTooManyValues
		}
	}
	return nil
}
