package memstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"medical_advisor_backend/internal/store"
)

func TestGet_ReturnsNotFoundForMissingDocument(t *testing.T) {
	s := New()
	if _, err := s.Get(context.Background(), "plans", "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScanWhereAll_ConjunctionOfFilters(t *testing.T) {
	s := New()
	s.Seed("clients", "c1", map[string]interface{}{"departmentId": "cardio", "city": "Basra"})
	s.Seed("clients", "c2", map[string]interface{}{"departmentId": "cardio", "city": "Erbil"})
	s.Seed("clients", "c3", map[string]interface{}{"departmentId": "ortho", "city": "Basra"})

	docs, err := s.ScanWhereAll(context.Background(), "clients", []store.Filter{
		store.Equals("departmentId", "cardio"),
		store.Equals("city", "Basra"),
	})
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "c1" {
		t.Fatalf("expected only c1, got %+v", docs)
	}
}

func TestScanWhereIn_EnforcesValueLimit(t *testing.T) {
	s := New()
	values := make([]interface{}, store.MaxInValues+1)
	for i := range values {
		values[i] = fmt.Sprintf("v%d", i)
	}
	if _, err := s.ScanWhereIn(context.Background(), "clients", "city", values); !errors.Is(err, store.ErrTooManyValues) {
		t.Fatalf("expected ErrTooManyValues, got %v", err)
	}

	if _, err := s.ScanWhereIn(context.Background(), "clients", "city", values[:store.MaxInValues]); err != nil {
		t.Fatalf("at-limit membership filter must pass, got %v", err)
	}
}

func TestScanWhereAll_TrimsScalarComparison(t *testing.T) {
	s := New()
	s.Seed("clients", "c1", map[string]interface{}{"city": "Baghdad ", "state": "approved"})

	docs, err := s.ScanWhereAll(context.Background(), "clients", []store.Filter{
		store.Equals("city", " Baghdad"),
	})
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "c1" {
		t.Fatalf("trimmed equality must match stored trailing whitespace, got %+v", docs)
	}

	docs, err = s.ScanWhereIn(context.Background(), "clients", "city", []interface{}{"Baghdad"})
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("trimmed membership must match stored trailing whitespace, got %d", len(docs))
	}
}

func TestCommitBatch_EnforcesWriteLimit(t *testing.T) {
	s := New()
	writes := make([]store.Write, store.MaxBatchWrites+1)
	for i := range writes {
		writes[i] = store.Write{Collection: "tasks", Data: map[string]interface{}{"n": i}}
	}
	if err := s.CommitBatch(context.Background(), writes); !errors.Is(err, store.ErrBatchTooLarge) {
		t.Fatalf("expected ErrBatchTooLarge, got %v", err)
	}

	if err := s.CommitBatch(context.Background(), writes[:store.MaxBatchWrites]); err != nil {
		t.Fatalf("at-limit batch must commit, got %v", err)
	}
	if got := s.Count("tasks"); got != store.MaxBatchWrites {
		t.Fatalf("expected %d documents, got %d", store.MaxBatchWrites, got)
	}
}

func TestCommitBatch_AssignsIDsAndUpserts(t *testing.T) {
	s := New()
	err := s.CommitBatch(context.Background(), []store.Write{
		{Collection: "tasks", Data: map[string]interface{}{"title": "a"}},
		{Collection: "tasks", ID: "fixed", Data: map[string]interface{}{"title": "b"}},
	})
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if got := s.Count("tasks"); got != 2 {
		t.Fatalf("expected 2 documents, got %d", got)
	}

	err = s.CommitBatch(context.Background(), []store.Write{
		{Collection: "tasks", ID: "fixed", Data: map[string]interface{}{"title": "b2"}},
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	doc, err := s.Get(context.Background(), "tasks", "fixed")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if doc.Data["title"] != "b2" {
		t.Fatalf("expected upserted title b2, got %v", doc.Data["title"])
	}
	if got := s.Count("tasks"); got != 2 {
		t.Fatalf("upsert must not add a document, got %d", got)
	}
}

func TestUpdateArrayUnion_IsIdempotent(t *testing.T) {
	s := New()
	s.Seed("plans", "p1", map[string]interface{}{"clientsIds": []interface{}{"c1"}})

	for i := 0; i < 2; i++ {
		err := s.UpdateArrayUnion(context.Background(), "plans", "p1", "clientsIds", []interface{}{"c1", "c2"})
		if err != nil {
			t.Fatalf("union failed: %v", err)
		}
	}

	doc, err := s.Get(context.Background(), "plans", "p1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	ids, _ := doc.Data["clientsIds"].([]interface{})
	if len(ids) != 2 {
		t.Fatalf("expected set union of 2, got %v", ids)
	}
}

func TestUpdateArrayUnion_MapElementsDeduplicated(t *testing.T) {
	s := New()
	s.Seed("plans", "p1", map[string]interface{}{})

	entry := map[string]interface{}{"productId": "prod-1", "targetSales": 40}
	for i := 0; i < 2; i++ {
		err := s.UpdateArrayUnion(context.Background(), "plans", "p1", "targetProductSales", []interface{}{entry})
		if err != nil {
			t.Fatalf("union failed: %v", err)
		}
	}

	doc, _ := s.Get(context.Background(), "plans", "p1")
	targets, _ := doc.Data["targetProductSales"].([]interface{})
	if len(targets) != 1 {
		t.Fatalf("expected single target entry, got %v", targets)
	}
}

func TestUpdateArrayUnion_MissingDocument(t *testing.T) {
	s := New()
	err := s.UpdateArrayUnion(context.Background(), "plans", "ghost", "clientsIds", []interface{}{"c1"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDocumentsAreIsolatedCopies(t *testing.T) {
	s := New()
	s.Seed("clients", "c1", map[string]interface{}{"doctors": []interface{}{map[string]interface{}{"name": "Ali"}}})

	doc, err := s.Get(context.Background(), "clients", "c1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	doctors := doc.Data["doctors"].([]interface{})
	doctors[0].(map[string]interface{})["name"] = "mutated"

	fresh, _ := s.Get(context.Background(), "clients", "c1")
	name := fresh.Data["doctors"].([]interface{})[0].(map[string]interface{})["name"]
	if name != "Ali" {
		t.Fatal("caller mutation must not leak into stored data")
	}
}

func TestScanHook_FailsScan(t *testing.T) {
	s := New()
	s.Seed("clients", "c1", map[string]interface{}{"city": "Basra"})
	injected := errors.New("store degraded")
	s.ScanHook = func(string, []store.Filter) error { return injected }

	if _, err := s.ScanAll(context.Background(), "clients"); !errors.Is(err, injected) {
		t.Fatalf("expected injected error, got %v", err)
	}
}
