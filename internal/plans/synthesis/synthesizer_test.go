package synthesis

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"medical_advisor_backend/internal/plans/domain"
	"medical_advisor_backend/internal/store"
	"medical_advisor_backend/internal/store/memstore"
	"medical_advisor_backend/platform/logger"
)

func testLogger() *logger.Logger {
	return logger.New("test")
}

func influencerClient(id, city string) domain.Client {
	return domain.Client{
		ID:           id,
		City:         city,
		DepartmentID: "dept-1",
		State:        domain.StateApproved,
		Priority:     domain.PriorityHigh,
		Doctors: []domain.Doctor{
			{Name: "Dr. Layla", IsInfluencer: true},
			{Name: "Dr. Omar", IsInfluencer: false},
		},
	}
}

func structuredTaskProduct(id string, taskNames ...string) domain.Product {
	tasks := make([]interface{}, 0, len(taskNames))
	for _, name := range taskNames {
		tasks = append(tasks, map[string]interface{}{"name": name})
	}
	return domain.Product{ID: id, Name: "Product " + id, DepartmentIDs: []string{"dept-1"}, MarketingTasks: tasks}
}

func TestExtractInfluencerDoctors_FiltersNonInfluencers(t *testing.T) {
	doctors := ExtractInfluencerDoctors(influencerClient("c1", "Baghdad"))

	if len(doctors) != 1 {
		t.Fatalf("expected 1 influencer doctor, got %d", len(doctors))
	}
	if doctors[0].Name != "Dr. Layla" {
		t.Fatalf("expected Dr. Layla, got %q", doctors[0].Name)
	}
}

func TestSynthesize_CreatesCrossProduct(t *testing.T) {
	gw := memstore.New()
	synth := New(gw, testLogger())

	plan := domain.Plan{
		ID:             "plan-1",
		SalesRepIDs:    []string{"rep-1", "rep-2"},
		SalesManagerID: "mgr-1",
		TargetProducts: []domain.TargetProductSale{{ProductID: "p1", TargetSales: 50}},
	}
	clients := []domain.Client{influencerClient("c1", "Baghdad")}
	products := []domain.Product{structuredTaskProduct("p1", "visit", "sample drop")}

	result := synth.Synthesize(context.Background(), plan, clients, products)

	if result.Created != 2 {
		t.Fatalf("expected 2 created tasks, got %d", result.Created)
	}
	if result.Skipped != 0 || len(result.Errors) != 0 {
		t.Fatalf("expected clean run, got skipped=%d errors=%d", result.Skipped, len(result.Errors))
	}
	if result.Commit.Committed != 2 || result.Commit.Lost != 0 {
		t.Fatalf("expected 2 committed 0 lost, got %d/%d", result.Commit.Committed, result.Commit.Lost)
	}
	if gw.Count(domain.CollectionTasks) != 2 {
		t.Fatalf("expected 2 persisted tasks, got %d", gw.Count(domain.CollectionTasks))
	}

	docs, err := gw.ScanWhereEquals(context.Background(), domain.CollectionTasks, "marketingTaskName", "visit")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 visit task, got %d", len(docs))
	}
	data := docs[0].Data
	if data["assignedToId"] != "rep-1" {
		t.Fatalf("expected assignment to first rep, got %v", data["assignedToId"])
	}
	if data["salesManagerId"] != "mgr-1" {
		t.Fatalf("expected sales manager mgr-1, got %v", data["salesManagerId"])
	}
	if data["status"] != domain.TaskStatusInProgress {
		t.Fatalf("expected in-progress status, got %v", data["status"])
	}
	if data["state"] != domain.TaskReviewPending {
		t.Fatalf("expected pending review state, got %v", data["state"])
	}
	if data["priority"] != string(domain.PriorityHigh) {
		t.Fatalf("expected client priority on task, got %v", data["priority"])
	}
	if data["targetSales"] != 50.0 {
		t.Fatalf("expected target sales 50, got %v", data["targetSales"])
	}
	if data["doctorName"] != "Dr. Layla" {
		t.Fatalf("expected influencer doctor on task, got %v", data["doctorName"])
	}
}

func TestSynthesize_RerunCreatesNothing(t *testing.T) {
	gw := memstore.New()
	synth := New(gw, testLogger())

	plan := domain.Plan{ID: "plan-1", SalesRepIDs: []string{"rep-1"}}
	clients := []domain.Client{influencerClient("c1", "Baghdad")}
	products := []domain.Product{structuredTaskProduct("p1", "visit", "sample drop")}

	first := synth.Synthesize(context.Background(), plan, clients, products)
	if first.Created != 2 {
		t.Fatalf("expected 2 created on first run, got %d", first.Created)
	}

	second := synth.Synthesize(context.Background(), plan, clients, products)
	if second.Created != 0 {
		t.Fatalf("expected 0 created on re-run, got %d", second.Created)
	}
	if second.Skipped != 2 {
		t.Fatalf("expected 2 skipped on re-run, got %d", second.Skipped)
	}
	if gw.Count(domain.CollectionTasks) != 2 {
		t.Fatalf("re-run must not duplicate tasks, store has %d", gw.Count(domain.CollectionTasks))
	}
}

func TestSynthesize_SameDoctorNameDistinctClients(t *testing.T) {
	gw := memstore.New()
	synth := New(gw, testLogger())

	plan := domain.Plan{ID: "plan-1"}
	clients := []domain.Client{influencerClient("c1", "Baghdad"), influencerClient("c2", "Basra")}
	products := []domain.Product{structuredTaskProduct("p1", "visit")}

	result := synth.Synthesize(context.Background(), plan, clients, products)

	if result.Created != 2 {
		t.Fatalf("same doctor name at two clients must yield two tasks, got %d", result.Created)
	}
}

func TestSynthesize_DuplicateMarketingTaskNamesInOneRun(t *testing.T) {
	gw := memstore.New()
	synth := New(gw, testLogger())

	// Two entries normalize to the same name; payloads differ. They share one
	// identity tuple, so only the first may materialize.
	product := domain.Product{
		ID:            "p1",
		DepartmentIDs: []string{"dept-1"},
		MarketingTasks: []interface{}{
			map[string]interface{}{"name": "visit", "round": 1},
			map[string]interface{}{"name": "visit", "round": 2},
		},
	}

	result := synth.Synthesize(context.Background(), domain.Plan{ID: "plan-1"},
		[]domain.Client{influencerClient("c1", "Baghdad")}, []domain.Product{product})

	if result.Created != 1 {
		t.Fatalf("duplicate task name in one run must create once, got %d", result.Created)
	}
	if result.Skipped != 1 {
		t.Fatalf("expected the duplicate counted as skipped, got %d", result.Skipped)
	}

	identity := domain.TaskIdentity{
		PlanID:            "plan-1",
		ClientID:          "c1",
		ProductID:         "p1",
		MarketingTaskName: "visit",
		DoctorName:        "Dr. Layla",
	}
	docs, err := gw.ScanWhereAll(context.Background(), domain.CollectionTasks, identity.IdentityFilters())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("identity tuple must map to exactly one task, got %d", len(docs))
	}
}

func TestSynthesize_DuplicateDoctorNamesOnOneClient(t *testing.T) {
	gw := memstore.New()
	synth := New(gw, testLogger())

	client := domain.Client{
		ID: "c1",
		Doctors: []domain.Doctor{
			{Name: "Dr. Layla", IsInfluencer: true},
			{Name: "Dr. Layla", IsInfluencer: true},
		},
	}

	result := synth.Synthesize(context.Background(), domain.Plan{ID: "plan-1"},
		[]domain.Client{client}, []domain.Product{structuredTaskProduct("p1", "visit")})

	if result.Created != 1 || result.Skipped != 1 {
		t.Fatalf("same-named doctors share an identity, expected 1 created 1 skipped, got %d/%d",
			result.Created, result.Skipped)
	}
	if gw.Count(domain.CollectionTasks) != 1 {
		t.Fatalf("expected 1 persisted task, got %d", gw.Count(domain.CollectionTasks))
	}
}

func TestSynthesize_ClientWithoutInfluencersIsCounted(t *testing.T) {
	gw := memstore.New()
	synth := New(gw, testLogger())

	noInfluencers := domain.Client{
		ID:      "c-quiet",
		Doctors: []domain.Doctor{{Name: "Dr. Omar", IsInfluencer: false}},
	}

	result := synth.Synthesize(context.Background(), domain.Plan{ID: "plan-1"},
		[]domain.Client{noInfluencers}, []domain.Product{structuredTaskProduct("p1", "visit")})

	if result.Created != 0 {
		t.Fatalf("expected 0 created, got %d", result.Created)
	}
	if result.ClientsWithoutDoctors != 1 {
		t.Fatalf("expected 1 client without influencer doctors, got %d", result.ClientsWithoutDoctors)
	}
}

func TestSynthesize_UnnamedMarketingTaskRecordedNotFatal(t *testing.T) {
	gw := memstore.New()
	synth := New(gw, testLogger())

	product := domain.Product{
		ID:            "p1",
		DepartmentIDs: []string{"dept-1"},
		MarketingTasks: []interface{}{
			map[string]interface{}{"note": "no name here"},
			map[string]interface{}{"name": "visit"},
		},
	}

	result := synth.Synthesize(context.Background(), domain.Plan{ID: "plan-1"},
		[]domain.Client{influencerClient("c1", "Baghdad")}, []domain.Product{product})

	if result.Created != 1 {
		t.Fatalf("named task must still be created, got %d", result.Created)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 tuple error, got %d", len(result.Errors))
	}
	if result.Errors[0].ClientID != "c1" || result.Errors[0].ProductID != "p1" {
		t.Fatalf("error must carry tuple identity, got %+v", result.Errors[0])
	}
}

func TestSynthesize_ExistenceCheckFailureSkipsTupleOnly(t *testing.T) {
	gw := memstore.New()
	synth := New(gw, testLogger())

	var calls int
	gw.ScanHook = func(collection string, _ []store.Filter) error {
		if collection != domain.CollectionTasks {
			return nil
		}
		calls++
		if calls == 1 {
			return errors.New("transient scan failure")
		}
		return nil
	}

	result := synth.Synthesize(context.Background(), domain.Plan{ID: "plan-1"},
		[]domain.Client{influencerClient("c1", "Baghdad")},
		[]domain.Product{structuredTaskProduct("p1", "visit", "sample drop")})

	if result.Created != 1 {
		t.Fatalf("expected the unaffected tuple to be created, got %d", result.Created)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 tuple error, got %d", len(result.Errors))
	}
	if result.Errors[0].MarketingTask != "visit" {
		t.Fatalf("expected failed tuple to name its marketing task, got %+v", result.Errors[0])
	}
}

func TestCommitAll_ChunksAndRetries(t *testing.T) {
	gw := memstore.New()
	coordinator := NewCoordinator(gw, testLogger())

	writes := make([]store.Write, 0, store.MaxBatchWrites+3)
	for i := 0; i < store.MaxBatchWrites+3; i++ {
		writes = append(writes, store.Write{
			Collection: domain.CollectionTasks,
			ID:         fmt.Sprintf("t-%04d", i),
			Data:       map[string]interface{}{"n": i},
		})
	}

	var attempts int
	gw.CommitHook = func(chunk []store.Write) error {
		attempts++
		if attempts == 1 {
			return errors.New("transient commit failure")
		}
		return nil
	}

	summary := coordinator.CommitAll(context.Background(), writes)

	if summary.Committed != len(writes) {
		t.Fatalf("expected all %d writes committed after retry, got %d", len(writes), summary.Committed)
	}
	if summary.Lost != 0 {
		t.Fatalf("expected no lost writes, got %d", summary.Lost)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 commit attempts (retry + 2 chunks), got %d", attempts)
	}
	if gw.Count(domain.CollectionTasks) != len(writes) {
		t.Fatalf("expected %d persisted, got %d", len(writes), gw.Count(domain.CollectionTasks))
	}
}

func TestCommitAll_PersistentFailureLosesOnlyThatChunk(t *testing.T) {
	gw := memstore.New()
	coordinator := NewCoordinator(gw, testLogger())

	writes := make([]store.Write, 0, store.MaxBatchWrites+10)
	for i := 0; i < store.MaxBatchWrites+10; i++ {
		writes = append(writes, store.Write{
			Collection: domain.CollectionTasks,
			ID:         fmt.Sprintf("t-%04d", i),
			Data:       map[string]interface{}{"n": i},
		})
	}

	gw.CommitHook = func(chunk []store.Write) error {
		if chunk[0].ID == "t-0000" {
			return errors.New("chunk is poisoned")
		}
		return nil
	}

	summary := coordinator.CommitAll(context.Background(), writes)

	if summary.Lost != store.MaxBatchWrites {
		t.Fatalf("expected first chunk lost (%d writes), got %d", store.MaxBatchWrites, summary.Lost)
	}
	if summary.Committed != 10 {
		t.Fatalf("expected trailing chunk committed, got %d", summary.Committed)
	}
	if len(summary.Faults) != 1 || summary.Faults[0].ChunkIndex != 0 {
		t.Fatalf("expected one fault for chunk 0, got %+v", summary.Faults)
	}
}
