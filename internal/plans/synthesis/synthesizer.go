package synthesis

import (
	"context"
	"time"

	"medical_advisor_backend/internal/plans/domain"
	"medical_advisor_backend/internal/store"
	"medical_advisor_backend/platform/logger"
)

// TaskError records one tuple that could not be synthesized. The run
// continues past it; the error carries enough identity to retry by hand.
type TaskError struct {
	ClientID      string `json:"clientId"`
	DoctorName    string `json:"doctorName,omitempty"`
	ProductID     string `json:"productId,omitempty"`
	MarketingTask string `json:"marketingTask,omitempty"`
	Error         string `json:"error"`
}

// Result is the outcome of one synthesis pass. Created counts tasks handed
// to the batch coordinator; Commit reports how many of those were durably
// persisted. Skipped counts tuples whose task already existed.
type Result struct {
	Created               int           `json:"created"`
	Skipped               int           `json:"skipped"`
	ClientsWithoutDoctors int           `json:"clientsWithoutDoctors"`
	Errors                []TaskError   `json:"errors,omitempty"`
	Commit                CommitSummary `json:"commit"`
}

// Failed reports how many tuples errored.
func (r Result) Failed() int { return len(r.Errors) }

// Synthesizer builds the client × doctor × product × marketing-task cross
// product, deduplicates against existing tasks, and persists new tasks
// through the batch coordinator.
type Synthesizer struct {
	gw      store.Gateway
	batcher *Coordinator
	log     *logger.Logger
	now     func() time.Time
}

// New creates a synthesizer.
func New(gw store.Gateway, log *logger.Logger) *Synthesizer {
	return &Synthesizer{
		gw:      gw,
		batcher: NewCoordinator(gw, log),
		log:     log,
		now:     time.Now,
	}
}

// Synthesize enumerates every (client, influencer doctor, product, marketing
// task) tuple for the plan and creates the tasks that do not already exist.
// Tuple-level failures are collected, never fatal: one bad client or one
// failed existence check must not sink the rest of the run.
func (s *Synthesizer) Synthesize(ctx context.Context, plan domain.Plan, clients []domain.Client, products []domain.Product) Result {
	var (
		result Result
		writes []store.Write
	)
	// Writes commit after the loop, so the store alone cannot dedup two
	// identical tuples arising inside one run (a product listing the same
	// marketing task name twice, duplicate same-named doctors on a client).
	enqueued := make(map[domain.TaskIdentity]bool)

	for _, client := range clients {
		doctors := ExtractInfluencerDoctors(client)
		if len(doctors) == 0 {
			result.ClientsWithoutDoctors++
			continue
		}

		for _, doctor := range doctors {
			for _, product := range products {
				for _, raw := range product.MarketingTasks {
					marketingTask, ok := domain.NormalizeMarketingTask(raw)
					if !ok {
						result.Errors = append(result.Errors, TaskError{
							ClientID:   client.ID,
							DoctorName: doctor.Name,
							ProductID:  product.ID,
							Error:      "marketing task has no resolvable name",
						})
						continue
					}

					identity := domain.TaskIdentity{
						PlanID:            plan.ID,
						ClientID:          client.ID,
						ProductID:         product.ID,
						MarketingTaskName: marketingTask.Name,
						DoctorName:        doctor.Name,
					}
					if enqueued[identity] {
						result.Skipped++
						continue
					}

					existing, err := s.gw.ScanWhereAll(ctx, domain.CollectionTasks, identity.IdentityFilters())
					if err != nil {
						s.log.StoreError("existence_check", domain.CollectionTasks, err)
						result.Errors = append(result.Errors, TaskError{
							ClientID:      client.ID,
							DoctorName:    doctor.Name,
							ProductID:     product.ID,
							MarketingTask: marketingTask.Name,
							Error:         err.Error(),
						})
						continue
					}
					if len(existing) > 0 {
						result.Skipped++
						continue
					}

					task := domain.Task{
						Identity:       identity,
						MarketingTask:  marketingTask.Payload,
						TaskType:       domain.TaskTypePlanned,
						AssignedToID:   plan.FirstSalesRep(),
						SalesManagerID: plan.SalesManagerID,
						Status:         domain.TaskStatusInProgress,
						ReviewState:    domain.TaskReviewPending,
						Priority:       client.Priority,
						TargetSales:    plan.TargetSalesFor(product.ID),
						CreatedAt:      s.now(),
					}
					writes = append(writes, store.Write{
						Collection: domain.CollectionTasks,
						ID:         s.gw.NewID(),
						Data:       task.Encode(),
					})
					enqueued[identity] = true
					result.Created++
				}
			}
		}
	}

	result.Commit = s.batcher.CommitAll(ctx, writes)
	return result
}
