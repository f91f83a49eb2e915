package domain

import (
	"time"

	"medical_advisor_backend/internal/store"
)

// Store values for task workflow fields. The mobile app matches on the
// Arabic strings, so they are preserved verbatim.
const (
	TaskTypePlanned      = "planned"
	TaskStatusInProgress = "قيد الانجاز"
	TaskReviewPending    = "قيد المراجعة"
)

// TaskIdentity is the dedup tuple: two tasks with the same identity are the
// same logical task and must never both exist.
type TaskIdentity struct {
	PlanID            string
	ClientID          string
	ProductID         string
	MarketingTaskName string
	DoctorName        string
}

// Task is the materialized unit of outreach work. Created once by the
// synthesizer; status and date mutations belong to the downstream task
// management surface.
type Task struct {
	Identity       TaskIdentity
	MarketingTask  interface{}
	TaskType       string
	AssignedToID   string
	SalesManagerID string
	Status         string
	ReviewState    string
	Priority       Priority
	TargetSales    float64
	TargetDate     *string
	Note           *string
	CreatedAt      time.Time
}

// IdentityFilters returns the store filters that locate a task by its
// identity tuple. Used for the per-tuple existence check.
func (id TaskIdentity) IdentityFilters() []store.Filter {
	return []store.Filter{
		store.Equals("planId", id.PlanID),
		store.Equals("clientId", id.ClientID),
		store.Equals("productId", id.ProductID),
		store.Equals("marketingTaskName", id.MarketingTaskName),
		store.Equals("doctorName", id.DoctorName),
	}
}

// Encode renders the task as a store document body.
func (t Task) Encode() map[string]interface{} {
	return map[string]interface{}{
		"planId":            t.Identity.PlanID,
		"clientId":          t.Identity.ClientID,
		"productId":         t.Identity.ProductID,
		"marketingTaskName": t.Identity.MarketingTaskName,
		"doctorName":        t.Identity.DoctorName,
		"marketingTask":     t.MarketingTask,
		"taskType":          t.TaskType,
		"assignedToId":      t.AssignedToID,
		"salesManagerId":    t.SalesManagerID,
		"status":            t.Status,
		"state":             t.ReviewState,
		"priority":          string(t.Priority),
		"targetSales":       t.TargetSales,
		"targetDate":        t.TargetDate,
		"note":              t.Note,
		"createdAt":         t.CreatedAt.UTC().Format(time.RFC3339),
		"updatedAt":         nil,
	}
}
