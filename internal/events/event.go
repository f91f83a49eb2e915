// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"medical_advisor_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Reconciliation Domain Events
// =============================================================================

// ReconciliationCompleted is published after a reconciliation trigger
// finishes, whether it created tasks or not. Downstream handlers use it for
// run summaries and notifications.
type ReconciliationCompleted struct {
	BaseEvent
	Trigger       string   `json:"trigger"`
	PlanIDs       []string `json:"planIds"`
	CreatedTasks  int      `json:"createdTasks"`
	SkippedTasks  int      `json:"skippedTasks"`
	FailedTuples  int      `json:"failedTuples"`
	LostWrites    int      `json:"lostWrites"`
	ChunkFailures int      `json:"chunkFailures"`
}

func (e ReconciliationCompleted) EventName() string { return "plans.reconciliation.completed" }

// ChunkScanDegraded is published when a reconciliation run completed but some
// eligibility chunk scans failed, so the eligible set may be incomplete.
type ChunkScanDegraded struct {
	BaseEvent
	Trigger  string `json:"trigger"`
	PlanID   string `json:"planId"`
	Failures int    `json:"failures"`
}

func (e ChunkScanDegraded) EventName() string { return "plans.reconciliation.chunk_degraded" }

// ClientLinkedToPlan is published when reconciliation links a client to a
// plan's roster.
type ClientLinkedToPlan struct {
	BaseEvent
	PlanID   string `json:"planId"`
	ClientID string `json:"clientId"`
}

func (e ClientLinkedToPlan) EventName() string { return "plans.client.linked" }

// ProductLinkedToPlan is published when reconciliation appends a product to a
// plan's target list.
type ProductLinkedToPlan struct {
	BaseEvent
	PlanID    string  `json:"planId"`
	ProductID string  `json:"productId"`
	Target    float64 `json:"targetSales"`
}

func (e ProductLinkedToPlan) EventName() string { return "plans.product.linked" }

// TaskReminderSweepCompleted is published after the daily reminder sweep runs.
type TaskReminderSweepCompleted struct {
	BaseEvent
	DueTasks  int `json:"dueTasks"`
	Notified  int `json:"notified"`
	Undeliver int `json:"undeliverable"`
}

func (e TaskReminderSweepCompleted) EventName() string { return "tasks.reminder.sweep_completed" }
