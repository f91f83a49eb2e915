// Package transport defines the request and response DTOs for the plans
// module. Validation tags live here; semantics live in service.
package transport

import (
	"medical_advisor_backend/internal/plans/eligibility"
	"medical_advisor_backend/internal/plans/synthesis"
)

// TargetProductSaleRequest is one product/goal pair on a submitted plan.
type TargetProductSaleRequest struct {
	ProductID   string  `json:"productId" validate:"required"`
	TargetSales float64 `json:"targetSales" validate:"gte=0"`
}

// SubmitPlanRequest is the full-materialization entry payload: the complete
// plan definition. Submitting an existing plan id overwrites its definition
// and re-runs materialization, which is safe because synthesis is idempotent.
type SubmitPlanRequest struct {
	PlanID         string                     `json:"planId"`
	Cities         []string                   `json:"cities" validate:"required,min=1,dive,required"`
	DepartmentIDs  []string                   `json:"departmentsIds" validate:"required,min=1,dive,required"`
	TargetProducts []TargetProductSaleRequest `json:"targetProductSales" validate:"required,min=1,dive"`
	SalesRepIDs    []string                   `json:"salesRepsIds"`
	SalesManagerID string                     `json:"salesManagerId"`
}

// AddProductToPlanRequest attaches a product with a sales goal to a plan.
type AddProductToPlanRequest struct {
	ProductID   string  `json:"productId" validate:"required"`
	TargetSales float64 `json:"targetSales" validate:"gte=0"`
}

// ClientAddedRequest triggers incremental reconciliation for one client.
type ClientAddedRequest struct {
	ClientID string `json:"clientId" validate:"required"`
}

// SideEffectOutcome reports one best-effort bookkeeping update (plan roster
// or target-product append). A failed side effect never rolls back tasks.
type SideEffectOutcome struct {
	Update string `json:"update"`
	PlanID string `json:"planId"`
	Error  string `json:"error,omitempty"`
}

// PlanBreakdown is the per-plan slice of an incremental run.
type PlanBreakdown struct {
	PlanID  string `json:"planId"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

// ReconcileResult is the structured outcome every trigger returns, including
// partial failures. Success means the run completed; it does not imply zero
// tuple errors or zero side-effect faults.
type ReconcileResult struct {
	Success               bool                       `json:"success"`
	Trigger               string                     `json:"trigger"`
	NoOpReason            string                     `json:"noOpReason,omitempty"`
	CreatedCount          int                        `json:"createdCount"`
	SkippedCount          int                        `json:"skippedCount"`
	ClientsWithoutDoctors int                        `json:"clientsWithoutDoctors"`
	EligibleClients       int                        `json:"eligibleClients"`
	Errors                []synthesis.TaskError      `json:"errors"`
	ChunkFailures         []eligibility.ChunkFailure `json:"chunkFailures,omitempty"`
	Commit                synthesis.CommitSummary    `json:"commit"`
	PerPlan               []PlanBreakdown            `json:"perPlanBreakdown,omitempty"`
	SideEffects           []SideEffectOutcome        `json:"sideEffects,omitempty"`
}
