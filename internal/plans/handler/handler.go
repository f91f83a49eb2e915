// Package handler exposes the reconciliation triggers over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"medical_advisor_backend/internal/plans/service"
	"medical_advisor_backend/internal/plans/transport"
	"medical_advisor_backend/platform/httpkit"
	"medical_advisor_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgEnqueueFailed    = "failed to enqueue materialization"
	msgAsyncUnavailable = "async materialization is not configured"
)

// MaterializeEnqueuer hands a full-materialization run to the background
// worker. Optional: when absent, async requests are rejected.
type MaterializeEnqueuer interface {
	EnqueueMaterialize(ctx context.Context, planID string) error
}

// Handler handles HTTP requests for plan reconciliation.
type Handler struct {
	svc      *service.Service
	val      *validator.Validator
	enqueuer MaterializeEnqueuer
}

// New creates a new plans handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// SetMaterializeEnqueuer wires the background enqueuer for async runs.
func (h *Handler) SetMaterializeEnqueuer(enqueuer MaterializeEnqueuer) {
	h.enqueuer = enqueuer
}

// SubmitPlan persists a full plan definition and materializes it.
// POST /api/v1/plans
func (h *Handler) SubmitPlan(c *gin.Context) {
	var req transport.SubmitPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.SubmitPlan(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Materialize re-runs full materialization for a stored plan. With ?async=1
// the run is enqueued on the background worker instead; re-running is always
// safe because synthesis is idempotent.
// POST /api/v1/plans/:id/materialize
func (h *Handler) Materialize(c *gin.Context) {
	planID := c.Param("id")

	if c.Query("async") == "1" {
		if h.enqueuer == nil {
			httpkit.Error(c, http.StatusServiceUnavailable, msgAsyncUnavailable, nil)
			return
		}
		if err := h.enqueuer.EnqueueMaterialize(c.Request.Context(), planID); err != nil {
			httpkit.Error(c, http.StatusInternalServerError, msgEnqueueFailed, nil)
			return
		}
		httpkit.JSON(c, http.StatusAccepted, gin.H{"enqueued": true, "planId": planID})
		return
	}

	result, err := h.svc.MaterializePlanByID(c.Request.Context(), planID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AddProduct attaches a product to a plan and reconciles the new reach.
// POST /api/v1/plans/:id/products
func (h *Handler) AddProduct(c *gin.Context) {
	var req transport.AddProductToPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.ReconcileProductAdded(c.Request.Context(), c.Param("id"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ReconcileClient runs client-added reconciliation for one client.
// POST /api/v1/clients/:id/reconcile
func (h *Handler) ReconcileClient(c *gin.Context) {
	result, err := h.svc.ReconcileClientAdded(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
