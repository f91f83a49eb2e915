// Package handler exposes product read endpoints.
package handler

import (
	"github.com/gin-gonic/gin"

	"medical_advisor_backend/internal/products/service"
	"medical_advisor_backend/platform/httpkit"
)

// Handler handles HTTP requests for products.
type Handler struct {
	svc *service.Service
}

// New creates a new products handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// ListProducts returns all products with expanded relations.
// GET /api/v1/products
func (h *Handler) ListProducts(c *gin.Context) {
	result, err := h.svc.ListProducts(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListPlanProducts returns the products attached to one plan.
// GET /api/v1/plans/:id/products
func (h *Handler) ListPlanProducts(c *gin.Context) {
	result, err := h.svc.ListPlanProducts(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
