// Package handler exposes client read endpoints.
package handler

import (
	"github.com/gin-gonic/gin"

	"medical_advisor_backend/internal/clients/service"
	"medical_advisor_backend/platform/httpkit"
)

// Handler handles HTTP requests for clients.
type Handler struct {
	svc *service.Service
}

// New creates a new clients handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// ListClients returns all clients with expanded relations.
// GET /api/v1/clients
func (h *Handler) ListClients(c *gin.Context) {
	result, err := h.svc.ListClients(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
