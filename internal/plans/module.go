// Package plans provides the reconciliation bounded context: plan
// materialization and the incremental client-added and product-added
// triggers.
package plans

import (
	"medical_advisor_backend/internal/events"
	apphttp "medical_advisor_backend/internal/http"
	"medical_advisor_backend/internal/plans/handler"
	"medical_advisor_backend/internal/plans/service"
	"medical_advisor_backend/internal/store"
	"medical_advisor_backend/platform/logger"
	"medical_advisor_backend/platform/validator"
)

// Module is the plans bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the plans module.
func NewModule(gw store.Gateway, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(gw, bus, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "plans"
}

// Service returns the service layer for external use (worker, scheduler).
func (m *Module) Service() *service.Service {
	return m.service
}

// SetMaterializeEnqueuer wires the background enqueuer for async
// materialization requests.
func (m *Module) SetMaterializeEnqueuer(enqueuer handler.MaterializeEnqueuer) {
	m.handler.SetMaterializeEnqueuer(enqueuer)
}

// RegisterRoutes mounts the reconciliation trigger routes. All triggers sit
// behind auth and the stricter reconcile rate limit.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("")
	group.Use(ctx.ReconcileRateLimiter.RateLimit())

	group.POST("/plans", m.handler.SubmitPlan)
	group.POST("/plans/:id/materialize", m.handler.Materialize)
	group.POST("/plans/:id/products", m.handler.AddProduct)
	group.POST("/clients/:id/reconcile", m.handler.ReconcileClient)
}
