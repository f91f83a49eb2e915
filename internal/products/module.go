// Package products provides the product catalog read module.
package products

import (
	apphttp "medical_advisor_backend/internal/http"
	"medical_advisor_backend/internal/products/handler"
	"medical_advisor_backend/internal/products/service"
	"medical_advisor_backend/internal/store"
	"medical_advisor_backend/platform/logger"
)

// Module is the products bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the products module.
func NewModule(gw store.Gateway, log *logger.Logger) *Module {
	svc := service.New(gw, log)
	return &Module{
		handler: handler.New(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "products"
}

// RegisterRoutes mounts the product read routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/products", m.handler.ListProducts)
	ctx.Protected.GET("/plans/:id/products", m.handler.ListPlanProducts)
}
