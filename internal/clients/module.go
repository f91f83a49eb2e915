// Package clients provides the client directory read module.
package clients

import (
	apphttp "medical_advisor_backend/internal/http"
	"medical_advisor_backend/internal/clients/handler"
	"medical_advisor_backend/internal/clients/service"
	"medical_advisor_backend/internal/store"
	"medical_advisor_backend/platform/logger"
)

// Module is the clients bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the clients module.
func NewModule(gw store.Gateway, log *logger.Logger) *Module {
	svc := service.New(gw, log)
	return &Module{
		handler: handler.New(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "clients"
}

// RegisterRoutes mounts the client read routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/clients", m.handler.ListClients)
}
