// Package opportunities provides the opportunity pipeline module: intake,
// stage tracking, quotation versions, change requests and work orders.
package opportunities

import (
	"climas_backend/internal/events"
	apphttp "climas_backend/internal/http"
	"climas_backend/internal/opportunities/handler"
	"climas_backend/internal/opportunities/repository"
	"climas_backend/internal/opportunities/service"
	"climas_backend/platform/logger"
	"climas_backend/platform/validator"
)

// Module represents the opportunities domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new opportunities module with all dependencies wired
func NewModule(store repository.Store, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(store, eventBus, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "opportunities"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/opportunities"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
