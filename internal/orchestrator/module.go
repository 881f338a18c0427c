// Package orchestrator provides the PRE orchestration bounded context
// module: lead capture through viability, economics, sizing and the
// recommendation bundle.
package orchestrator

import (
	"origination_backend/internal/events"
	"origination_backend/internal/gateway"
	apphttp "origination_backend/internal/http"
	"origination_backend/internal/orchestrator/handler"
	"origination_backend/internal/orchestrator/service"
	"origination_backend/platform/config"
	"origination_backend/platform/logger"
	"origination_backend/platform/validator"
)

// Module is the orchestrator bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// Gateways groups the remote service clients the orchestrator drives.
type Gateways struct {
	Leads     service.LeadGateway
	Viability service.ViabilityGateway
	Tariffs   service.TariffGateway
}

// NewModule creates and initializes the orchestrator module.
func NewModule(gw Gateways, publisher events.Publisher, cfg config.OrchestratorConfig, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(gw.Leads, gw.Viability, gw.Tariffs, publisher, cfg, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "orchestrator"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts orchestrator routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/pre/orchestrate", m.handler.Orchestrate)
	ctx.V1.POST("/tools/:operation", m.handler.ExecuteOperation)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

// ensure the concrete gateway clients satisfy the service interfaces
var (
	_ service.LeadGateway      = (*gateway.LeadClient)(nil)
	_ service.ViabilityGateway = (*gateway.ViabilityClient)(nil)
	_ service.TariffGateway    = (*gateway.TariffClient)(nil)
)
