// Package handler exposes the orchestrator over HTTP: the full PRE
// process plus the individual tool operations behind a closed
// operation set.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"origination_backend/internal/gateway"
	"origination_backend/internal/orchestrator/service"
	"origination_backend/internal/orchestrator/transport"
	"origination_backend/internal/recommendation"
	"origination_backend/internal/sizing"
	"origination_backend/platform/apperr"
	"origination_backend/platform/httpkit"
	"origination_backend/platform/validator"
)

// Operation identifies a dispatchable tool. The set is closed: unknown
// names are rejected at the transport boundary instead of being routed
// by raw string.
type Operation string

const (
	OperationOrchestrate             Operation = "pre.orchestrate"
	OperationUpsertLead              Operation = "lead.upsert"
	OperationClassifyConsumer        Operation = "lead.classify"
	OperationDetermineModality       Operation = "modality.determine"
	OperationSelectModality          Operation = "modality.select"
	OperationComputeViability        Operation = "viability.compute"
	OperationTariffProfile           Operation = "aneel.tariffs.profile"
	OperationEvaluateEconomics       Operation = "economics.evaluate"
	OperationSizeSystem              Operation = "sizing.size_system"
	OperationBuildOffers             Operation = "recommendation.build_offers"
	OperationGenerateRecommendations Operation = "recommendation.generate"
)

var operations = map[string]Operation{
	string(OperationOrchestrate):             OperationOrchestrate,
	string(OperationUpsertLead):              OperationUpsertLead,
	string(OperationClassifyConsumer):        OperationClassifyConsumer,
	string(OperationDetermineModality):       OperationDetermineModality,
	string(OperationSelectModality):          OperationSelectModality,
	string(OperationComputeViability):        OperationComputeViability,
	string(OperationTariffProfile):           OperationTariffProfile,
	string(OperationEvaluateEconomics):       OperationEvaluateEconomics,
	string(OperationSizeSystem):              OperationSizeSystem,
	string(OperationBuildOffers):             OperationBuildOffers,
	string(OperationGenerateRecommendations): OperationGenerateRecommendations,
}

// ParseOperation resolves a raw operation name against the closed set.
func ParseOperation(raw string) (Operation, error) {
	op, ok := operations[raw]
	if !ok {
		return "", apperr.NotFound("unknown operation: " + raw)
	}
	return op, nil
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for the PRE orchestrator.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new orchestrator handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Orchestrate runs the full PRE process.
// POST /api/v1/pre/orchestrate
func (h *Handler) Orchestrate(c *gin.Context) {
	var input service.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	run := h.svc.OrchestratePreProcess(c.Request.Context(), input)
	httpkit.OK(c, run)
}

// ExecuteOperation dispatches a single tool operation.
// POST /api/v1/tools/:operation
func (h *Handler) ExecuteOperation(c *gin.Context) {
	op, err := ParseOperation(c.Param("operation"))
	if httpkit.HandleError(c, err) {
		return
	}

	switch op {
	case OperationOrchestrate:
		h.Orchestrate(c)
	case OperationUpsertLead:
		h.upsertLead(c)
	case OperationClassifyConsumer:
		h.classifyConsumer(c)
	case OperationDetermineModality:
		h.determineModality(c)
	case OperationSelectModality:
		h.selectModality(c)
	case OperationComputeViability:
		h.computeViability(c)
	case OperationTariffProfile:
		h.tariffProfile(c)
	case OperationEvaluateEconomics:
		h.evaluateEconomics(c)
	case OperationSizeSystem:
		h.sizeSystem(c)
	case OperationBuildOffers:
		h.buildOffers(c)
	case OperationGenerateRecommendations:
		h.generateRecommendations(c)
	}
}

// mapGatewayError lifts transport-level failures into typed domain
// errors so httpkit can pick the right status.
func mapGatewayError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, service.ErrConsentRequired) {
		return apperr.Validation(err.Error())
	}
	var remoteErr *gateway.RemoteError
	if errors.As(err, &remoteErr) {
		return apperr.Wrap(apperr.KindUnavailable, remoteErr.Error(), err)
	}
	return err
}

func (h *Handler) upsertLead(c *gin.Context) {
	var lead service.LeadData
	if err := c.ShouldBindJSON(&lead); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.UpsertLead(c.Request.Context(), lead)
	if httpkit.HandleError(c, mapGatewayError(err)) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) classifyConsumer(c *gin.Context) {
	var req transport.ClassifyConsumerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.ClassifyConsumer(c.Request.Context(), req.LeadID, gateway.Classification{
		TariffGroup:      req.TariffGroup,
		ConsumerClass:    req.ConsumerClass,
		ConsumerSubclass: req.ConsumerSubclass,
		UCType:           req.UCType,
	})
	if httpkit.HandleError(c, mapGatewayError(err)) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) selectModality(c *gin.Context) {
	var req transport.SelectModalityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	err := h.svc.SelectModality(c.Request.Context(), req.LeadID, gateway.ModalityPayload{
		GenerationModality: req.GenerationModality,
		PrincipalUC:        req.PrincipalUC,
		Members:            req.Members,
	})
	if httpkit.HandleError(c, mapGatewayError(err)) {
		return
	}
	httpkit.OK(c, gin.H{"lead_id": req.LeadID, "generation_modality": req.GenerationModality})
}

func (h *Handler) computeViability(c *gin.Context) {
	var params gateway.ViabilityParameters
	if err := c.ShouldBindJSON(&params); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.ComputeViability(c.Request.Context(), params)
	if httpkit.HandleError(c, mapGatewayError(err)) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) tariffProfile(c *gin.Context) {
	var query gateway.TariffQuery
	if err := c.ShouldBindJSON(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	httpkit.OK(c, h.svc.TariffProfile(c.Request.Context(), query))
}

func (h *Handler) evaluateEconomics(c *gin.Context) {
	var req gateway.EconomicsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.EvaluateEconomics(c.Request.Context(), req)
	if httpkit.HandleError(c, mapGatewayError(err)) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) generateRecommendations(c *gin.Context) {
	var req transport.GenerateRecommendationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	bundle := h.svc.GenerateRecommendations(c.Request.Context(), req.LeadID, gateway.RecommendationRequest{
		PreferredTier:   req.PreferredTier,
		TierCode:        req.TierCode,
		BandCode:        req.BandCode,
		KWp:             req.KWp,
		ExpectedKWhYear: req.ExpectedKWhYear,
	})
	httpkit.OK(c, bundle)
}

func (h *Handler) sizeSystem(c *gin.Context) {
	var req transport.SizeSystemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	factor, ok := sizing.TierFactor(req.TierCode)
	if !ok {
		factor, _ = sizing.TierFactor(sizing.DefaultTierCode)
	}
	httpkit.OK(c, sizing.Size(req.AnnualConsumptionKWh, req.KWhYearPerKWp, factor))
}

func (h *Handler) determineModality(c *gin.Context) {
	var req transport.DetermineModalityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	hasRoof := true
	if req.HasRoof != nil {
		hasRoof = *req.HasRoof
	}
	httpkit.OK(c, transport.DetermineModalityResponse{
		GenerationModality: service.DetermineModality(req.UCType, hasRoof, req.MultipleUCs),
	})
}

func (h *Handler) buildOffers(c *gin.Context) {
	var req transport.BuildOffersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	upsell := recommendation.UpsellUnion(req.BandCode, req.TierCode, req.Context)
	httpkit.OK(c, transport.BuildOffersResponse{
		Offers: recommendation.BuildOffers(req.BandCode, req.KWp, req.ExpectedKWhYear, upsell),
		Upsell: upsell,
	})
}
