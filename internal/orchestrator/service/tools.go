package service

import (
	"context"

	"origination_backend/internal/gateway"
	"origination_backend/internal/recommendation"
)

// The individual coordinator operations, exposed for callers that drive
// single steps instead of the full process. Each keeps the same failure
// semantics as its stage in the orchestration.

// UpsertLead validates consent and creates or updates the lead.
func (s *Service) UpsertLead(ctx context.Context, lead LeadData) (*gateway.LeadUpserted, error) {
	if !lead.Consent {
		return nil, ErrConsentRequired
	}
	return s.leads.Upsert(ctx, lead.LeadPayload())
}

// ClassifyConsumer persists the consumer classification for a lead.
func (s *Service) ClassifyConsumer(ctx context.Context, leadID string, classification gateway.Classification) (*gateway.Classification, error) {
	return s.leads.Classify(ctx, leadID, classification)
}

// SelectModality persists a generation modality for a lead.
func (s *Service) SelectModality(ctx context.Context, leadID string, payload gateway.ModalityPayload) error {
	return s.leads.SelectModality(ctx, leadID, payload)
}

// ComputeViability runs the remote yield computation.
func (s *Service) ComputeViability(ctx context.Context, params gateway.ViabilityParameters) (*gateway.ViabilityResult, error) {
	return s.viability.Compute(ctx, params)
}

// TariffProfile resolves a tariff profile, substituting the configured
// default when the tariff service cannot answer.
func (s *Service) TariffProfile(ctx context.Context, query gateway.TariffQuery) *gateway.TariffProfile {
	profile, err := s.tariffs.GetProfile(ctx, query)
	if err != nil {
		s.log.Warn("tariff lookup failed, using default profile", "error", err,
			"cents_per_kwh", s.cfg.GetDefaultTariffCentsPerKWh())
		return &gateway.TariffProfile{CentsPerKWh: s.cfg.GetDefaultTariffCentsPerKWh()}
	}
	return profile
}

// EvaluateEconomics runs the remote economic evaluation.
func (s *Service) EvaluateEconomics(ctx context.Context, req gateway.EconomicsRequest) (*gateway.EconomicsResult, error) {
	return s.viability.EvaluateEconomics(ctx, req)
}

// GenerateRecommendations asks the origination API for offers, falling
// back to the local rule engine on failure.
func (s *Service) GenerateRecommendations(ctx context.Context, leadID string, req gateway.RecommendationRequest) *gateway.RecommendationBundle {
	bundle, err := s.leads.GenerateRecommendations(ctx, leadID, req)
	if err == nil {
		return bundle
	}

	s.log.Warn("remote recommendations failed, building offers locally", "error", err)
	upsell := recommendation.UpsellUnion(req.BandCode, req.TierCode, nil)
	return &gateway.RecommendationBundle{
		Offers: recommendation.BuildOffers(req.BandCode, req.KWp, req.ExpectedKWhYear, upsell),
	}
}
