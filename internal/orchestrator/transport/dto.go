// Package transport defines the request and response DTOs for the
// orchestrator's tool endpoints.
package transport

import (
	"origination_backend/internal/recommendation"
)

// SizeSystemRequest sizes a PV system without running the full process.
type SizeSystemRequest struct {
	AnnualConsumptionKWh float64 `json:"annual_consumption_kwh" validate:"gt=0"`
	KWhYearPerKWp        float64 `json:"kwh_year_per_kwp" validate:"gte=0"`
	TierCode             string  `json:"tier_code,omitempty"`
}

// DetermineModalityRequest resolves a generation modality from the
// consumer unit attributes.
type DetermineModalityRequest struct {
	UCType      string `json:"uc_type" validate:"required"`
	HasRoof     *bool  `json:"has_roof,omitempty"`
	MultipleUCs bool   `json:"multiple_ucs,omitempty"`
}

// DetermineModalityResponse carries the resolved modality.
type DetermineModalityResponse struct {
	GenerationModality string `json:"generation_modality"`
}

// BuildOffersRequest builds a local offer bundle for a sized system.
type BuildOffersRequest struct {
	BandCode        string                 `json:"band_code" validate:"required"`
	TierCode        string                 `json:"tier_code,omitempty"`
	KWp             float64                `json:"kwp" validate:"gte=0"`
	ExpectedKWhYear float64                `json:"expected_kwh_year" validate:"gte=0"`
	Context         map[string]interface{} `json:"context,omitempty"`
}

// BuildOffersResponse carries the offer bundle and its upsell union.
type BuildOffersResponse struct {
	Offers []recommendation.Offer `json:"offers"`
	Upsell []string               `json:"upsell"`
}

// ClassifyConsumerRequest persists a consumer classification.
type ClassifyConsumerRequest struct {
	LeadID           string `json:"lead_id" validate:"required"`
	TariffGroup      string `json:"tariff_group" validate:"required"`
	ConsumerClass    string `json:"consumer_class" validate:"required"`
	ConsumerSubclass string `json:"consumer_subclass,omitempty"`
	UCType           string `json:"uc_type" validate:"required"`
}

// SelectModalityRequest persists a generation modality for a lead.
type SelectModalityRequest struct {
	LeadID             string   `json:"lead_id" validate:"required"`
	GenerationModality string   `json:"generation_modality" validate:"required"`
	PrincipalUC        string   `json:"principal_uc,omitempty"`
	Members            []string `json:"members,omitempty"`
}

// GenerateRecommendationsRequest asks for an offer bundle for a sized lead.
type GenerateRecommendationsRequest struct {
	LeadID          string  `json:"lead_id" validate:"required"`
	PreferredTier   string  `json:"preferred_tier,omitempty"`
	TierCode        string  `json:"tier_code" validate:"required"`
	BandCode        string  `json:"band_code" validate:"required"`
	KWp             float64 `json:"kwp" validate:"gte=0"`
	ExpectedKWhYear float64 `json:"expected_kwh_year" validate:"gte=0"`
}
