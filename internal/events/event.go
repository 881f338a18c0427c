// Package events provides domain event definitions and the NATS-backed
// publisher for the PRE origination process.
// Infrastructure interfaces (Event, Publisher) live in platform/events.
package events

import (
	"origination_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event     = events.Event
	Publisher = events.Publisher
	BaseEvent = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// LeadCaptured is published after a lead has been upserted with consent.
type LeadCaptured struct {
	BaseEvent
	LeadID  string `json:"lead_id"`
	Source  string `json:"source,omitempty"`
	Consent bool   `json:"consent"`
}

func (e LeadCaptured) EventName() string { return "lead.captured.v1" }

// ModalitySelected is published once a generation modality has been chosen
// and persisted for the lead.
type ModalitySelected struct {
	BaseEvent
	LeadID             string `json:"lead_id"`
	GenerationModality string `json:"generation_modality"`
}

func (e ModalitySelected) EventName() string { return "generation.modality.selected.v1" }

// ViabilityRequested brackets the start of the remote viability computation.
type ViabilityRequested struct {
	BaseEvent
	LeadID string      `json:"lead_id"`
	Params interface{} `json:"viability_params"`
}

func (e ViabilityRequested) EventName() string { return "viability.requested.v1" }

// ViabilityCompleted brackets the end of the remote viability computation.
type ViabilityCompleted struct {
	BaseEvent
	LeadID           string  `json:"lead_id"`
	KWhYearPerKWp    float64 `json:"kwh_year_per_kwp"`
	PerformanceRatio float64 `json:"pr"`
}

func (e ViabilityCompleted) EventName() string { return "viability.completed.v1" }

// SystemSized is published when the local sizing calculation completes.
type SystemSized struct {
	BaseEvent
	LeadID          string  `json:"lead_id"`
	KWp             float64 `json:"kwp"`
	TierCode        string  `json:"tier_code"`
	BandCode        string  `json:"band_code"`
	ExpectedKWhYear float64 `json:"expected_kwh_year"`
}

func (e SystemSized) EventName() string { return "system.sized.v1" }

// RecommendationBundleCreated is published when the offer bundle is ready.
type RecommendationBundleCreated struct {
	BaseEvent
	LeadID      string `json:"lead_id"`
	OffersCount int    `json:"offers_count"`
	TierCode    string `json:"tier_code"`
	BandCode    string `json:"band_code"`
}

func (e RecommendationBundleCreated) EventName() string { return "recommendation.bundle.created.v1" }
