// Package service implements the PRE orchestration state machine:
// capture, classification, modality selection, viability, tariffs,
// economics, sizing and recommendation, with domain events published
// at each transition.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"origination_backend/internal/events"
	"origination_backend/internal/gateway"
	"origination_backend/internal/recommendation"
	"origination_backend/internal/sizing"
	"origination_backend/platform/config"
	"origination_backend/platform/logger"

	"github.com/google/uuid"
)

// Conservative defaults applied when the input leaves a knob unset.
const (
	DefaultHSP           = 5.0
	DefaultPR            = 0.80
	DefaultLosses        = 0.14
	DefaultTiltDeg       = 20.0
	DefaultAzimuthDeg    = 180.0
	DefaultMountType     = "fixed"
	DefaultMeteoSource   = "NASA_POWER"
	DefaultTariffGroup   = "B1"
	DefaultConsumerClass = "RESIDENCIAL"
	DefaultUCType        = "RESIDENCIAL"
	DefaultTierFactor    = 1.15
	CapexPerKWp          = 7000.0
	OpexPerKWpYear       = 100.0
	minAnnualYieldPerKWp = 1.0
)

// ErrConsentRequired aborts a run before any remote call is made.
var ErrConsentRequired = errors.New("lead consent is required")

// LeadGateway is the slice of the origination API the orchestrator needs.
type LeadGateway interface {
	Upsert(ctx context.Context, payload gateway.LeadPayload) (*gateway.LeadUpserted, error)
	Classify(ctx context.Context, leadID string, classification gateway.Classification) (*gateway.Classification, error)
	SelectModality(ctx context.Context, leadID string, payload gateway.ModalityPayload) error
	GenerateRecommendations(ctx context.Context, leadID string, req gateway.RecommendationRequest) (*gateway.RecommendationBundle, error)
}

// ViabilityGateway computes technical yield and economic indicators.
type ViabilityGateway interface {
	Compute(ctx context.Context, params gateway.ViabilityParameters) (*gateway.ViabilityResult, error)
	EvaluateEconomics(ctx context.Context, req gateway.EconomicsRequest) (*gateway.EconomicsResult, error)
}

// TariffGateway resolves tariff profiles. Failures are tolerated: the
// orchestrator substitutes the configured default tariff.
type TariffGateway interface {
	GetProfile(ctx context.Context, query gateway.TariffQuery) (*gateway.TariffProfile, error)
}

// Service drives the PRE process end to end.
type Service struct {
	leads     LeadGateway
	viability ViabilityGateway
	tariffs   TariffGateway
	publisher events.Publisher
	cfg       config.OrchestratorConfig
	log       *logger.Logger
}

// New wires the orchestrator with its gateways and event publisher.
func New(leads LeadGateway, viability ViabilityGateway, tariffs TariffGateway, publisher events.Publisher, cfg config.OrchestratorConfig, log *logger.Logger) *Service {
	return &Service{
		leads:     leads,
		viability: viability,
		tariffs:   tariffs,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// OrchestratePreProcess runs the full PRE sequence for one prospect.
// It always returns a structured Run: fatal stage failures are recorded
// in the error trail, never propagated as a panic or error return.
func (s *Service) OrchestratePreProcess(ctx context.Context, input Input) *Run {
	started := time.Now()
	run := newRun(uuid.NewString(), inputsDigest(input))
	log := s.log.WithTraceID(run.TraceID)

	eventRetriesBefore := s.publisher.Retries()
	defer func() {
		run.Telemetry.Retries[RetryEvents] = s.publisher.Retries() - eventRetriesBefore
		run.stage(StageTotal, started)
		log.StageCompleted(StageTotal, run.Telemetry.DurationsMs[StageTotal])
	}()

	var emitted []string
	emit := func(event events.Event) {
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Warn("event publish failed", "event", event.EventName(), "error", err)
			return
		}
		emitted = append(emitted, event.EventName())
	}

	// Consent gates everything: no remote call happens without it.
	if !input.Lead.Consent {
		run.fail(ErrConsentRequired)
		log.Warn("orchestration aborted", "reason", ErrConsentRequired.Error())
		return run
	}

	// Capture: upsert the lead and announce it.
	captureStart := time.Now()
	upserted, err := s.leads.Upsert(ctx, input.Lead.LeadPayload())
	if err != nil {
		run.fail(err)
		log.Error("lead upsert failed", "error", err)
		return run
	}
	leadID := upserted.LeadID
	if leadID == "" {
		leadID = input.Lead.LeadID
	}
	run.info("lead.created")
	emit(events.LeadCaptured{
		BaseEvent: events.NewBaseEvent(run.TraceID),
		LeadID:    leadID,
		Source:    input.Lead.Source,
		Consent:   input.Lead.Consent,
	})
	run.stage(StageCapture, captureStart)

	// Classification, then modality selection derived from it.
	classification := gateway.Classification{
		TariffGroup:      valueOr(input.TariffGroup, DefaultTariffGroup),
		ConsumerClass:    valueOr(input.ConsumerClass, DefaultConsumerClass),
		ConsumerSubclass: input.ConsumerSubclass,
		UCType:           valueOr(input.UCType, DefaultUCType),
	}
	if _, err := s.leads.Classify(ctx, leadID, classification); err != nil {
		run.fail(err)
		log.Error("consumer classification failed", "error", err)
		return run
	}

	hasRoof := true
	if input.Preferences.HasRoof != nil {
		hasRoof = *input.Preferences.HasRoof
	}
	modality := DetermineModality(classification.UCType, hasRoof, input.Preferences.MultipleUCs)
	err = s.leads.SelectModality(ctx, leadID, gateway.ModalityPayload{
		GenerationModality: modality,
		PrincipalUC:        input.Preferences.PrincipalUC,
		Members:            input.Preferences.Members,
	})
	if err != nil {
		run.fail(err)
		log.Error("modality selection failed", "error", err)
		return run
	}
	emit(events.ModalitySelected{
		BaseEvent:          events.NewBaseEvent(run.TraceID),
		LeadID:             leadID,
		GenerationModality: modality,
	})

	// Viability.
	viabilityStart := time.Now()
	params := s.viabilityParams(input)
	emit(events.ViabilityRequested{
		BaseEvent: events.NewBaseEvent(run.TraceID),
		LeadID:    leadID,
		Params:    params,
	})
	viab, err := s.viability.Compute(ctx, params)
	if err != nil {
		run.fail(err)
		log.Error("viability computation failed", "error", err)
		return run
	}
	run.info("viability.ok")
	run.stage(StageViability, viabilityStart)
	emit(events.ViabilityCompleted{
		BaseEvent:        events.NewBaseEvent(run.TraceID),
		LeadID:           leadID,
		KWhYearPerKWp:    viab.KWhYearPerKWp,
		PerformanceRatio: viab.PerformanceRatio,
	})

	// Tariffs: an unreachable tariff service must not sink the run.
	tariffsStart := time.Now()
	profile, err := s.tariffs.GetProfile(ctx, gateway.TariffQuery{
		SigAgente:      input.Preferences.SigAgente,
		InicioVigencia: input.Preferences.InicioVigencia,
	})
	if err != nil {
		log.Warn("tariff lookup failed, using default profile", "error", err,
			"cents_per_kwh", s.cfg.GetDefaultTariffCentsPerKWh())
		profile = &gateway.TariffProfile{CentsPerKWh: s.cfg.GetDefaultTariffCentsPerKWh()}
	}
	run.stage(StageTariffs, tariffsStart)

	// Economics over a first-pass estimate at the default tier.
	economicsStart := time.Now()
	annualConsumption := input.Consumption.Consumo12mKWh
	yield := viab.KWhYearPerKWp
	if yield < minAnnualYieldPerKWp {
		yield = DefaultHSP * 365
	}
	kwpEstimate := annualConsumption * DefaultTierFactor / yield
	economics, err := s.viability.EvaluateEconomics(ctx, gateway.EconomicsRequest{
		KWhYear:       kwpEstimate * yield,
		TariffProfile: *profile,
		Capex:         kwpEstimate * CapexPerKWp,
		Opex:          kwpEstimate * OpexPerKWpYear,
	})
	if err != nil {
		run.fail(err)
		log.Error("economics evaluation failed", "error", err)
		return run
	}
	run.info("economics.ok")
	run.stage(StageEconomics, economicsStart)

	// Sizing at the preferred tier, then the offer bundle.
	sizingStart := time.Now()
	preferredTier := valueOr(input.Preferences.PreferredTier, s.cfg.GetDefaultTierCode())
	factor, ok := sizing.TierFactor(preferredTier)
	if !ok {
		preferredTier = s.cfg.GetDefaultTierCode()
		factor = DefaultTierFactor
	}
	sized := sizing.Size(annualConsumption, yield, factor)
	sized.TierCode = sizing.TierForTolerance(factor, s.cfg.GetTierFactorTolerance(), s.cfg.GetDefaultTierCode())
	emit(events.SystemSized{
		BaseEvent:       events.NewBaseEvent(run.TraceID),
		LeadID:          leadID,
		KWp:             sized.KWp,
		TierCode:        sized.TierCode,
		BandCode:        sized.BandCode,
		ExpectedKWhYear: sized.ExpectedKWhYear,
	})

	offers := s.buildBundle(ctx, log, leadID, preferredTier, sized, classification, modality, input.Preferences.LoadProfile)
	emit(events.RecommendationBundleCreated{
		BaseEvent:   events.NewBaseEvent(run.TraceID),
		LeadID:      leadID,
		OffersCount: len(offers),
		TierCode:    sized.TierCode,
		BandCode:    sized.BandCode,
	})
	run.info("bundle.created")
	run.stage(StageSizingReco, sizingStart)

	run.FinalBundle = &FinalBundle{
		LeadID: leadID,
		Classification: ClassificationSummary{
			TariffGroup:        classification.TariffGroup,
			ConsumerClass:      classification.ConsumerClass,
			ConsumerSubclass:   classification.ConsumerSubclass,
			UCType:             classification.UCType,
			GenerationModality: modality,
		},
		Viability: ViabilitySummary{
			KWhYearPerKWp:    viab.KWhYearPerKWp,
			PerformanceRatio: viab.PerformanceRatio,
			MCResult:         viab.MCResult,
		},
		Economics: EconomicsSummary{
			ROIPct:       economics.ROIPct,
			PaybackYears: economics.PaybackYears,
			TIRPct:       economics.TIRPct,
		},
		Sizing:        sized,
		Offers:        offers,
		EventsEmitted: emitted,
		NextSteps:     NextSteps,
	}
	return run
}

// buildBundle asks the origination API for offers and falls back to the
// local rule engine when the remote call fails.
func (s *Service) buildBundle(ctx context.Context, log *logger.Logger, leadID, preferredTier string, sized sizing.Result, classification gateway.Classification, modality, loadProfile string) []recommendation.Offer {
	bundle, err := s.leads.GenerateRecommendations(ctx, leadID, gateway.RecommendationRequest{
		PreferredTier:   preferredTier,
		TierCode:        sized.TierCode,
		BandCode:        sized.BandCode,
		KWp:             sized.KWp,
		ExpectedKWhYear: sized.ExpectedKWhYear,
	})
	if err == nil {
		return bundle.Offers
	}

	log.Warn("remote recommendations failed, building offers locally", "error", err)
	upsell := recommendation.UpsellUnion(sized.BandCode, sized.TierCode, map[string]interface{}{
		"uc_type":             classification.UCType,
		"generation_modality": modality,
		"load_profile":        loadProfile,
	})
	return recommendation.BuildOffers(sized.BandCode, sized.KWp, sized.ExpectedKWhYear, upsell)
}

func (s *Service) viabilityParams(input Input) gateway.ViabilityParameters {
	lat, lon := input.Lead.Lat, input.Lead.Lon
	if lat == nil || lon == nil {
		lat, lon = input.Preferences.Lat, input.Preferences.Lon
	}

	tilt := DefaultTiltDeg
	if input.Preferences.TiltDeg != nil {
		tilt = *input.Preferences.TiltDeg
	}
	azimuth := DefaultAzimuthDeg
	if input.Preferences.AzimuthDeg != nil {
		azimuth = *input.Preferences.AzimuthDeg
	}
	losses := DefaultLosses
	if input.Preferences.SystemLossFraction != nil {
		losses = *input.Preferences.SystemLossFraction
	}

	return gateway.ViabilityParameters{
		Lat:                lat,
		Lon:                lon,
		TiltDeg:            tilt,
		AzimuthDeg:         azimuth,
		MountType:          valueOr(input.Preferences.MountType, DefaultMountType),
		SystemLossFraction: losses,
		MeteoSource:        valueOr(input.Preferences.MeteoSource, DefaultMeteoSource),
	}
}

// inputsDigest fingerprints the raw input for audit correlation.
func inputsDigest(input Input) string {
	raw, err := json.Marshal(input)
	if err != nil {
		return "sha256:unavailable"
	}
	sum := sha256.Sum256(raw)
	return "sha256:" + hex.EncodeToString(sum[:])
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
