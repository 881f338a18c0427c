package service

import (
	"time"

	"origination_backend/internal/gateway"
	"origination_backend/internal/recommendation"
	"origination_backend/internal/sizing"
)

// Stage keys for run telemetry durations.
const (
	StageCapture    = "capture"
	StageViability  = "viability"
	StageTariffs    = "tariffs"
	StageEconomics  = "economics"
	StageSizingReco = "sizing_reco"
	StageTotal      = "total"
)

// Retry counter keys.
const (
	RetryHTTP   = "http"
	RetryEvents = "events"
)

// NextSteps is the fixed follow-up list attached to every completed bundle.
var NextSteps = []string{
	"gerar_proposta_pdf",
	"abrir_tarefa_homologacao",
	"notificar_cliente",
}

// LogEntry is a structured entry in the run's log or error trail.
type LogEntry struct {
	Level string    `json:"level"`
	At    time.Time `json:"at"`
	Msg   string    `json:"msg"`
}

// Telemetry aggregates per-stage durations and retry counters for one run.
type Telemetry struct {
	DurationsMs map[string]float64 `json:"durations_ms"`
	Retries     map[string]int64   `json:"retries"`
}

// ClassificationSummary echoes the classification used for the run, plus
// the modality derived from it.
type ClassificationSummary struct {
	TariffGroup        string `json:"tariff_group"`
	ConsumerClass      string `json:"consumer_class"`
	ConsumerSubclass   string `json:"consumer_subclass"`
	UCType             string `json:"uc_type"`
	GenerationModality string `json:"generation_modality"`
}

// ViabilitySummary carries the yield figures the bundle was built on.
type ViabilitySummary struct {
	KWhYearPerKWp    float64                `json:"kwh_year_per_kwp"`
	PerformanceRatio float64                `json:"pr"`
	MCResult         map[string]interface{} `json:"mc_result"`
}

// EconomicsSummary carries the headline economic indicators.
type EconomicsSummary struct {
	ROIPct       float64 `json:"roi_pct"`
	PaybackYears float64 `json:"payback_years"`
	TIRPct       float64 `json:"tir_pct"`
}

// FinalBundle is the composed outcome of a successful run.
type FinalBundle struct {
	LeadID         string                 `json:"lead_id"`
	Classification ClassificationSummary  `json:"classification"`
	Viability      ViabilitySummary       `json:"viability"`
	Economics      EconomicsSummary       `json:"economics"`
	Sizing         sizing.Result          `json:"sizing"`
	Offers         []recommendation.Offer `json:"offers"`
	EventsEmitted  []string               `json:"events_emitted"`
	NextSteps      []string               `json:"next_steps"`
}

// Run is the structured result of one orchestration. It is always
// returned, even when the process aborts mid-way: partial telemetry,
// logs and the error trail survive.
type Run struct {
	TraceID      string       `json:"trace_id"`
	InputsDigest string       `json:"inputs_digest"`
	FinalBundle  *FinalBundle `json:"final_bundle"`
	Telemetry    Telemetry    `json:"telemetry"`
	Logs         []LogEntry   `json:"logs"`
	Errors       []LogEntry   `json:"errors"`
}

func newRun(traceID, digest string) *Run {
	return &Run{
		TraceID:      traceID,
		InputsDigest: digest,
		Telemetry: Telemetry{
			DurationsMs: map[string]float64{},
			Retries:     map[string]int64{RetryHTTP: 0, RetryEvents: 0},
		},
		Logs:   []LogEntry{},
		Errors: []LogEntry{},
	}
}

func (r *Run) info(msg string) {
	r.Logs = append(r.Logs, LogEntry{Level: "INFO", At: time.Now().UTC(), Msg: msg})
}

func (r *Run) fail(err error) {
	r.Errors = append(r.Errors, LogEntry{Level: "ERROR", At: time.Now().UTC(), Msg: "Error: " + err.Error()})
}

func (r *Run) stage(key string, started time.Time) {
	r.Telemetry.DurationsMs[key] = roundMs(time.Since(started))
}

func roundMs(d time.Duration) float64 {
	ms := float64(d.Microseconds()) / 1000.0
	return float64(int64(ms*100+0.5)) / 100
}

// Input is the full request for one orchestration run.
type Input struct {
	Lead             LeadData        `json:"lead_data"`
	Consumption      ConsumptionData `json:"consumption_data"`
	Preferences      Preferences     `json:"preferences"`
	TariffGroup      string          `json:"tariff_group"`
	ConsumerClass    string          `json:"consumer_class"`
	ConsumerSubclass string          `json:"consumer_subclass"`
	UCType           string          `json:"uc_type"`
}

// LeadData identifies and locates the prospect.
type LeadData struct {
	LeadID    string   `json:"lead_id,omitempty"`
	Source    string   `json:"source,omitempty"`
	Name      string   `json:"name,omitempty"`
	Email     string   `json:"email,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Consent   bool     `json:"consent"`
	CEP       string   `json:"cep,omitempty"`
	UF        string   `json:"uf,omitempty"`
	Municipio string   `json:"municipio,omitempty"`
	Lat       *float64 `json:"lat,omitempty"`
	Lon       *float64 `json:"lon,omitempty"`
}

// ConsumptionData carries the consumption history used for sizing.
type ConsumptionData struct {
	Consumo12mKWh float64 `json:"consumo_12m_kwh"`
}

// Preferences holds the optional knobs of a run. Zero values fall back
// to conservative defaults inside the service.
type Preferences struct {
	PreferredTier      string   `json:"preferred_tier,omitempty"`
	LoadProfile        string   `json:"load_profile,omitempty"`
	HasRoof            *bool    `json:"has_roof,omitempty"`
	MultipleUCs        bool     `json:"multiple_ucs,omitempty"`
	TiltDeg            *float64 `json:"tilt_deg,omitempty"`
	AzimuthDeg         *float64 `json:"azimuth_deg,omitempty"`
	MountType          string   `json:"mount_type,omitempty"`
	SystemLossFraction *float64 `json:"system_loss_fraction,omitempty"`
	MeteoSource        string   `json:"meteo_source,omitempty"`
	SigAgente          string   `json:"sig_agente,omitempty"`
	InicioVigencia     string   `json:"inicio_vigencia,omitempty"`
	PrincipalUC        string   `json:"principal_uc,omitempty"`
	Members            []string `json:"members,omitempty"`
	Lat                *float64 `json:"lat,omitempty"`
	Lon                *float64 `json:"lon,omitempty"`
}

// LeadPayload maps the lead data onto the gateway upsert body.
func (l LeadData) LeadPayload() gateway.LeadPayload {
	return gateway.LeadPayload{
		LeadID:    l.LeadID,
		Source:    l.Source,
		Name:      l.Name,
		Email:     l.Email,
		Phone:     l.Phone,
		Consent:   l.Consent,
		CEP:       l.CEP,
		UF:        l.UF,
		Municipio: l.Municipio,
		Lat:       l.Lat,
		Lon:       l.Lon,
	}
}
