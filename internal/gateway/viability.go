package gateway

import (
	"context"
	"net/http"
	"strings"

	"origination_backend/platform/logger"
)

// ViabilityParameters describes a PV installation for the viability
// computation. Transient, constructed per orchestration run.
type ViabilityParameters struct {
	Lat                *float64 `json:"lat"`
	Lon                *float64 `json:"lon"`
	TiltDeg            float64  `json:"tilt_deg"`
	AzimuthDeg         float64  `json:"azimuth_deg"`
	MountType          string   `json:"mount_type"`
	SystemLossFraction float64  `json:"system_loss_fraction"`
	MeteoSource        string   `json:"meteo_source"`
}

// ViabilityResult is the collaborator's yield estimate.
type ViabilityResult struct {
	KWhYearPerKWp    float64                `json:"kwh_year_per_kwp"`
	PerformanceRatio float64                `json:"pr"`
	MCResult         map[string]interface{} `json:"mc_result"`
}

// EconomicsRequest feeds the economic evaluation.
type EconomicsRequest struct {
	KWhYear       float64       `json:"kwh_year"`
	TariffProfile TariffProfile `json:"tariff_profile"`
	Capex         float64       `json:"capex"`
	Opex          float64       `json:"opex"`
}

// EconomicsResult is the collaborator's economic evaluation.
type EconomicsResult struct {
	ROIPct       float64   `json:"roi_pct"`
	PaybackYears float64   `json:"payback_years"`
	TIRPct       float64   `json:"tir_pct"`
	Cashflow     []float64 `json:"cashflow,omitempty"`
}

// ViabilityClient talks to the viability service.
type ViabilityClient struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewViabilityClient creates a client for the viability service.
func NewViabilityClient(baseURL string, httpClient *http.Client, log *logger.Logger) *ViabilityClient {
	return &ViabilityClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}
}

// Compute runs the remote viability model.
func (c *ViabilityClient) Compute(ctx context.Context, params ViabilityParameters) (*ViabilityResult, error) {
	url := c.baseURL + "/tools/viability.compute"
	var out ViabilityResult
	if err := postJSON(ctx, c.httpClient, "viability.compute", url, params, &out); err != nil {
		c.log.RemoteCallError("viability.compute", url, err)
		return nil, err
	}
	return &out, nil
}

// EvaluateEconomics runs the remote economic evaluation. Failures here
// are load-bearing and propagate; there is no silent fallback.
func (c *ViabilityClient) EvaluateEconomics(ctx context.Context, req EconomicsRequest) (*EconomicsResult, error) {
	url := c.baseURL + "/tools/economics.evaluate"
	var out EconomicsResult
	if err := postJSON(ctx, c.httpClient, "economics.evaluate", url, req, &out); err != nil {
		c.log.RemoteCallError("economics.evaluate", url, err)
		return nil, err
	}
	return &out, nil
}
