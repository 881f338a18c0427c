package gateway

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"origination_backend/internal/recommendation"
	"origination_backend/platform/logger"
	"origination_backend/platform/phone"
)

var cepSeparators = regexp.MustCompile(`[^0-9A-Za-z]`)

// LeadPayload is the upsert body sent to the origination API.
type LeadPayload struct {
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

// LeadUpserted is the origination API's answer to a lead upsert.
type LeadUpserted struct {
	LeadID string `json:"lead_id"`
	Status string `json:"status"`
}

// Classification carries consumer classification attributes.
type Classification struct {
	TariffGroup      string `json:"tariff_group"`
	ConsumerClass    string `json:"consumer_class"`
	ConsumerSubclass string `json:"consumer_subclass"`
	UCType           string `json:"uc_type"`
}

// ModalityPayload persists the chosen generation modality for a lead.
type ModalityPayload struct {
	GenerationModality string   `json:"generation_modality"`
	PrincipalUC        string   `json:"principal_uc,omitempty"`
	Members            []string `json:"members,omitempty"`
}

// RecommendationRequest asks the origination API to generate offers.
type RecommendationRequest struct {
	PreferredTier   string  `json:"preferred_tier"`
	TierCode        string  `json:"tier_code"`
	BandCode        string  `json:"band_code"`
	KWp             float64 `json:"kwp"`
	ExpectedKWhYear float64 `json:"expected_kwh_year"`
}

// RecommendationBundle is the remote offer bundle.
type RecommendationBundle struct {
	Offers []recommendation.Offer `json:"offers"`
}

// LeadClient talks to the lead origination API.
type LeadClient struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewLeadClient creates a client for the origination API. The HTTP
// client is shared and pooled; the gateway does not own it.
func NewLeadClient(baseURL string, httpClient *http.Client, log *logger.Logger) *LeadClient {
	return &LeadClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}
}

// Upsert creates or updates a lead. The payload is normalized first —
// CEP stripped of separators, UF uppercased, phone in E.164 — so the
// collaborator can match idempotently.
func (c *LeadClient) Upsert(ctx context.Context, payload LeadPayload) (*LeadUpserted, error) {
	payload.CEP = cepSeparators.ReplaceAllString(strings.TrimSpace(payload.CEP), "")
	payload.UF = strings.ToUpper(strings.TrimSpace(payload.UF))
	payload.Phone = phone.NormalizeE164(payload.Phone)

	url := c.baseURL + "/v1/leads"
	var out LeadUpserted
	if err := postJSON(ctx, c.httpClient, "lead.upsert", url, payload, &out); err != nil {
		c.log.RemoteCallError("lead.upsert", url, err)
		return nil, err
	}
	if out.LeadID == "" {
		out.LeadID = payload.LeadID
	}
	return &out, nil
}

// Classify records the consumer classification for a lead.
func (c *LeadClient) Classify(ctx context.Context, leadID string, classification Classification) (*Classification, error) {
	url := c.baseURL + "/v1/leads/" + leadID + "/classify"
	var out Classification
	if err := postJSON(ctx, c.httpClient, "lead.classify", url, classification, &out); err != nil {
		c.log.RemoteCallError("lead.classify", url, err)
		return nil, err
	}
	return &out, nil
}

// SelectModality persists the chosen generation modality for a lead.
func (c *LeadClient) SelectModality(ctx context.Context, leadID string, payload ModalityPayload) error {
	url := c.baseURL + "/v1/leads/" + leadID + "/modality"
	if err := postJSON(ctx, c.httpClient, "lead.modality", url, payload, nil); err != nil {
		c.log.RemoteCallError("lead.modality", url, err)
		return err
	}
	return nil
}

// GenerateRecommendations asks the collaborator for an offer bundle.
// Callers fall back to local offer building when this fails.
func (c *LeadClient) GenerateRecommendations(ctx context.Context, leadID string, req RecommendationRequest) (*RecommendationBundle, error) {
	url := c.baseURL + "/v1/leads/" + leadID + "/recommendations"
	var out RecommendationBundle
	if err := postJSON(ctx, c.httpClient, "lead.recommendations", url, req, &out); err != nil {
		c.log.RemoteCallError("lead.recommendations", url, err)
		return nil, err
	}
	return &out, nil
}
