package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"origination_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// TariffQuery identifies the distribution utility and tariff vigency to
// look up.
type TariffQuery struct {
	SigAgente      string `json:"sig_agente"`
	InicioVigencia string `json:"inicio_vigencia"`
}

// TariffProfile maps tariff attributes to rates.
type TariffProfile struct {
	CentsPerKWh float64 `json:"cents_per_kwh"`
}

// tariffComponents is the first hop of the chained lookup.
type tariffComponents struct {
	Rows []map[string]interface{} `json:"rows"`
}

type tariffProfileResponse struct {
	TariffProfile TariffProfile `json:"tariff_profile"`
}

// TariffClient talks to the ANEEL tariff service, chaining the
// components fetch and the profile build. Profiles change rarely, so an
// optional Redis cache sits in front of the two remote calls; cache
// failures count as misses.
type TariffClient struct {
	baseURL    string
	httpClient *http.Client
	cache      *redis.Client
	cacheTTL   time.Duration
	log        *logger.Logger
}

// NewTariffClient creates a client for the tariff service. cache may be
// nil to disable caching.
func NewTariffClient(baseURL string, httpClient *http.Client, cache *redis.Client, cacheTTL time.Duration, log *logger.Logger) *TariffClient {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &TariffClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		cache:      cache,
		cacheTTL:   cacheTTL,
		log:        log,
	}
}

// GetProfile fetches the tariff components and builds the profile from
// them. Fallback on failure is the caller's decision.
func (c *TariffClient) GetProfile(ctx context.Context, query TariffQuery) (*TariffProfile, error) {
	if cached := c.fromCache(ctx, query); cached != nil {
		return cached, nil
	}

	componentsURL := c.baseURL + "/tools/aneel.tariffs.components.fetch"
	var components tariffComponents
	if err := postJSON(ctx, c.httpClient, "tariff.components", componentsURL, query, &components); err != nil {
		c.log.RemoteCallError("tariff.components", componentsURL, err)
		return nil, err
	}

	profileURL := c.baseURL + "/tools/aneel.tariffs.profile.build"
	var resp tariffProfileResponse
	payload := map[string]interface{}{"rows": components.Rows}
	if err := postJSON(ctx, c.httpClient, "tariff.profile", profileURL, payload, &resp); err != nil {
		c.log.RemoteCallError("tariff.profile", profileURL, err)
		return nil, err
	}

	c.toCache(ctx, query, resp.TariffProfile)
	return &resp.TariffProfile, nil
}

func (c *TariffClient) cacheKey(query TariffQuery) string {
	return "tariff:profile:" + query.SigAgente + ":" + query.InicioVigencia
}

func (c *TariffClient) fromCache(ctx context.Context, query TariffQuery) *TariffProfile {
	if c.cache == nil {
		return nil
	}
	raw, err := c.cache.Get(ctx, c.cacheKey(query)).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("tariff cache read failed", "error", err)
		}
		return nil
	}
	var profile TariffProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil
	}
	return &profile
}

func (c *TariffClient) toCache(ctx context.Context, query TariffQuery, profile TariffProfile) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, c.cacheKey(query), raw, c.cacheTTL).Err(); err != nil {
		c.log.Warn("tariff cache write failed", "error", err)
	}
}
