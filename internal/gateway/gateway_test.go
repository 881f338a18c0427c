package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"origination_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testLogger() *logger.Logger {
	return logger.New("development")
}

func TestLeadUpsert_NormalizesPayload(t *testing.T) {
	var received LeadPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/leads" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(LeadUpserted{LeadID: "lead-1", Status: "created"})
	}))
	defer server.Close()

	client := NewLeadClient(server.URL, server.Client(), testLogger())
	result, err := client.Upsert(context.Background(), LeadPayload{
		Consent: true,
		CEP:     " 22000-000 ",
		UF:      " rj ",
		Phone:   "(21) 98765-4321",
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if received.CEP != "22000000" {
		t.Errorf("expected CEP stripped of separators, got %q", received.CEP)
	}
	if received.UF != "RJ" {
		t.Errorf("expected uppercased UF, got %q", received.UF)
	}
	if received.Phone != "+5521987654321" {
		t.Errorf("expected E.164 phone, got %q", received.Phone)
	}
	if result.LeadID != "lead-1" {
		t.Errorf("expected lead-1, got %q", result.LeadID)
	}
}

func TestLeadUpsert_NonSuccessStatusReturnsRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewLeadClient(server.URL, server.Client(), testLogger())
	_, err := client.Upsert(context.Background(), LeadPayload{Consent: true})

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected *RemoteError, got %T", err)
	}
	if remoteErr.Operation != "lead.upsert" {
		t.Errorf("expected operation lead.upsert, got %s", remoteErr.Operation)
	}
	if remoteErr.Status != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", remoteErr.Status)
	}
}

func TestLeadUpsert_TransportFailureReturnsRemoteError(t *testing.T) {
	client := NewLeadClient("http://127.0.0.1:1", &http.Client{Timeout: 200 * time.Millisecond}, testLogger())
	_, err := client.Upsert(context.Background(), LeadPayload{Consent: true})

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected *RemoteError, got %T", err)
	}
	if remoteErr.Status != 0 {
		t.Errorf("transport failures carry no status, got %d", remoteErr.Status)
	}
	if remoteErr.Unwrap() == nil {
		t.Error("expected an underlying cause")
	}
}

func TestViabilityCompute_DecodesResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tools/viability.compute" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"kwh_year_per_kwp": 1380.0,
			"pr":               0.80,
			"mc_result":        map[string]interface{}{"model": "pvwatts"},
		})
	}))
	defer server.Close()

	client := NewViabilityClient(server.URL, server.Client(), testLogger())
	lat, lon := -22.9, -43.2
	result, err := client.Compute(context.Background(), ViabilityParameters{
		Lat: &lat, Lon: &lon, TiltDeg: 20, AzimuthDeg: 180,
		MountType: "fixed", SystemLossFraction: 0.14, MeteoSource: "NASA_POWER",
	})
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if result.KWhYearPerKWp != 1380 {
		t.Errorf("expected 1380 kWh/kWp/year, got %v", result.KWhYearPerKWp)
	}
	if result.PerformanceRatio != 0.80 {
		t.Errorf("expected PR 0.80, got %v", result.PerformanceRatio)
	}
}

func TestTariffGetProfile_ChainsComponentsAndBuild(t *testing.T) {
	var calls []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		switch r.URL.Path {
		case "/tools/aneel.tariffs.components.fetch":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"rows": []map[string]interface{}{{"component": "TE", "value": 0.5}},
			})
		case "/tools/aneel.tariffs.profile.build":
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			if _, ok := body["rows"]; !ok {
				t.Error("profile build must receive the fetched rows")
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"tariff_profile": map[string]interface{}{"cents_per_kwh": 95.5},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewTariffClient(server.URL, server.Client(), nil, time.Hour, testLogger())
	profile, err := client.GetProfile(context.Background(), TariffQuery{SigAgente: "LIGHT"})
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if profile.CentsPerKWh != 95.5 {
		t.Errorf("expected 95.5 cents/kWh, got %v", profile.CentsPerKWh)
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 chained calls, got %d (%v)", len(calls), calls)
	}
}

func TestTariffGetProfile_SecondLookupServedFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		switch r.URL.Path {
		case "/tools/aneel.tariffs.components.fetch":
			json.NewEncoder(w).Encode(map[string]interface{}{"rows": []map[string]interface{}{}})
		case "/tools/aneel.tariffs.profile.build":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"tariff_profile": map[string]interface{}{"cents_per_kwh": 110.0},
			})
		}
	}))
	defer server.Close()

	client := NewTariffClient(server.URL, server.Client(), cache, time.Hour, testLogger())
	query := TariffQuery{SigAgente: "CEMIG", InicioVigencia: "2024-01-01"}

	first, err := client.GetProfile(context.Background(), query)
	if err != nil {
		t.Fatalf("first lookup failed: %v", err)
	}
	if requests != 2 {
		t.Fatalf("expected 2 upstream requests, got %d", requests)
	}

	second, err := client.GetProfile(context.Background(), query)
	if err != nil {
		t.Fatalf("cached lookup failed: %v", err)
	}
	if requests != 2 {
		t.Fatalf("cached lookup must not hit upstream, saw %d requests", requests)
	}
	if second.CentsPerKWh != first.CentsPerKWh {
		t.Errorf("cache returned %v, want %v", second.CentsPerKWh, first.CentsPerKWh)
	}
}

func TestTariffGetProfile_FailurePropagatesForCallerFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewTariffClient(server.URL, server.Client(), nil, time.Hour, testLogger())
	_, err := client.GetProfile(context.Background(), TariffQuery{})

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected *RemoteError, got %T", err)
	}
	if remoteErr.Status != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", remoteErr.Status)
	}
}
