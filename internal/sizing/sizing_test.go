package sizing

import (
	"math"
	"testing"
)

func TestSize_ReferenceScenario(t *testing.T) {
	// 6000 kWh/year at 1380 kWh/kWp/year (HSP 5.0, PR 0.80 after losses)
	// with the T115 factor lands on a 5 kWp system in band S.
	result := Size(6000, 1380, 1.15)

	if math.Abs(result.KWp-5.0) > 0.01 {
		t.Fatalf("expected kwp ~5.00, got %v", result.KWp)
	}
	if math.Abs(result.ExpectedKWhYear-6900) > 1 {
		t.Fatalf("expected ~6900 kWh/year, got %v", result.ExpectedKWhYear)
	}
	if result.BandCode != "S" {
		t.Fatalf("expected band S, got %s", result.BandCode)
	}
	if result.TierCode != "T115" {
		t.Fatalf("expected tier T115, got %s", result.TierCode)
	}
}

func TestSize_YieldClampedToOne(t *testing.T) {
	result := Size(1000, 0, 1.15)

	if result.KWp != 1150 {
		t.Fatalf("expected kwp 1150 with clamped yield, got %v", result.KWp)
	}
	if result.ExpectedKWhYear != 1150 {
		t.Fatalf("expected 1150 kWh/year with clamped yield, got %v", result.ExpectedKWhYear)
	}
}

func TestSize_ZeroConsumption(t *testing.T) {
	result := Size(0, 1380, 1.30)

	if result.KWp != 0 {
		t.Fatalf("expected kwp 0, got %v", result.KWp)
	}
	if result.ExpectedKWhYear != 0 {
		t.Fatalf("expected 0 kWh/year, got %v", result.ExpectedKWhYear)
	}
	if result.BandCode != "XPP" {
		t.Fatalf("expected smallest band for zero capacity, got %s", result.BandCode)
	}
}

func TestSize_ExpectedYieldConsistency(t *testing.T) {
	cases := []struct {
		consumption float64
		yield       float64
		factor      float64
	}{
		{6000, 1380, 1.15},
		{4000, 1460, 1.30},
		{12000, 1100, 1.45},
		{250, 0.5, 1.60},
	}

	for _, tc := range cases {
		result := Size(tc.consumption, tc.yield, tc.factor)
		if result.KWp < 0 {
			t.Fatalf("negative kwp for %+v", tc)
		}
		want := math.Round(result.KWp * math.Max(tc.yield, 1.0))
		if result.ExpectedKWhYear != want {
			t.Fatalf("expected kwh/year %v, got %v for %+v", want, result.ExpectedKWhYear, tc)
		}
	}
}

func TestBandFor_Boundaries(t *testing.T) {
	cases := []struct {
		kwp  float64
		want string
	}{
		{0, "XPP"},
		{0.49, "XPP"},
		{0.5, "XS"},
		{2.99, "XS"},
		{3, "S"},
		{5.0, "S"},
		{6, "M"},
		{12, "L"},
		{30, "XL"},
		{75, "XG"},
		{300, "XGG"},
		{1499.99, "XGG"},
	}

	for _, tc := range cases {
		if got := BandFor(tc.kwp); got != tc.want {
			t.Errorf("BandFor(%v) = %s, want %s", tc.kwp, got, tc.want)
		}
	}
}

func TestBandFor_OverflowUsesLargestBand(t *testing.T) {
	if got := BandFor(1500); got != "XGG" {
		t.Fatalf("expected overflow into XGG, got %s", got)
	}
	if got := BandFor(99999); got != "XGG" {
		t.Fatalf("expected overflow into XGG, got %s", got)
	}
}

func TestBandFor_IntervalsExclusiveAndExhaustive(t *testing.T) {
	table := Bands()
	if table[0].Lower != 0 {
		t.Fatalf("band table must start at 0, starts at %v", table[0].Lower)
	}
	for i := 1; i < len(table); i++ {
		if table[i].Lower != table[i-1].Upper {
			t.Fatalf("gap between band %s and %s", table[i-1].Code, table[i].Code)
		}
	}
}

func TestTierFor_CanonicalFactors(t *testing.T) {
	cases := map[float64]string{
		1.15: "T115",
		1.30: "T130",
		1.45: "T145",
		1.60: "T160",
	}
	for factor, want := range cases {
		if got := TierFor(factor); got != want {
			t.Errorf("TierFor(%v) = %s, want %s", factor, got, want)
		}
	}
}

func TestTierFor_ToleratesRounding(t *testing.T) {
	if got := TierFor(1.1501); got != "T115" {
		t.Fatalf("expected T115 within tolerance, got %s", got)
	}
	if got := TierFor(1.309); got != "T130" {
		t.Fatalf("expected T130 within tolerance, got %s", got)
	}
}

func TestTierFor_UnknownFactorFallsBackToDefault(t *testing.T) {
	if got := TierFor(2.5); got != DefaultTierCode {
		t.Fatalf("expected default tier %s, got %s", DefaultTierCode, got)
	}
	// Exactly at the tolerance boundary is not a match.
	if got := TierForTolerance(1.15+DefaultFactorTolerance, DefaultFactorTolerance, "T115"); got != "T115" {
		t.Fatalf("boundary factor should fall back to default, got %s", got)
	}
}

func TestTierFactor_Lookup(t *testing.T) {
	factor, ok := TierFactor("T130")
	if !ok || factor != 1.30 {
		t.Fatalf("expected T130 factor 1.30, got %v (ok=%v)", factor, ok)
	}
	if _, ok := TierFactor("T999"); ok {
		t.Fatal("unknown tier code must not resolve")
	}
}
