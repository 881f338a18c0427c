// Package sizing computes PV system sizing from annual consumption and
// classifies the result into capacity bands and sizing tiers. All
// functions are pure; band and tier tables load from embedded
// configuration.
package sizing

import "math"

const (
	// DefaultTierCode is assigned when a tier factor matches no
	// configured tier. A policy choice, not a failure.
	DefaultTierCode = "T115"
	// DefaultFactorTolerance absorbs float rounding when matching a
	// tier factor back to its canonical tier code.
	DefaultFactorTolerance = 1e-2
)

// Result holds a complete sizing outcome. Band and tier are always
// derived from KWp and the tier factor, never set independently.
type Result struct {
	TierCode        string  `json:"tier_code"`
	BandCode        string  `json:"band_code"`
	KWp             float64 `json:"kwp"`
	ExpectedKWhYear float64 `json:"expected_kwh_year"`
}

// Size computes the required nameplate capacity for an annual consumption,
// a specific yield (kWh per kWp per year) and a tier oversizing factor.
// The yield denominator is clamped to a minimum of 1.0, so degenerate
// inputs produce degenerate but well-defined output.
func Size(annualConsumptionKWh, kwhPerKWpYear, tierFactor float64) Result {
	yield := math.Max(kwhPerKWpYear, 1.0)
	kwp := round2(annualConsumptionKWh * tierFactor / yield)

	return Result{
		TierCode:        TierFor(tierFactor),
		BandCode:        BandFor(kwp),
		KWp:             kwp,
		ExpectedKWhYear: math.Round(kwp * yield),
	}
}

// BandFor returns the code of the first band whose half-open interval
// [lower, upper) contains kwp. A capacity beyond the last interval's
// upper bound classifies into the largest band.
func BandFor(kwp float64) string {
	for _, b := range bands {
		if kwp >= b.Lower && kwp < b.Upper {
			return b.Code
		}
	}
	return bands[len(bands)-1].Code
}

// TierFor matches a factor to its canonical tier code using the default
// tolerance, falling back to DefaultTierCode.
func TierFor(factor float64) string {
	return TierForTolerance(factor, DefaultFactorTolerance, DefaultTierCode)
}

// TierForTolerance matches a factor to a tier code within the given
// tolerance. When no configured factor is close enough, defaultCode is
// returned.
func TierForTolerance(factor, tolerance float64, defaultCode string) string {
	for _, t := range tiers {
		if math.Abs(t.Factor-factor) < tolerance {
			return t.Code
		}
	}
	return defaultCode
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
