package recommendation

import "math"

// Cost and payback heuristics per offer level. The unit price is a
// tunable constant, not a contract; payback figures are fixed per level
// and deliberately not a financial model.
const (
	unitCostPerKWp = 7000.0

	baseCostMultiplier = 1.0
	plusCostMultiplier = 1.1
	proCostMultiplier  = 1.2

	basePaybackYears = 6.0
	plusPaybackYears = 5.5
	proPaybackYears  = 5.0
)

// Offer is a purchasable kit derived from a sizing result.
type Offer struct {
	SKU             string   `json:"sku"`
	Title           string   `json:"title"`
	CapexEstimate   float64  `json:"capex_estimate"`
	PaybackEstimate float64  `json:"payback_estimate"`
	Upsell          []string `json:"upsell"`
}

// BuildOffers produces the Base/Plus/Pro offers for a band and capacity.
// All three carry the same upsell list; they differ only by the fixed
// cost multiplier and payback constant.
func BuildOffers(bandCode string, kwp, expectedKWhYear float64, upsell []string) []Offer {
	return []Offer{
		{
			SKU:             bandCode + "-BASE",
			Title:           "Kit " + bandCode + " Base",
			CapexEstimate:   round2(kwp * unitCostPerKWp * baseCostMultiplier),
			PaybackEstimate: basePaybackYears,
			Upsell:          upsell,
		},
		{
			SKU:             bandCode + "-PLUS",
			Title:           "Kit " + bandCode + " Plus",
			CapexEstimate:   round2(kwp * unitCostPerKWp * plusCostMultiplier),
			PaybackEstimate: plusPaybackYears,
			Upsell:          upsell,
		},
		{
			SKU:             bandCode + "-PRO",
			Title:           "Kit " + bandCode + " Pro",
			CapexEstimate:   round2(kwp * unitCostPerKWp * proCostMultiplier),
			PaybackEstimate: proPaybackYears,
			Upsell:          upsell,
		},
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
