package sizing

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed configs/project_size_bands.yaml
var bandsYAML []byte

//go:embed configs/recommendation_tiers.yaml
var tiersYAML []byte

// Band is a half-open capacity interval [Lower, Upper) in kWp.
type Band struct {
	Code  string
	Lower float64
	Upper float64
}

// Tier is a sizing-headroom class with its oversizing factor and the
// add-on SKUs statically suggested for it.
type Tier struct {
	Code           string
	Factor         float64
	UpsellTriggers []string
}

var (
	// bands is ordered from smallest to largest capacity.
	bands []Band
	// tiers is ordered as declared in configuration.
	tiers []Tier
)

type bandsFile struct {
	Bands []struct {
		Code     string     `yaml:"code"`
		KWpRange [2]float64 `yaml:"kwp_range"`
	} `yaml:"bands"`
}

type tiersFile struct {
	Tiers []struct {
		Code           string   `yaml:"code"`
		Factor         float64  `yaml:"factor"`
		UpsellTriggers []string `yaml:"upsell_triggers"`
	} `yaml:"tiers"`
}

func init() {
	var bf bandsFile
	if err := yaml.Unmarshal(bandsYAML, &bf); err != nil {
		panic(fmt.Sprintf("sizing: invalid band configuration: %v", err))
	}
	for _, b := range bf.Bands {
		bands = append(bands, Band{Code: b.Code, Lower: b.KWpRange[0], Upper: b.KWpRange[1]})
	}

	var tf tiersFile
	if err := yaml.Unmarshal(tiersYAML, &tf); err != nil {
		panic(fmt.Sprintf("sizing: invalid tier configuration: %v", err))
	}
	for _, t := range tf.Tiers {
		tiers = append(tiers, Tier{Code: t.Code, Factor: t.Factor, UpsellTriggers: t.UpsellTriggers})
	}

	if len(bands) == 0 || len(tiers) == 0 {
		panic("sizing: band and tier tables must not be empty")
	}
}

// Bands returns the ordered band table.
func Bands() []Band {
	out := make([]Band, len(bands))
	copy(out, bands)
	return out
}

// Tiers returns the configured tier table.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// TierFactor returns the oversizing factor for a tier code.
func TierFactor(code string) (float64, bool) {
	for _, t := range tiers {
		if t.Code == code {
			return t.Factor, true
		}
	}
	return 0, false
}

// UpsellTriggers returns the static add-on SKUs for a tier code.
func UpsellTriggers(code string) []string {
	for _, t := range tiers {
		if t.Code == code {
			out := make([]string, len(t.UpsellTriggers))
			copy(out, t.UpsellTriggers)
			return out
		}
	}
	return nil
}
