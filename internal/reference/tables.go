// Package reference holds the static agronomic domain knowledge the risk
// engine scores against: supported crops and soils, crop-soil compatibility,
// and per-crop-per-soil fertilizer application rates. Tables are built once at
// startup and never mutated afterwards.
package reference

import (
	"strings"

	"github.com/rotisserie/eris"
)

// AcresPerHectare is the canonical land unit conversion factor.
const AcresPerHectare = 2.47105

// AcresToHectares converts a land area from acres to the canonical unit.
func AcresToHectares(acres float64) float64 {
	return acres / AcresPerHectare
}

// Tables is the immutable reference data for one engine instance.
type Tables struct {
	Crops         []string                      `yaml:"crops"`
	Soils         []string                      `yaml:"soils"`
	Compatibility map[string][]string           `yaml:"compatibility"`
	Rates         map[string]map[string]float64 `yaml:"fertilizer_rates_kg_per_ha"`
}

// Default returns the built-in tables for the four supported crops and six
// supported soils.
func Default() *Tables {
	return &Tables{
		Crops: []string{"Rice", "Jowar", "Wheat", "Oats"},
		Soils: []string{"Alluvial", "Clay", "Loamy", "Red", "Black (Regur)", "Sandy Loam"},
		Compatibility: map[string][]string{
			"Rice":  {"Alluvial", "Clay", "Loamy"},
			"Jowar": {"Red", "Black (Regur)", "Loamy"},
			"Wheat": {"Alluvial", "Loamy", "Clay"},
			"Oats":  {"Loamy", "Alluvial", "Sandy Loam"},
		},
		Rates: map[string]map[string]float64{
			"Rice": {
				"Alluvial": 300, "Clay": 280, "Loamy": 290,
				"Red": 310, "Black (Regur)": 270, "Sandy Loam": 330,
			},
			"Jowar": {
				"Alluvial": 180, "Clay": 160, "Loamy": 170,
				"Red": 190, "Black (Regur)": 165, "Sandy Loam": 210,
			},
			"Wheat": {
				"Alluvial": 220, "Clay": 200, "Loamy": 210,
				"Red": 230, "Black (Regur)": 205, "Sandy Loam": 250,
			},
			"Oats": {
				"Alluvial": 200, "Clay": 180, "Loamy": 190,
				"Red": 210, "Black (Regur)": 185, "Sandy Loam": 230,
			},
		},
	}
}

// normalize trims and lowercases a domain value for comparison. Registry data
// and kiosk input disagree on casing and padding, never on spelling.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CanonicalCrop returns the canonical spelling of a crop name, or "" if the
// crop is not supported.
func (t *Tables) CanonicalCrop(name string) string {
	n := normalize(name)
	for _, c := range t.Crops {
		if normalize(c) == n {
			return c
		}
	}
	return ""
}

// CropSupported reports whether the crop is in the supported set.
func (t *Tables) CropSupported(name string) bool {
	return t.CanonicalCrop(name) != ""
}

// SoilSupported reports whether the soil type is in the supported set.
func (t *Tables) SoilSupported(name string) bool {
	n := normalize(name)
	for _, s := range t.Soils {
		if normalize(s) == n {
			return true
		}
	}
	return false
}

// Compatible reports whether the soil is listed as compatible with the crop.
// known is false when the crop has no compatibility entry at all, in which
// case compatible is meaningless and the caller must not flag the pair.
func (t *Tables) Compatible(crop, soil string) (compatible, known bool) {
	canonical := t.CanonicalCrop(crop)
	soils, ok := t.Compatibility[canonical]
	if canonical == "" || !ok {
		return false, false
	}
	n := normalize(soil)
	for _, s := range soils {
		if normalize(s) == n {
			return true, true
		}
	}
	return false, true
}

// Rate returns the fertilizer application rate in kg/ha for a crop-soil pair.
func (t *Tables) Rate(crop, soil string) (float64, bool) {
	canonical := t.CanonicalCrop(crop)
	bySoil, ok := t.Rates[canonical]
	if canonical == "" || !ok {
		return 0, false
	}
	n := normalize(soil)
	for s, rate := range bySoil {
		if normalize(s) == n {
			return rate, true
		}
	}
	return 0, false
}

// Validate checks internal consistency: every compatibility and rate entry
// must reference supported crops and soils, and all rates must be positive.
func (t *Tables) Validate() error {
	if len(t.Crops) == 0 {
		return eris.New("reference: no supported crops")
	}
	if len(t.Soils) == 0 {
		return eris.New("reference: no supported soils")
	}
	for crop, soils := range t.Compatibility {
		if !t.CropSupported(crop) {
			return eris.Errorf("reference: compatibility entry for unsupported crop %q", crop)
		}
		for _, soil := range soils {
			if !t.SoilSupported(soil) {
				return eris.Errorf("reference: compatibility entry %q/%q references unsupported soil", crop, soil)
			}
		}
	}
	for crop, bySoil := range t.Rates {
		if !t.CropSupported(crop) {
			return eris.Errorf("reference: rate entry for unsupported crop %q", crop)
		}
		for soil, rate := range bySoil {
			if !t.SoilSupported(soil) {
				return eris.Errorf("reference: rate entry %q/%q references unsupported soil", crop, soil)
			}
			if rate <= 0 {
				return eris.Errorf("reference: rate for %q/%q must be > 0 (got %v)", crop, soil, rate)
			}
		}
	}
	return nil
}
