// Package risk implements the multi-factor claim scoring engine: independent
// factor evaluators, the short-circuiting aggregator, and the threshold
// decision function.
package risk

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/agriguard/subsidy-cli/internal/config"
)

// DefaultRiskConfig returns the canonical weight table and thresholds.
func DefaultRiskConfig() config.RiskConfig {
	return config.RiskConfig{
		FarmerMissingWeight:        60,
		DealerMissingWeight:        80,
		LicenseInactiveWeight:      40,
		NoDeclaredCropWeight:       30,
		NoRegisteredCropWeight:     30,
		CropMismatchWeight:         40,
		CropUnrecognizedWeight:     40,
		SoilUnrecognizedWeight:     30,
		CropSoilMismatchWeight:     25,
		VillageMismatchWeight:      20,
		NoRelationshipWeight:       50,
		InactiveRelationshipWeight: 40,
		TxnLimitWeight:             30,
		QuantityExtremeWeight:      40,
		QuantityExcessWeight:       25,
		QuantitySlightWeight:       10,
		QuantityLowWeight:          20,

		ExtremeRatio: 1.8,
		ExcessRatio:  1.4,
		SlightRatio:  1.1,
		LowRatio:     0.6,

		BlockAbove:   80,
		ReviewAbove:  60,
		MonitorAbove: 30,
	}
}

// ValidateConfig checks that a RiskConfig is internally consistent.
func ValidateConfig(c config.RiskConfig) error {
	var errs []string

	weights := map[string]int{
		"farmer_missing_weight":        c.FarmerMissingWeight,
		"dealer_missing_weight":        c.DealerMissingWeight,
		"license_inactive_weight":      c.LicenseInactiveWeight,
		"no_declared_crop_weight":      c.NoDeclaredCropWeight,
		"no_registered_crop_weight":    c.NoRegisteredCropWeight,
		"crop_mismatch_weight":         c.CropMismatchWeight,
		"crop_unrecognized_weight":     c.CropUnrecognizedWeight,
		"soil_unrecognized_weight":     c.SoilUnrecognizedWeight,
		"crop_soil_mismatch_weight":    c.CropSoilMismatchWeight,
		"village_mismatch_weight":      c.VillageMismatchWeight,
		"no_relationship_weight":       c.NoRelationshipWeight,
		"inactive_relationship_weight": c.InactiveRelationshipWeight,
		"txn_limit_weight":             c.TxnLimitWeight,
		"quantity_extreme_weight":      c.QuantityExtremeWeight,
		"quantity_excess_weight":       c.QuantityExcessWeight,
		"quantity_slight_weight":       c.QuantitySlightWeight,
		"quantity_low_weight":          c.QuantityLowWeight,
	}
	for name, w := range weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	// Ratio bands must be ordered so the precedence chain is total.
	if !(c.LowRatio > 0) {
		errs = append(errs, "low_ratio must be > 0")
	}
	if !(c.LowRatio < c.SlightRatio && c.SlightRatio < c.ExcessRatio && c.ExcessRatio < c.ExtremeRatio) {
		errs = append(errs, "ratio bands must satisfy low < slight < excess < extreme")
	}

	// Decision thresholds must be ordered and non-negative.
	if c.MonitorAbove < 0 {
		errs = append(errs, "monitor_above must be >= 0")
	}
	if !(c.MonitorAbove < c.ReviewAbove && c.ReviewAbove < c.BlockAbove) {
		errs = append(errs, "decision thresholds must satisfy monitor < review < block")
	}

	if len(errs) > 0 {
		return eris.Errorf("risk: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
