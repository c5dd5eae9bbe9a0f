package risk

import (
	"strings"

	"github.com/agriguard/subsidy-cli/internal/config"
	"github.com/agriguard/subsidy-cli/internal/model"
	"github.com/agriguard/subsidy-cli/internal/reference"
)

// Reason strings are part of the caller contract: the kiosk and dashboard
// display them verbatim, and back-office tooling greps for them.
const (
	ReasonFarmerMissing        = "Farmer not in government registry"
	ReasonDealerMissing        = "Dealer not in government registry"
	ReasonLicenseInactive      = "Dealer license inactive"
	ReasonNoDeclaredCrop       = "No crop declared in government record"
	ReasonNoRegisteredCrop     = "No crop registered in government data"
	ReasonCropMismatch         = "Entered crop does not match government record"
	ReasonCropUnrecognized     = "Crop not recognized"
	ReasonSoilUnrecognized     = "Soil type not recognized"
	ReasonCropSoilMismatch     = "Crop–soil mismatch"
	ReasonVillageMismatch      = "Village mismatch"
	ReasonNoRelationship       = "Dealer not authorised for this farmer"
	ReasonInactiveRelationship = "Inactive dealer–farmer relationship"
	ReasonTxnLimitExceeded     = "Exceeded transaction limit"
	ReasonQuantityExtreme      = "Extremely excessive fertilizer"
	ReasonQuantityExcess       = "Excess fertility use"
	ReasonQuantitySlight       = "Slight overuse"
	ReasonQuantityLow          = "Unusually low usage"
	ReasonQuantityUnassessable = "Cannot assess fertilizer quantity"
)

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// identityRisk scores presence of the farmer and dealer in the registry, and
// the dealer's license state. An unverifiable dealer outweighs an
// unverifiable farmer: dealers control disbursement.
func identityRisk(farmer *model.Farmer, dealer *model.Dealer, cfg config.RiskConfig) (int, []string) {
	score := 0
	var reasons []string

	if farmer == nil {
		score += cfg.FarmerMissingWeight
		reasons = append(reasons, ReasonFarmerMissing)
	}

	if dealer == nil {
		score += cfg.DealerMissingWeight
		reasons = append(reasons, ReasonDealerMissing)
	} else if !dealer.LicenseActive {
		score += cfg.LicenseInactiveWeight
		reasons = append(reasons, ReasonLicenseInactive)
	}

	return score, reasons
}

// declaredCrop resolves the farmer's declared crop: kharif if present, else
// rabi, else none. Either season satisfies the check.
func declaredCrop(farmer *model.Farmer) string {
	if c := strings.TrimSpace(farmer.KharifCrop); c != "" {
		return c
	}
	return strings.TrimSpace(farmer.RabiCrop)
}

// declaredCropRisk flags a registry record with no crop in either season.
func declaredCropRisk(farmer *model.Farmer, cfg config.RiskConfig) (int, []string) {
	if declaredCrop(farmer) == "" {
		return cfg.NoDeclaredCropWeight, []string{ReasonNoDeclaredCrop}
	}
	return 0, nil
}

// cropMatchRisk compares the claimed crop against either season's declared
// crop. A silent registry is scored lower than an outright mismatch.
func cropMatchRisk(claimedCrop string, farmer *model.Farmer, cfg config.RiskConfig) (int, []string) {
	entered := norm(claimedCrop)
	kharif := norm(farmer.KharifCrop)
	rabi := norm(farmer.RabiCrop)

	if entered != "" && (entered == kharif || entered == rabi) {
		return 0, nil
	}

	if kharif == "" && rabi == "" {
		return cfg.NoRegisteredCropWeight, []string{ReasonNoRegisteredCrop}
	}

	return cfg.CropMismatchWeight, []string{ReasonCropMismatch}
}

// cropValidityRisk flags a claimed crop outside the supported set.
func cropValidityRisk(claimedCrop string, tables *reference.Tables, cfg config.RiskConfig) (int, []string) {
	if !tables.CropSupported(claimedCrop) {
		return cfg.CropUnrecognizedWeight, []string{ReasonCropUnrecognized}
	}
	return 0, nil
}

// soilValidityRisk flags a registered soil type outside the supported set.
func soilValidityRisk(soil string, tables *reference.Tables, cfg config.RiskConfig) (int, []string) {
	if !tables.SoilSupported(soil) {
		return cfg.SoilUnrecognizedWeight, []string{ReasonSoilUnrecognized}
	}
	return 0, nil
}

// cropSoilRisk flags a supported crop claimed on an incompatible soil. Crops
// outside the supported set are not evaluated here; the validity check
// already covers them.
func cropSoilRisk(claimedCrop, soil string, tables *reference.Tables, cfg config.RiskConfig) (int, []string) {
	compatible, known := tables.Compatible(claimedCrop, soil)
	if known && !compatible {
		return cfg.CropSoilMismatchWeight, []string{ReasonCropSoilMismatch}
	}
	return 0, nil
}

// locationRisk flags a farmer and dealer registered in different villages.
// Subsidized dealers are expected to serve local farmers.
func locationRisk(farmerVillage, dealerVillage string, cfg config.RiskConfig) (int, []string) {
	if norm(farmerVillage) != norm(dealerVillage) {
		return cfg.VillageMismatchWeight, []string{ReasonVillageMismatch}
	}
	return 0, nil
}

// relationshipRisk scores the authorization row's status and the pair's
// claim-history size against its per-year cap.
func relationshipRisk(rel *model.Relationship, historyCount int, cfg config.RiskConfig) (int, []string) {
	score := 0
	var reasons []string

	if rel.Status != model.RelationshipActive {
		score += cfg.InactiveRelationshipWeight
		reasons = append(reasons, ReasonInactiveRelationship)
	}

	if historyCount > rel.MaxTxnsPerYear {
		score += cfg.TxnLimitWeight
		reasons = append(reasons, ReasonTxnLimitExceeded)
	}

	return score, reasons
}

// expectedFertilizerKg computes land_hectares x rate[crop][soil]. The rate is
// looked up by the claimed crop (what the subsidy is for), falling back to the
// registry's declared crop when the claimed crop has no rate entry. ok is
// false when no rate resolves or the result is non-positive.
func expectedFertilizerKg(claimedCrop string, farmer *model.Farmer, tables *reference.Tables) (float64, bool) {
	rate, found := tables.Rate(claimedCrop, farmer.SoilType)
	if !found {
		rate, found = tables.Rate(declaredCrop(farmer), farmer.SoilType)
	}
	if !found {
		return 0, false
	}

	expected := farmer.LandHectares * rate
	if expected <= 0 {
		return 0, false
	}
	return expected, true
}

// quantityRisk scores the claimed/expected ratio against the configured
// bands, high bands first. Bands are mutually exclusive; a ratio exactly on
// an upper edge belongs to the band below it.
func quantityRisk(expectedKg, claimedKg float64, cfg config.RiskConfig) (int, []string) {
	ratio := claimedKg / expectedKg

	switch {
	case ratio > cfg.ExtremeRatio:
		return cfg.QuantityExtremeWeight, []string{ReasonQuantityExtreme}
	case ratio > cfg.ExcessRatio:
		return cfg.QuantityExcessWeight, []string{ReasonQuantityExcess}
	case ratio > cfg.SlightRatio:
		return cfg.QuantitySlightWeight, []string{ReasonQuantitySlight}
	case ratio < cfg.LowRatio:
		return cfg.QuantityLowWeight, []string{ReasonQuantityLow}
	default:
		return 0, nil
	}
}
