package model

import "strings"

// Decision is the categorical recommendation derived from the aggregate score.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionMonitor Decision = "MONITOR"
	DecisionReview  Decision = "REVIEW"
	DecisionBlock   Decision = "BLOCK"
)

// ClaimInput is what the kiosk operator or reviewer asserts about a claim.
// It is checked against the registry, never persisted.
type ClaimInput struct {
	FarmerID string `json:"farmer_id"`
	DealerID string `json:"dealer_id"`
	Crop     string `json:"crop"`
	// Optional reviewer assertions; not scored directly but echoed back.
	Village      string  `json:"village,omitempty"`
	LandHectares float64 `json:"land_hectares,omitempty"`
}

// RiskResult is the outcome of one claim evaluation. Quantity fields are nil
// when the evaluation short-circuited before the quantity factor, or when the
// expected quantity could not be computed.
type RiskResult struct {
	RiskScore            int      `json:"risk_score"`
	Decision             Decision `json:"decision"`
	ExpectedFertilizerKg *float64 `json:"expected_fertilizer_kg"`
	ClaimedFertilizerKg  *float64 `json:"claimed_fertilizer_kg"`
	Reasons              []string `json:"reasons"`
}

// ReasonLine renders the reasons in display form.
func (r *RiskResult) ReasonLine() string {
	return strings.Join(r.Reasons, " | ")
}
