package risk

import (
	"github.com/agriguard/subsidy-cli/internal/config"
	"github.com/agriguard/subsidy-cli/internal/model"
)

// Decide maps an aggregate score to its decision. Total and monotonic: every
// non-negative score lands in exactly one band, and a higher score never
// yields a softer decision. Thresholds are exclusive on the low side, so a
// score of exactly 60 is MONITOR and exactly 80 is REVIEW.
func Decide(score int, cfg config.RiskConfig) model.Decision {
	switch {
	case score > cfg.BlockAbove:
		return model.DecisionBlock
	case score > cfg.ReviewAbove:
		return model.DecisionReview
	case score > cfg.MonitorAbove:
		return model.DecisionMonitor
	default:
		return model.DecisionApprove
	}
}
