package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agriguard/subsidy-cli/internal/model"
)

func TestDecideBands(t *testing.T) {
	cfg := DefaultRiskConfig()

	tests := []struct {
		score int
		want  model.Decision
	}{
		{0, model.DecisionApprove},
		{30, model.DecisionApprove},
		{31, model.DecisionMonitor},
		{50, model.DecisionMonitor},
		{60, model.DecisionMonitor},
		{61, model.DecisionReview},
		{80, model.DecisionReview},
		{81, model.DecisionBlock},
		{140, model.DecisionBlock},
	}

	for _, tt := range tests {
		assert.Equalf(t, tt.want, Decide(tt.score, cfg), "score %d", tt.score)
	}
}

func TestDecideMonotonic(t *testing.T) {
	cfg := DefaultRiskConfig()
	rank := map[model.Decision]int{
		model.DecisionApprove: 0,
		model.DecisionMonitor: 1,
		model.DecisionReview:  2,
		model.DecisionBlock:   3,
	}

	prev := rank[Decide(0, cfg)]
	for score := 1; score <= 200; score++ {
		cur := rank[Decide(score, cfg)]
		assert.GreaterOrEqualf(t, cur, prev, "decision softened at score %d", score)
		prev = cur
	}
}
