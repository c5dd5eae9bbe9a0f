package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriguard/subsidy-cli/internal/model"
	"github.com/agriguard/subsidy-cli/internal/store"
)

func TestClaimForPair(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	require.NoError(t, st.UpsertFarmer(ctx, model.Farmer{
		ID: "FAR000001", Village: "Rampur Village", KharifCrop: "Rice", RabiCrop: "Wheat",
	}))
	require.NoError(t, st.UpsertFarmer(ctx, model.Farmer{
		ID: "FAR000002", Village: "Keshavpur", RabiCrop: "Oats",
	}))

	claim, err := claimForPair(ctx, st, store.Pair{DealerID: "DEA0001", FarmerID: "FAR000001"})
	require.NoError(t, err)
	assert.Equal(t, "Rice", claim.Crop)

	// Rabi crop when there is no kharif crop.
	claim, err = claimForPair(ctx, st, store.Pair{DealerID: "DEA0001", FarmerID: "FAR000002"})
	require.NoError(t, err)
	assert.Equal(t, "Oats", claim.Crop)

	// Unknown farmer still yields an evaluable claim.
	claim, err = claimForPair(ctx, st, store.Pair{DealerID: "DEA0001", FarmerID: "FAR999999"})
	require.NoError(t, err)
	assert.Equal(t, "FAR999999", claim.FarmerID)
	assert.Empty(t, claim.Crop)
}

func TestWriteBatchCSV(t *testing.T) {
	expected, claimed := 600.0, 1800.0
	rows := []batchRow{
		{
			claim: model.ClaimInput{DealerID: "DEA0001", FarmerID: "FAR000001", Crop: "Rice"},
			result: &model.RiskResult{
				RiskScore: 60, Decision: model.DecisionMonitor,
				ExpectedFertilizerKg: &expected, ClaimedFertilizerKg: &claimed,
				Reasons: []string{"Village mismatch", "Extremely excessive fertilizer"},
			},
		},
		{
			claim: model.ClaimInput{DealerID: "DEA0002", FarmerID: "FAR000002", Crop: "Wheat"},
			result: &model.RiskResult{
				RiskScore: 0, Decision: model.DecisionApprove,
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeBatchCSV(&buf, rows))

	out := buf.String()
	assert.Contains(t, out, "dealer_id,farmer_id,crop,risk_score,decision,expected_kg,claimed_kg,reasons")
	assert.Contains(t, out, "DEA0001,FAR000001,Rice,60,MONITOR,600.00,1800.00,Village mismatch | Extremely excessive fertilizer")
	assert.Contains(t, out, "DEA0002,FAR000002,Wheat,0,APPROVE,,,")
}

func TestWriteBatchTable(t *testing.T) {
	rows := []batchRow{{
		claim: model.ClaimInput{DealerID: "DEA0001", FarmerID: "FAR000001", Crop: "Rice"},
		result: &model.RiskResult{
			RiskScore: 50, Decision: model.DecisionMonitor,
			Reasons: []string{"Dealer not authorised for this farmer"},
		},
	}}

	var buf bytes.Buffer
	writeBatchTable(&buf, rows)

	out := buf.String()
	assert.Contains(t, out, "DEALER")
	assert.Contains(t, out, "DEA0001")
	assert.Contains(t, out, "MONITOR")
	assert.Contains(t, out, "Dealer not authorised for this farmer")
}
