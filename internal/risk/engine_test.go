package risk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriguard/subsidy-cli/internal/model"
	"github.com/agriguard/subsidy-cli/internal/reference"
	"github.com/agriguard/subsidy-cli/internal/store"
)

// cleanRegistry builds a store holding one fully consistent farmer-dealer
// pair: FAR000001 grows kharif Rice on 2 ha of Alluvial soil in the same
// village as DEA0001, who holds an active license and an active relationship
// claiming exactly the expected 600 kg.
func cleanRegistry(t *testing.T) *store.MemoryStore {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemory()

	require.NoError(t, st.UpsertFarmer(ctx, model.Farmer{
		ID:           "FAR000001",
		Village:      "Rampur Village",
		LandHectares: 2,
		KharifCrop:   "Rice",
		SoilType:     "Alluvial",
	}))
	require.NoError(t, st.UpsertDealer(ctx, model.Dealer{
		ID:            "DEA0001",
		Name:          "Rampur Agro",
		Village:       "Rampur Village",
		LicenseActive: true,
	}))
	require.NoError(t, st.AddRelationship(ctx, model.Relationship{
		DealerID:       "DEA0001",
		FarmerID:       "FAR000001",
		Status:         model.RelationshipActive,
		ClaimedKg:      600,
		MaxTxnsPerYear: 3,
		RecordedAt:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}))

	return st
}

func newTestEngine(t *testing.T, st store.Store) *Engine {
	t.Helper()
	tables := reference.Default()
	require.NoError(t, tables.Validate())
	return New(st, tables, DefaultRiskConfig())
}

func TestEvaluateCleanClaim(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, cleanRegistry(t))

	res, err := engine.Evaluate(ctx, model.ClaimInput{
		FarmerID: "FAR000001", DealerID: "DEA0001", Crop: "Rice",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, res.RiskScore)
	assert.Equal(t, model.DecisionApprove, res.Decision)
	assert.Empty(t, res.Reasons)
	require.NotNil(t, res.ExpectedFertilizerKg)
	require.NotNil(t, res.ClaimedFertilizerKg)
	assert.InDelta(t, 600, *res.ExpectedFertilizerKg, 1e-9)
	assert.InDelta(t, 600, *res.ClaimedFertilizerKg, 1e-9)
}

func TestEvaluateTrimsIDs(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, cleanRegistry(t))

	res, err := engine.Evaluate(ctx, model.ClaimInput{
		FarmerID: "  FAR000001 ", DealerID: " DEA0001\t", Crop: "Rice",
	})
	require.NoError(t, err)
	assert.Equal(t, model.DecisionApprove, res.Decision)
}

func TestEvaluateUnknownFarmer(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, cleanRegistry(t))

	res, err := engine.Evaluate(ctx, model.ClaimInput{
		FarmerID: "FAR999999", DealerID: "DEA0001", Crop: "Rice",
	})
	require.NoError(t, err)

	assert.Equal(t, 60, res.RiskScore)
	assert.Equal(t, model.DecisionMonitor, res.Decision)
	assert.Equal(t, []string{ReasonFarmerMissing}, res.Reasons)
	assert.Nil(t, res.ExpectedFertilizerKg)
	assert.Nil(t, res.ClaimedFertilizerKg)
}

func TestEvaluateUnknownDealer(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, cleanRegistry(t))

	res, err := engine.Evaluate(ctx, model.ClaimInput{
		FarmerID: "FAR000001", DealerID: "DEA9999", Crop: "Rice",
	})
	require.NoError(t, err)

	// Identity is the only factor that runs; nothing downstream piles on.
	assert.Equal(t, 80, res.RiskScore)
	assert.Equal(t, model.DecisionReview, res.Decision)
	assert.Equal(t, []string{ReasonDealerMissing}, res.Reasons)
	assert.Nil(t, res.ExpectedFertilizerKg)
	assert.Nil(t, res.ClaimedFertilizerKg)
}

func TestEvaluateBothUnknown(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, store.NewMemory())

	res, err := engine.Evaluate(ctx, model.ClaimInput{
		FarmerID: "FAR999999", DealerID: "DEA9999", Crop: "Rice",
	})
	require.NoError(t, err)

	assert.Equal(t, 140, res.RiskScore)
	assert.Equal(t, model.DecisionBlock, res.Decision)
	assert.Equal(t, []string{ReasonFarmerMissing, ReasonDealerMissing}, res.Reasons)
}

func TestEvaluateNoRelationship(t *testing.T) {
	ctx := context.Background()
	st := cleanRegistry(t)
	require.NoError(t, st.UpsertDealer(ctx, model.Dealer{
		ID: "DEA0002", Name: "Second Agro", Village: "Rampur Village", LicenseActive: true,
	}))
	engine := newTestEngine(t, st)

	res, err := engine.Evaluate(ctx, model.ClaimInput{
		FarmerID: "FAR000001", DealerID: "DEA0002", Crop: "Rice",
	})
	require.NoError(t, err)

	assert.Equal(t, 50, res.RiskScore)
	assert.Equal(t, model.DecisionMonitor, res.Decision)
	assert.Equal(t, []string{ReasonNoRelationship}, res.Reasons)
	assert.Nil(t, res.ExpectedFertilizerKg)
	assert.Nil(t, res.ClaimedFertilizerKg)
}

func TestEvaluateVillageMismatchWithExtremeQuantity(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	require.NoError(t, st.UpsertFarmer(ctx, model.Farmer{
		ID: "FAR000002", Village: "Rampur Village", LandHectares: 2,
		KharifCrop: "Rice", SoilType: "Alluvial",
	}))
	require.NoError(t, st.UpsertDealer(ctx, model.Dealer{
		ID: "DEA0003", Name: "Keshavpur Agro", Village: "Keshavpur", LicenseActive: true,
	}))
	require.NoError(t, st.AddRelationship(ctx, model.Relationship{
		DealerID: "DEA0003", FarmerID: "FAR000002",
		Status: model.RelationshipActive, ClaimedKg: 1800, MaxTxnsPerYear: 3,
		RecordedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}))
	engine := newTestEngine(t, st)

	res, err := engine.Evaluate(ctx, model.ClaimInput{
		FarmerID: "FAR000002", DealerID: "DEA0003", Crop: "Rice",
	})
	require.NoError(t, err)

	// 20 for the village mismatch plus 40 for triple the expected quantity
	// lands exactly on the MONITOR/REVIEW edge, which stays MONITOR.
	assert.Equal(t, 60, res.RiskScore)
	assert.Equal(t, model.DecisionMonitor, res.Decision)
	assert.Equal(t, []string{ReasonVillageMismatch, ReasonQuantityExtreme}, res.Reasons)
}

func TestEvaluateUnassessableQuantity(t *testing.T) {
	ctx := context.Background()
	st := cleanRegistry(t)
	require.NoError(t, st.UpsertFarmer(ctx, model.Farmer{
		ID: "FAR000001", Village: "Rampur Village", LandHectares: 0,
		KharifCrop: "Rice", SoilType: "Alluvial",
	}))
	engine := newTestEngine(t, st)

	res, err := engine.Evaluate(ctx, model.ClaimInput{
		FarmerID: "FAR000001", DealerID: "DEA0001", Crop: "Rice",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, res.RiskScore)
	assert.Equal(t, model.DecisionApprove, res.Decision)
	assert.Equal(t, []string{ReasonQuantityUnassessable}, res.Reasons)
	assert.Nil(t, res.ExpectedFertilizerKg)
	require.NotNil(t, res.ClaimedFertilizerKg)
	assert.InDelta(t, 600, *res.ClaimedFertilizerKg, 1e-9)
}

func TestEvaluateLatestRelationshipWins(t *testing.T) {
	ctx := context.Background()
	st := cleanRegistry(t)
	// Older inactive row must not shadow the newer active one from
	// cleanRegistry; history count rises to 2, still within the cap.
	require.NoError(t, st.AddRelationship(ctx, model.Relationship{
		DealerID: "DEA0001", FarmerID: "FAR000001",
		Status: model.RelationshipInactive, ClaimedKg: 5000, MaxTxnsPerYear: 3,
		RecordedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}))
	engine := newTestEngine(t, st)

	res, err := engine.Evaluate(ctx, model.ClaimInput{
		FarmerID: "FAR000001", DealerID: "DEA0001", Crop: "Rice",
	})
	require.NoError(t, err)

	assert.Equal(t, model.DecisionApprove, res.Decision)
	assert.NotContains(t, res.Reasons, ReasonInactiveRelationship)
	require.NotNil(t, res.ClaimedFertilizerKg)
	assert.InDelta(t, 600, *res.ClaimedFertilizerKg, 1e-9)
}

func TestEvaluateTransactionLimit(t *testing.T) {
	ctx := context.Background()
	st := cleanRegistry(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, st.AddRelationship(ctx, model.Relationship{
			DealerID: "DEA0001", FarmerID: "FAR000001",
			Status: model.RelationshipActive, ClaimedKg: 600, MaxTxnsPerYear: 3,
			RecordedAt: time.Date(2025, 7, 1+i, 0, 0, 0, 0, time.UTC),
		}))
	}
	engine := newTestEngine(t, st)

	res, err := engine.Evaluate(ctx, model.ClaimInput{
		FarmerID: "FAR000001", DealerID: "DEA0001", Crop: "Rice",
	})
	require.NoError(t, err)

	// 4 rows against a cap of 3.
	assert.Equal(t, 30, res.RiskScore)
	assert.Equal(t, []string{ReasonTxnLimitExceeded}, res.Reasons)
}

func TestEvaluateIdempotent(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, cleanRegistry(t))
	claim := model.ClaimInput{FarmerID: "FAR000001", DealerID: "DEA0001", Crop: "Wheat"}

	first, err := engine.Evaluate(ctx, claim)
	require.NoError(t, err)
	second, err := engine.Evaluate(ctx, claim)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEvaluateStackedFactors(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	// Inactive license, no declared crop, different village, inactive
	// relationship: factors accumulate independently.
	require.NoError(t, st.UpsertFarmer(ctx, model.Farmer{
		ID: "FAR000003", Village: "Rampur Village", LandHectares: 1, SoilType: "Alluvial",
	}))
	require.NoError(t, st.UpsertDealer(ctx, model.Dealer{
		ID: "DEA0004", Village: "Keshavpur", LicenseActive: false,
	}))
	require.NoError(t, st.AddRelationship(ctx, model.Relationship{
		DealerID: "DEA0004", FarmerID: "FAR000003",
		Status: model.RelationshipInactive, ClaimedKg: 300, MaxTxnsPerYear: 3,
		RecordedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}))
	engine := newTestEngine(t, st)

	res, err := engine.Evaluate(ctx, model.ClaimInput{
		FarmerID: "FAR000003", DealerID: "DEA0004", Crop: "Rice",
	})
	require.NoError(t, err)

	// license 40 + no declared crop 30 + registry silent 30 + village 20 +
	// inactive relationship 40, then the 300 kg claim matches the Rice rate
	// exactly so quantity adds nothing.
	assert.Equal(t, 160, res.RiskScore)
	assert.Equal(t, model.DecisionBlock, res.Decision)
	assert.Equal(t, []string{
		ReasonLicenseInactive,
		ReasonNoDeclaredCrop,
		ReasonNoRegisteredCrop,
		ReasonVillageMismatch,
		ReasonInactiveRelationship,
	}, res.Reasons)
}
