// Package seed generates a synthetic registry for demos and integration
// tests. Output is deterministic for a given seed value.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/agriguard/subsidy-cli/internal/model"
	"github.com/agriguard/subsidy-cli/internal/reference"
	"github.com/agriguard/subsidy-cli/internal/store"
)

// Options controls the size and randomness of the generated registry.
type Options struct {
	Farmers       int
	Dealers       int
	Relationships int
	Seed          int64
}

// DefaultOptions mirrors the sample dataset shipped with the kiosk demo.
func DefaultOptions() Options {
	return Options{Farmers: 100, Dealers: 20, Relationships: 500, Seed: 42}
}

var villages = []string{"Rampur Village", "Keshavpur", "GreenVillage"}

// Populate fills a store with synthetic farmers, dealers, and relationship
// history. A small fraction of records is deliberately dirty (inactive
// licenses, missing crops, oversized claims) so demo evaluations exercise
// every risk factor.
func Populate(ctx context.Context, st store.Store, opts Options) error {
	rng := rand.New(rand.NewSource(opts.Seed))
	tables := reference.Default()

	for i := 1; i <= opts.Farmers; i++ {
		f := model.Farmer{
			ID:           fmt.Sprintf("FAR%06d", i),
			Village:      villages[rng.Intn(len(villages))],
			LandHectares: reference.AcresToHectares(0.5 + rng.Float64()*19.5),
			KharifCrop:   tables.Crops[rng.Intn(len(tables.Crops))],
			SoilType:     tables.Soils[rng.Intn(len(tables.Soils))],
			PhoneNo:      fmt.Sprintf("9%09d", rng.Intn(1_000_000_000)),
		}
		// Every tenth farmer has only a rabi crop; every twentieth has none.
		if i%10 == 0 {
			f.RabiCrop = f.KharifCrop
			f.KharifCrop = ""
		}
		if i%20 == 0 {
			f.KharifCrop = ""
			f.RabiCrop = ""
		}
		if err := st.UpsertFarmer(ctx, f); err != nil {
			return eris.Wrapf(err, "seed: farmer %s", f.ID)
		}
	}

	for i := 1; i <= opts.Dealers; i++ {
		d := model.Dealer{
			ID:            fmt.Sprintf("DEA%04d", i),
			Name:          fmt.Sprintf("Dealer %d", i),
			Village:       villages[rng.Intn(len(villages))],
			LicenseActive: i%7 != 0,
		}
		if err := st.UpsertDealer(ctx, d); err != nil {
			return eris.Wrapf(err, "seed: dealer %s", d.ID)
		}
	}

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < opts.Relationships; i++ {
		status := model.RelationshipActive
		if rng.Intn(10) == 0 {
			status = model.RelationshipInactive
		}
		r := model.Relationship{
			DealerID:       fmt.Sprintf("DEA%04d", 1+rng.Intn(opts.Dealers)),
			FarmerID:       fmt.Sprintf("FAR%06d", 1+rng.Intn(opts.Farmers)),
			Status:         status,
			ClaimedKg:      100 + rng.Float64()*4900,
			MaxTxnsPerYear: 2 + rng.Intn(6),
			RecordedAt:     start.AddDate(0, 0, i%365),
		}
		if err := st.AddRelationship(ctx, r); err != nil {
			return eris.Wrapf(err, "seed: relationship %s/%s", r.DealerID, r.FarmerID)
		}
	}

	zap.L().Info("seed: registry populated",
		zap.Int("farmers", opts.Farmers),
		zap.Int("dealers", opts.Dealers),
		zap.Int("relationships", opts.Relationships),
	)
	return nil
}
