package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rotisserie/eris"

	"github.com/agriguard/subsidy-cli/internal/model"
	"github.com/agriguard/subsidy-cli/internal/reference"
	"github.com/agriguard/subsidy-cli/internal/risk"
	"github.com/agriguard/subsidy-cli/internal/store"
)

// openStore creates the configured registry store backend.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.Path)
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store: postgres driver needs store.database_url (AGRIGUARD_STORE_DATABASE_URL)")
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "memory":
		return store.NewMemory(), nil
	default:
		return nil, eris.Errorf("store: unknown driver %q (want sqlite, postgres, or memory)", cfg.Store.Driver)
	}
}

// loadTables returns the reference tables, applying the configured YAML
// override file when set.
func loadTables() (*reference.Tables, error) {
	if cfg.Reference.TablesPath != "" {
		return reference.Load(cfg.Reference.TablesPath)
	}
	t := reference.Default()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// newEngine wires a risk engine from config. Caller closes the returned store.
func newEngine(ctx context.Context) (*risk.Engine, store.Store, error) {
	if err := risk.ValidateConfig(cfg.Risk); err != nil {
		return nil, nil, err
	}
	tables, err := loadTables()
	if err != nil {
		return nil, nil, err
	}
	st, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return risk.New(st, tables, cfg.Risk), st, nil
}

// printReceipt renders a RiskResult in the kiosk receipt layout.
func printReceipt(w io.Writer, claim model.ClaimInput, res *model.RiskResult) {
	fmt.Fprintln(w, "---- Claim Evaluation ----")
	fmt.Fprintf(w, "Farmer:     %s\n", claim.FarmerID)
	fmt.Fprintf(w, "Dealer:     %s\n", claim.DealerID)
	fmt.Fprintf(w, "Crop:       %s\n", claim.Crop)
	fmt.Fprintf(w, "Risk score: %d\n", res.RiskScore)
	fmt.Fprintf(w, "Decision:   %s\n", res.Decision)
	if res.ExpectedFertilizerKg != nil {
		fmt.Fprintf(w, "Expected:   %.2f kg\n", *res.ExpectedFertilizerKg)
	}
	if res.ClaimedFertilizerKg != nil {
		fmt.Fprintf(w, "Claimed:    %.2f kg\n", *res.ClaimedFertilizerKg)
	}
	if len(res.Reasons) > 0 {
		fmt.Fprintf(w, "Reasons:    %s\n", res.ReasonLine())
	}
}
