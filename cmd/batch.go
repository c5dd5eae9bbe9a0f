package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agriguard/subsidy-cli/internal/model"
	"github.com/agriguard/subsidy-cli/internal/store"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Re-screen every dealer-farmer relationship in the store",
	Long: `Evaluate every dealer-farmer pair with claim history, using the
farmer's registered crop as the claimed crop. Intended for periodic back-office
sweeps over an imported registry.

Examples:
  # Full sweep, table output
  subsidy-cli batch

  # Only claims that need attention, as CSV
  subsidy-cli batch --decision REVIEW,BLOCK --format csv --output flagged.csv`,
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.String("decision", "", "comma-separated decisions to keep (e.g. REVIEW,BLOCK)")
	f.String("format", "table", "output format: table or csv")
	f.String("output", "", "output file path (default: stdout)")
	rootCmd.AddCommand(batchCmd)
}

// batchRow pairs an evaluated claim with its result for rendering.
type batchRow struct {
	claim  model.ClaimInput
	result *model.RiskResult
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "csv" {
		return eris.Errorf("batch: --format must be table or csv (got %q)", format)
	}

	keep, err := parseDecisionFilter(cmd)
	if err != nil {
		return err
	}

	engine, st, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	pairs, err := st.ListRelationshipPairs(ctx)
	if err != nil {
		return eris.Wrap(err, "batch: list pairs")
	}

	log := zap.L().With(zap.String("command", "batch"))
	log.Info("batch evaluation starting", zap.Int("pairs", len(pairs)))

	rows := make([]batchRow, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent())

	for i, pair := range pairs {
		g.Go(func() error {
			claim, err := claimForPair(gctx, st, pair)
			if err != nil {
				return err
			}
			res, err := engine.Evaluate(gctx, claim)
			if err != nil {
				return eris.Wrapf(err, "batch: evaluate %s/%s", pair.DealerID, pair.FarmerID)
			}
			rows[i] = batchRow{claim: claim, result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var kept []batchRow
	for _, row := range rows {
		if len(keep) == 0 || keep[row.result.Decision] {
			kept = append(kept, row)
		}
	}

	log.Info("batch evaluation complete",
		zap.Int("evaluated", len(rows)),
		zap.Int("reported", len(kept)),
	)

	var out io.Writer = os.Stdout
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "batch: create %s", path)
		}
		defer f.Close()
		out = f
	}

	if format == "csv" {
		return writeBatchCSV(out, kept)
	}
	writeBatchTable(out, kept)
	return nil
}

// claimForPair builds the claim input for a re-screen: the claimed crop is
// whatever the registry has on file for the farmer. A farmer with no record
// or no crop still evaluates; those are exactly the risk signals the sweep
// exists to surface.
func claimForPair(ctx context.Context, st store.Store, pair store.Pair) (model.ClaimInput, error) {
	claim := model.ClaimInput{FarmerID: pair.FarmerID, DealerID: pair.DealerID}

	farmer, err := st.FindFarmer(ctx, pair.FarmerID)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			return claim, nil
		}
		return claim, eris.Wrapf(err, "batch: resolve farmer %s", pair.FarmerID)
	}

	if c := strings.TrimSpace(farmer.KharifCrop); c != "" {
		claim.Crop = c
	} else {
		claim.Crop = strings.TrimSpace(farmer.RabiCrop)
	}
	return claim, nil
}

func parseDecisionFilter(cmd *cobra.Command) (map[model.Decision]bool, error) {
	raw, _ := cmd.Flags().GetString("decision")
	if raw == "" {
		return nil, nil
	}

	valid := map[model.Decision]bool{
		model.DecisionApprove: true,
		model.DecisionMonitor: true,
		model.DecisionReview:  true,
		model.DecisionBlock:   true,
	}

	keep := make(map[model.Decision]bool)
	for _, part := range strings.Split(raw, ",") {
		d := model.Decision(strings.ToUpper(strings.TrimSpace(part)))
		if !valid[d] {
			return nil, eris.Errorf("batch: unknown decision %q", part)
		}
		keep[d] = true
	}
	return keep, nil
}

func maxConcurrent() int {
	if cfg.Batch.MaxConcurrent > 0 {
		return cfg.Batch.MaxConcurrent
	}
	return 8
}

func writeBatchCSV(out io.Writer, rows []batchRow) error {
	w := csv.NewWriter(out)
	header := []string{"dealer_id", "farmer_id", "crop", "risk_score", "decision", "expected_kg", "claimed_kg", "reasons"}
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "batch: write csv header")
	}
	for _, row := range rows {
		rec := []string{
			row.claim.DealerID,
			row.claim.FarmerID,
			row.claim.Crop,
			strconv.Itoa(row.result.RiskScore),
			string(row.result.Decision),
			formatKg(row.result.ExpectedFertilizerKg),
			formatKg(row.result.ClaimedFertilizerKg),
			row.result.ReasonLine(),
		}
		if err := w.Write(rec); err != nil {
			return eris.Wrap(err, "batch: write csv row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "batch: flush csv")
}

func writeBatchTable(out io.Writer, rows []batchRow) {
	fmt.Fprintf(out, "%-10s %-10s %-8s %6s  %-8s  %s\n", "DEALER", "FARMER", "CROP", "SCORE", "DECISION", "REASONS")
	for _, row := range rows {
		fmt.Fprintf(out, "%-10s %-10s %-8s %6d  %-8s  %s\n",
			row.claim.DealerID,
			row.claim.FarmerID,
			row.claim.Crop,
			row.result.RiskScore,
			row.result.Decision,
			row.result.ReasonLine(),
		)
	}
}

func formatKg(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
