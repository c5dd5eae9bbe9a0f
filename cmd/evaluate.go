package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/agriguard/subsidy-cli/internal/model"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate one subsidy claim",
	Long: `Evaluate a single fertilizer-subsidy claim against the registry.

Examples:
  # Kiosk-style check
  subsidy-cli evaluate --farmer FAR000042 --dealer DEA0007 --crop Rice

  # JSON output for the dashboard
  subsidy-cli evaluate --farmer FAR000042 --dealer DEA0007 --crop Wheat --format json`,
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.String("farmer", "", "farmer id (required)")
	f.String("dealer", "", "dealer id (required)")
	f.String("crop", "", "claimed crop (required)")
	f.String("village", "", "village asserted by the reviewer")
	f.Float64("land-hectares", 0, "land size asserted by the reviewer, in hectares")
	f.String("format", "receipt", "output format: receipt or json")
	_ = evaluateCmd.MarkFlagRequired("farmer")
	_ = evaluateCmd.MarkFlagRequired("dealer")
	_ = evaluateCmd.MarkFlagRequired("crop")

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	format, _ := cmd.Flags().GetString("format")
	if format != "receipt" && format != "json" {
		return eris.Errorf("evaluate: --format must be receipt or json (got %q)", format)
	}

	engine, st, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	farmer, _ := cmd.Flags().GetString("farmer")
	dealer, _ := cmd.Flags().GetString("dealer")
	crop, _ := cmd.Flags().GetString("crop")
	village, _ := cmd.Flags().GetString("village")
	land, _ := cmd.Flags().GetFloat64("land-hectares")

	claim := model.ClaimInput{
		FarmerID:     farmer,
		DealerID:     dealer,
		Crop:         crop,
		Village:      village,
		LandHectares: land,
	}

	res, err := engine.Evaluate(ctx, claim)
	if err != nil {
		return eris.Wrap(err, "evaluate")
	}

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(res), "evaluate: encode result")
	}

	printReceipt(os.Stdout, claim, res)
	return nil
}
