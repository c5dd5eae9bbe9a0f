package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agriguard/subsidy-cli/internal/ingest"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import registry data from CSV or XLSX files",
	Long: `Load farmer, dealer, and relationship records into the store.

Files may be CSV or XLSX; headers are matched case-insensitively and land
sizes given in acres are converted to hectares on the way in. Re-importing
a file updates existing farmer and dealer rows in place; relationship rows
are always appended as new history.

Examples:
  subsidy-cli import --farmers farmers.csv --dealers dealers.xlsx
  subsidy-cli import --relationships dealer_farmer.csv`,
	RunE: runImport,
}

func init() {
	f := importCmd.Flags()
	f.String("farmers", "", "farmer registry file")
	f.String("dealers", "", "dealer registry file")
	f.String("relationships", "", "dealer-farmer relationship file")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	farmers, _ := cmd.Flags().GetString("farmers")
	dealers, _ := cmd.Flags().GetString("dealers")
	relationships, _ := cmd.Flags().GetString("relationships")
	if farmers == "" && dealers == "" && relationships == "" {
		return eris.New("import: pass at least one of --farmers, --dealers, --relationships")
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}

	log := zap.L().With(zap.String("command", "import"))

	if farmers != "" {
		n, err := ingest.ImportFarmers(ctx, st, farmers)
		if err != nil {
			return err
		}
		log.Info("farmers imported", zap.String("file", farmers), zap.Int("rows", n))
	}
	if dealers != "" {
		n, err := ingest.ImportDealers(ctx, st, dealers)
		if err != nil {
			return err
		}
		log.Info("dealers imported", zap.String("file", dealers), zap.Int("rows", n))
	}
	if relationships != "" {
		n, err := ingest.ImportRelationships(ctx, st, relationships)
		if err != nil {
			return err
		}
		log.Info("relationships imported", zap.String("file", relationships), zap.Int("rows", n))
	}

	return nil
}
