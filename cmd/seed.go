package main

import (
	"github.com/spf13/cobra"

	"github.com/agriguard/subsidy-cli/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the store with synthetic registry data",
	Long: `Fill the configured store with deterministic synthetic farmers,
dealers, and relationship history for demos and local testing. A small
fraction of the generated records is deliberately dirty so evaluations
exercise every risk factor.`,
	RunE: runSeed,
}

func init() {
	f := seedCmd.Flags()
	defaults := seed.DefaultOptions()
	f.Int("farmers", defaults.Farmers, "number of farmers to generate")
	f.Int("dealers", defaults.Dealers, "number of dealers to generate")
	f.Int("relationships", defaults.Relationships, "number of relationship rows to generate")
	f.Int64("rand-seed", defaults.Seed, "random seed")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}

	opts := seed.DefaultOptions()
	opts.Farmers, _ = cmd.Flags().GetInt("farmers")
	opts.Dealers, _ = cmd.Flags().GetInt("dealers")
	opts.Relationships, _ = cmd.Flags().GetInt("relationships")
	opts.Seed, _ = cmd.Flags().GetInt64("rand-seed")

	return seed.Populate(ctx, st, opts)
}
