package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var seedValue uint64

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill an empty database with sample members",
	Long: `Create sample members and payments for demos and local testing.

Nothing is created if the database already has members. The same
--seed on the same day produces the same data.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().Uint64Var(&seedValue, "seed", 0, "random seed (default: current time)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	seed := seedValue
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	result, err := a.Seeder.Seed(cmd.Context(), seed)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if result.Skipped {
		fmt.Fprintln(out, "Database already has members; nothing seeded.")
		return nil
	}
	fmt.Fprintf(out, "Seeded %d members and %d payments (seed %d).\n", result.Members, result.Payments, seed)
	return nil
}
