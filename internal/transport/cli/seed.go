package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo corpus",
	Long:  `Creates the demo documents. Documents whose content already exists are skipped.`,
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	if seedService == nil {
		return errors.New("seed service not configured")
	}

	rep, err := seedService.SeedDemo(cmd.Context())
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	cmd.Printf("Seeded demo corpus: %d created, %d skipped\n", rep.Created, rep.Skipped)
	return nil
}
