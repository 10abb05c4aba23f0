package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Backfill missing capacity fields on location records",
	Long: `Scan all locations and backfill any missing maxWeight (from the level
ceiling) or status (derived from the stored weight). Writes only the
records that need correction; rerunning on a consistent set is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		defer d.close()

		repaired, err := d.transactions().RepairLocations(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("repaired %d locations\n", repaired)
		return nil
	},
}
