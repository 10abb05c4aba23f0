package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	setupRow      string
	setupBayStart int
	setupBayEnd   int
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Generate the location grid for a row and bay range",
	Long: `Generate and persist warehouse locations for one row across a bay
range. Each bay gets every configured level and three slots per level;
maximum weights are seeded from the level ceilings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		defer d.close()

		locations, err := d.locations().SetupRow(context.Background(), setupRow, setupBayStart, setupBayEnd)
		if err != nil {
			return err
		}

		fmt.Printf("created %d locations (%s%02d..%s%02d)\n",
			len(locations), setupRow, setupBayStart, setupRow, setupBayEnd)
		return nil
	},
}

func init() {
	setupCmd.Flags().StringVar(&setupRow, "row", "", "row letter (A-G)")
	setupCmd.Flags().IntVar(&setupBayStart, "bay-start", 1, "first bay number")
	setupCmd.Flags().IntVar(&setupBayEnd, "bay-end", 1, "last bay number")
	setupCmd.MarkFlagRequired("row")
}
