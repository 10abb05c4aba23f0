package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print dashboard counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		defer d.close()

		stats, err := d.stats().Dashboard(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("total items:    %d\n", stats.TotalItems)
		fmt.Printf("goods in today: %d\n", stats.GoodsInToday)
		fmt.Printf("picks today:    %d\n", stats.PicksToday)
		return nil
	},
}
