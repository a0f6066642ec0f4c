package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var reportsScenario string

// reportsCmd lists the results uploaded to the storage bucket.
var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List uploaded merge reports",
	Long:  `Lists the merge reports uploaded to the storage bucket. Requires report.upload to be enabled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		if rt.store == nil {
			return errors.New("report upload is disabled (set REPORT_UPLOAD=true)")
		}
		keys, err := rt.store.List(context.Background(), reportsScenario)
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}
		return nil
	},
}

func init() {
	reportsCmd.Flags().StringVar(&reportsScenario, "scenario", "", "Only list reports of this scenario")
	RootCmd.AddCommand(reportsCmd)
}
