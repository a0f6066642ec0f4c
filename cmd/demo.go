package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"bulkmerge/core/merge"
	"bulkmerge/feature/invoice"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var demoOpts = invoice.DefaultOptions()

// demoCmd runs one invoice scenario against the configured database.
var demoCmd = &cobra.Command{
	Use:   "demo <scenario>",
	Short: "Run an invoice demo scenario",
	Long: `Recreates the invoice demo tables, seeds them and runs one scenario:

  single       update invoice 1
  many         update every invoice and insert --new more
  one-to-one   merge invoices, then their details
  one-to-many  merge invoices, then their items

Examples:
  bulkmerge demo many
  bulkmerge demo one-to-many --seed 1000 --new 500 --items 3`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: scenarioNames(),
	RunE:      runDemo,
}

func init() {
	demoCmd.Flags().IntVar(&demoOpts.Seed, "seed", demoOpts.Seed, "Number of invoices seeded before the run")
	demoCmd.Flags().IntVar(&demoOpts.New, "new", demoOpts.New, "Number of invoices added by the run")
	demoCmd.Flags().IntVar(&demoOpts.Items, "items", demoOpts.Items, "Number of items per invoice")

	RootCmd.AddCommand(demoCmd)
}

func scenarioNames() []string {
	var names []string
	for _, s := range invoice.Scenarios() {
		names = append(names, string(s))
	}
	return names
}

func runDemo(cmd *cobra.Command, args []string) error {
	scenario, err := invoice.ParseScenario(args[0])
	if err != nil {
		return err
	}

	rt, err := bootstrap()
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := invoice.NewService(rt.engine, rt.reporter, rt.lister(), rt.logger)
	res, err := svc.Run(ctx, scenario, demoOpts)

	var partial *merge.PartialFailure
	if errors.As(err, &partial) {
		rt.logger.Error("Merge partially failed",
			zap.String("table", partial.Table),
			zap.Ints("failed_rows", partial.Failed()),
			zap.Int("failed", res.Counts.Failed),
		)
	}
	return err
}
