package cmd

import (
	"fmt"
	"os"

	"bulkmerge/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "bulkmerge",
	Short: "Bulk merge engine",
	Long: `bulkmerge writes large collections of records to a relational database as inserts
or updates in batches, and cascades generated keys from parent rows into their children.

It ships an invoice demo that can run from the command line or over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// console at debug level for readable timestamps
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
