package cmd

import (
	"fmt"
	"os"

	"github.com/whaleen/warehouse-sub004/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "warehouse",
	Short: "Warehouse Inventory Service",
	Long: `Warehouse inventory reconciliation and scan-matching service.
It merges ERP inventory exports into the local store, manages loads and
scanning sessions, and resolves operator scans against the unscanned pool.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format at debug level so CLI errors come out readable
		// with ISO8601 timestamps instead of epoch.
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
