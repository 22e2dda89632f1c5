package cmd

import (
	"context"
	"fmt"

	"github.com/whaleen/warehouse-sub004/core/apperr"
	"github.com/whaleen/warehouse-sub004/core/config"
	"github.com/whaleen/warehouse-sub004/core/database"
	"github.com/whaleen/warehouse-sub004/core/events"
	"github.com/whaleen/warehouse-sub004/core/lock"
	"github.com/whaleen/warehouse-sub004/core/logger"
	"github.com/whaleen/warehouse-sub004/core/storage"
	inventorymodels "github.com/whaleen/warehouse-sub004/feature/inventory/models"
	"github.com/whaleen/warehouse-sub004/feature/loads"
	"github.com/whaleen/warehouse-sub004/feature/reconcile"
	"github.com/whaleen/warehouse-sub004/feature/sessions"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for reconcile inventory command
	reconcileCategory string
	reconcileActor    string
	reconcileDryRun   bool
)

// reconcileCmd is the parent command for all reconcile operations.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile inventory between the ERP export and the local store",
	Long: `Reconcile merges an ERP inventory export into the local store:
new rows are inserted, changed rows are updated with a recorded delta, and
ambiguous matches become open conflicts for an operator to resolve.`,
}

// inventoryReconcileCmd runs one reconciliation pass for a category.
var inventoryReconcileCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Run an inventory reconciliation pass for one category",
	Long: `Run one reconciliation pass over the ERP export of a category.

Examples:
  # Report what a run would do, without writing
  warehouse reconcile inventory --category salvage --dry-run

  # Run for real
  warehouse reconcile inventory --category salvage --actor jdoe`,
	RunE: runInventoryReconcile,
}

func init() {
	reconcileCmd.AddCommand(inventoryReconcileCmd)

	inventoryReconcileCmd.Flags().StringVar(&reconcileCategory, "category", "", "Category to reconcile (salvage, finished_goods, local_stock)")
	inventoryReconcileCmd.Flags().StringVar(&reconcileActor, "actor", "cli", "Actor recorded on implicit loads and spawned sessions")
	inventoryReconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "Report what the run would do without writing")
	_ = inventoryReconcileCmd.MarkFlagRequired("category")

	RootCmd.AddCommand(reconcileCmd)
}

func runInventoryReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}
	source := reconcile.NewObjectSource(client, cfg.Storage)

	var bus events.Publisher = events.Nop{}
	var locker lock.Locker = lock.NewMemory()
	if cfg.Redis.Enabled {
		redisClient, err := events.NewRedisClient(cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		bus = events.NewRedisBus(redisClient, cfg.Redis.Channel, l)
		locker = lock.NewRedis(redisClient)
	}

	registry := loads.NewService(db, l, bus)
	sessionSvc := sessions.NewService(db, l, bus, registry)
	engine := reconcile.NewService(db, l, bus, locker, source, registry, sessionSvc)

	scope := inventorymodels.Scope{
		Warehouse: cfg.Server.Warehouse,
		Category:  inventorymodels.Category(reconcileCategory),
	}
	l.Info("Starting reconciliation",
		zap.String("warehouse", scope.Warehouse),
		zap.String("category", reconcileCategory),
		zap.Bool("dry_run", reconcileDryRun))

	outcome, err := engine.Run(ctx, scope, reconcileActor, reconcileDryRun)
	if err != nil && apperr.KindOf(err) != apperr.KindPartial {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	l.Info("Reconciliation outcome",
		zap.String("run_id", outcome.RunID),
		zap.Bool("dry_run", outcome.DryRun),
		zap.Int("inserted", outcome.Inserted),
		zap.Int("updated", outcome.Updated),
		zap.Int("unchanged", outcome.Unchanged),
		zap.Int("conflicts", outcome.Conflicts),
		zap.Int("spawned_sessions", outcome.Spawned),
		zap.Int("failed_rows", len(outcome.Failed)),
	)
	for _, failure := range outcome.Failed {
		l.Warn("Failed row",
			zap.Int("index", failure.Index),
			zap.String("serial", failure.Serial),
			zap.String("cso", failure.CSO),
			zap.String("reason", failure.Reason),
		)
	}
	if err != nil {
		return fmt.Errorf("run finished with failed rows: %w", err)
	}
	return nil
}
