package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/whaleen/warehouse-sub004/core/config"
	"github.com/whaleen/warehouse-sub004/core/database"
	"github.com/whaleen/warehouse-sub004/core/events"
	"github.com/whaleen/warehouse-sub004/core/loader"
	"github.com/whaleen/warehouse-sub004/core/lock"
	"github.com/whaleen/warehouse-sub004/core/logger"
	"github.com/whaleen/warehouse-sub004/core/middleware/auth"
	"github.com/whaleen/warehouse-sub004/core/middleware/rayid"
	"github.com/whaleen/warehouse-sub004/core/storage"

	"github.com/whaleen/warehouse-sub004/feature/inventory"
	inventorymodels "github.com/whaleen/warehouse-sub004/feature/inventory/models"
	"github.com/whaleen/warehouse-sub004/feature/ledger"
	ledgermodels "github.com/whaleen/warehouse-sub004/feature/ledger/models"
	"github.com/whaleen/warehouse-sub004/feature/loads"
	loadmodels "github.com/whaleen/warehouse-sub004/feature/loads/models"
	"github.com/whaleen/warehouse-sub004/feature/reconcile"
	reconcilemodels "github.com/whaleen/warehouse-sub004/feature/reconcile/models"
	"github.com/whaleen/warehouse-sub004/feature/sessions"
	sessionmodels "github.com/whaleen/warehouse-sub004/feature/sessions/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/whaleen/warehouse-sub004/docs/swagger"
)

// @title Warehouse Inventory API
// @version 1.0
// @description API for inventory reconciliation, loads and scanning sessions.
// @host localhost:8080
// @BasePath /

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the warehouse inventory server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		if !cfg.Server.Validate() {
			log.Fatalf("Invalid configuration: server.warehouse must not be empty")
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)
		logg = logg.With(zap.String("warehouse", cfg.Server.Warehouse))

		// 3. Connect to Database
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Failed to connect to database", zap.Error(err))
		}
		if missing := database.MissingTables(db,
			"inventory_records", "loads", "conversion_entries",
			"scanning_sessions", "session_scans", "change_entries", "conflicts",
		); len(missing) > 0 {
			logg.Warn("Creating missing tables", zap.Strings("tables", missing))
		}
		if err := db.AutoMigrate(
			&inventorymodels.InventoryRecord{},
			&loadmodels.Load{},
			&ledgermodels.ConversionEntry{},
			&sessionmodels.ScanningSession{},
			&sessionmodels.SessionScan{},
			&reconcilemodels.ChangeEntry{},
			&reconcilemodels.Conflict{},
		); err != nil {
			logg.Fatal("Failed to migrate schema", zap.Error(err))
		}

		// 4. Event Bus + Run Locks (Redis, or in-process when disabled)
		var bus events.Bus = events.Nop{}
		var locker lock.Locker = lock.NewMemory()
		if cfg.Redis.Enabled {
			client, err := events.NewRedisClient(cfg.Redis)
			if err != nil {
				logg.Fatal("Failed to connect to redis", zap.Error(err))
			}
			bus = events.NewRedisBus(client, cfg.Redis.Channel, logg)
			locker = lock.NewRedis(client)
			logg.Info("Connected to redis", zap.String("addr", cfg.Redis.Addr))
		}

		// 5. Storage (ERP export source)
		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			logg.Fatal("Failed to create storage client", zap.Error(err))
		}
		source := reconcile.NewObjectSource(store, cfg.Storage)

		// 6. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// 7. Register Features
		warehouse := cfg.Server.Warehouse
		mgr := loader.NewManager()

		inventoryFeature := inventory.NewFeature(db, logg, bus, warehouse)
		loadsFeature := loads.NewFeature(db, logg, bus, warehouse)
		mgr.Register(inventoryFeature)
		mgr.Register(loadsFeature)
		mgr.Register(ledger.NewFeature(db, logg, bus, loadsFeature.Service(), warehouse))
		sessionsFeature := sessions.NewFeature(db, logg, bus, loadsFeature.Service(), warehouse)
		mgr.Register(sessionsFeature)
		mgr.Register(reconcile.NewFeature(db, logg, bus, locker, source,
			loadsFeature.Service(), sessionsFeature.Service(), warehouse))

		// Middleware Registration
		// RayID first so everything downstream is traceable.
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Swagger Documentation (Public)
		app.Get("/swagger/*", swagger.HandlerDefault)

		// Auth (Protect API)
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// 8. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 9. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 10. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
