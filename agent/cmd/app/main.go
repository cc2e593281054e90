package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"dexscanner-monitor/agent/database"
	"dexscanner-monitor/agent/internal/handlers"
	"dexscanner-monitor/agent/internal/services"
	"dexscanner-monitor/shared/config"
	"dexscanner-monitor/shared/env"
	"dexscanner-monitor/shared/logger"
	"dexscanner-monitor/shared/notifications"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func startHeartbeat(appLogger *logger.Logger) {
	go func() {
		ticker := time.NewTicker(8 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			appLogger.Info("Heartbeat: Monitor running...")
		}
	}()
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Panicf("FATAL PANIC RECOVERY: %v", r)
		}
	}()

	if err := env.LoadEnv(); err != nil {
		log.Fatalf("FATAL: Failed to load environment variables: %v", err)
	}
	log.Println("INFO: Environment variables loaded via shared/env.")

	cfg, errCfg := config.LoadConfig("agent/config.yaml")
	if errCfg != nil {
		log.Fatalf("FATAL: Failed to load agent/config.yaml: %v", errCfg)
	}
	config.SetGlobalConfig(cfg)

	enableTelegramLogging := env.TelegramBotToken != "" && env.TelegramGroupID != 0
	loggerCfg := logger.Config{
		Level:          cfg.Logging.Level,
		Environment:    cfg.App.Environment,
		EnableTelegram: enableTelegramLogging,
	}
	appLogger, err := logger.NewLogger(loggerCfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	appLogger.Info("Application logger initialized successfully.")

	store := buildStore(appLogger)

	log.Println("INFO: Initializing Telegram notifications...")
	if err := notifications.InitTelegramBot(); err != nil {
		log.Printf("WARN: Failed to initialize Telegram Bot, proceeding without alert delivery: %v", err)
	} else {
		log.Println("INFO: Telegram notifications initialized.")
	}

	api := services.NewDexscannerClient(cfg.API, cfg.Monitor.Chain, appLogger)
	notifier := services.TelegramNotifier{}

	discovery := services.NewDiscoveryService(api, store, notifier, cfg.Monitor.CheckInterval(), appLogger)
	performance := services.NewPerformanceService(api, store, notifier, services.PerformanceConfig{
		Interval:        cfg.Monitor.PerformanceInterval(),
		ErrorBackoff:    cfg.Monitor.PerformanceInterval() * 2,
		Retention:       cfg.Monitor.Retention(),
		CheckpointHours: cfg.Monitor.CheckpointHours,
		Tolerance:       cfg.Monitor.CheckpointTolerance(),
	}, appLogger)

	appLogger.Info("Setting up web server...")
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	router.Use(cors.New(corsConfig))

	handlers.RegisterRoutes(router, store, cfg, appLogger)
	appLogger.Info("Web server and API routes registered.")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Starting monitoring loops...")
	go discovery.Run(ctx)
	go performance.Run(ctx)

	go func() {
		serverAddr := ":" + env.Port
		appLogger.Info("Starting web server", zap.String("address", serverAddr))
		if err := router.Run(serverAddr); err != nil {
			appLogger.Fatal("Could not start web server.", zap.Error(err))
		}
	}()

	appLogger.Info("Starting heartbeat monitor.")
	startHeartbeat(appLogger)

	appLogger.Info("Monitor startup complete. Watching for new listings...")
	<-ctx.Done()
	appLogger.Info("Shutdown signal received, stopping monitor.")
}

// buildStore connects to postgres when configured and falls back to the
// in-memory store otherwise so the monitor can still run without durability.
func buildStore(appLogger *logger.Logger) database.TokenStore {
	dsn := env.DATABASE_URL
	if dsn == "" && env.PGHOST != "" {
		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			env.PGHOST, env.PGUSER, env.PGPASSWORD, env.PGDATABASE, env.PGPORT)
		appLogger.Info("Constructed Database DSN using PG* variables (password hidden)")
	}

	if dsn == "" {
		appLogger.Warn("No database configured, using in-memory tracking. State is lost on restart.")
		return database.NewMemoryStore()
	}

	appLogger.Info("Connecting to database...")
	db, err := database.ConnectToDatabase(dsn)
	if err != nil {
		appLogger.Fatal("Database connection failed", zap.Error(err))
	}
	appLogger.Info("Database connection established successfully.")

	appLogger.Info("Running database migrations...")
	if err := database.MigrateDatabase(db, dsn); err != nil {
		appLogger.Fatal("Database migrations failed", zap.Error(err))
	}
	appLogger.Info("Database migrations completed.")

	return database.NewGormStore(db)
}
