package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ElodielAirea/WoWAnalyzer/internal/config"
	"github.com/ElodielAirea/WoWAnalyzer/internal/modules"
	"github.com/ElodielAirea/WoWAnalyzer/internal/replay"
	"github.com/ElodielAirea/WoWAnalyzer/internal/repository"
	"github.com/ElodielAirea/WoWAnalyzer/internal/server"
	"github.com/ElodielAirea/WoWAnalyzer/internal/session"
	"github.com/ElodielAirea/WoWAnalyzer/internal/spellbook"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting analyzer server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	store, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to open report store", zap.Error(err))
	}
	defer store.Close()

	spells, err := loadSpells(ctx, cfg.Spellbook, store, logger)
	if err != nil {
		logger.Fatal("failed to load spellbook", zap.Error(err))
	}

	runner := session.NewRunner(modules.All(), spells, logger)
	recorder := replay.NewRecorder(logger, cfg.Replay.Directory)
	logger.Info("replay directory configured", zap.String("directory", recorder.Directory()))

	hub := server.NewHub(server.OriginChecker(cfg.Server.AllowedOrigins), logger)
	go hub.Run(ctx)

	svc := server.NewAnalyzerService(runner, recorder, store, hub, logger)

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddress,
		Handler: server.NewRouter(server.NewHandler(svc, logger), hub, cfg.Server.AllowedOrigins),
	}

	grpcServer, healthServer := server.NewGRPCServer(svc, logger)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddress)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}

	go func() {
		logger.Info("starting gRPC server", zap.String("address", cfg.Server.GRPCAddress))
		if serveErr := grpcServer.Serve(lis); serveErr != nil {
			logger.Error("gRPC server error", zap.Error(serveErr))
		}
	}()

	go func() {
		logger.Info("starting HTTP server", zap.String("address", cfg.Server.HTTPAddress))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(serveErr))
		}
	}()

	logger.Info("analyzer server initialized",
		zap.String("version", version),
		zap.String("grpc_address", cfg.Server.GRPCAddress),
		zap.String("http_address", cfg.Server.HTTPAddress),
		zap.String("database_driver", cfg.Database.Driver),
		zap.Int("modules", len(modules.All())),
	)

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	healthServer.SetServingStatus(server.AnalyzerServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown did not complete", zap.Error(err))
	}

	cancel()
	grpcServer.GracefulStop()

	logger.Info("analyzer server stopped")
}

// loadSpells builds the spellbook: the built-in table, then a JSON file, then
// the Postgres spells table, each overriding the previous.
func loadSpells(ctx context.Context, cfg config.SpellbookConfig, store repository.Store, logger *zap.Logger) (*spellbook.Table, error) {
	table := spellbook.Builtin()

	if cfg.Path != "" {
		fromFile, err := spellbook.LoadFile(cfg.Path)
		if err != nil {
			return nil, err
		}
		table = table.Merge(fromFile)
		logger.Info("loaded spellbook file", zap.String("path", cfg.Path), zap.Int("count", fromFile.Len()))
	}

	if cfg.FromDatabase {
		pg, ok := store.(*repository.PostgresStore)
		if !ok {
			return nil, fmt.Errorf("spellbook.from_database requires the postgres driver")
		}
		fromDB, err := pg.LoadSpells(ctx)
		if err != nil {
			return nil, err
		}
		table = table.Merge(fromDB)
	}

	return table, nil
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
