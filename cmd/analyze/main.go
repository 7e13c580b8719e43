// Command analyze runs the analysis modules over recording files and prints
// a text report per recording.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ElodielAirea/WoWAnalyzer/internal/config"
	"github.com/ElodielAirea/WoWAnalyzer/internal/modules"
	"github.com/ElodielAirea/WoWAnalyzer/internal/replay"
	"github.com/ElodielAirea/WoWAnalyzer/internal/report"
	"github.com/ElodielAirea/WoWAnalyzer/internal/repository"
	"github.com/ElodielAirea/WoWAnalyzer/internal/session"
	"github.com/ElodielAirea/WoWAnalyzer/internal/spellbook"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
)

var (
	configPath   = flag.String("config", "config/config.yaml", "path to configuration file")
	persist      = flag.Bool("persist", false, "save reports to the configured database")
	showInactive = flag.Bool("show-inactive", false, "list modules that did not apply")
	lang         = flag.String("lang", "en", "language tag used for number formatting")
)

type result struct {
	path   string
	report *session.Report
	err    error
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] recording.replay...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

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

	tag, err := language.Parse(*lang)
	if err != nil {
		logger.Fatal("invalid language tag", zap.String("lang", *lang), zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spells := spellbook.Builtin()
	if cfg.Spellbook.Path != "" {
		fromFile, err := spellbook.LoadFile(cfg.Spellbook.Path)
		if err != nil {
			logger.Fatal("failed to load spellbook", zap.Error(err))
		}
		spells = spells.Merge(fromFile)
	}

	var store repository.Store
	if *persist {
		store, err = repository.Open(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to open report store", zap.Error(err))
		}
		defer store.Close()
	}

	results := analyzeAll(ctx, flag.Args(), session.NewRunner(modules.All(), spells, logger), store, cfg.Analysis.Workers, logger)

	renderer := report.NewTextRenderer(tag)
	renderer.ShowInactive = *showInactive

	failed := 0
	for i, res := range results {
		if i > 0 {
			fmt.Println()
		}
		if res.err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", res.path, res.err)
			continue
		}
		if err := renderer.Render(os.Stdout, res.report); err != nil {
			logger.Fatal("failed to render report", zap.Error(err))
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// analyzeAll runs every recording in its own session. A failing recording
// does not affect the others. Results keep the order of paths.
func analyzeAll(ctx context.Context, paths []string, runner *session.Runner, store repository.Store, workers int, logger *zap.Logger) []result {
	results := make([]result, len(paths))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			results[i] = analyzeOne(ctx, path, runner, store, logger)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func analyzeOne(ctx context.Context, path string, runner *session.Runner, store repository.Store, logger *zap.Logger) result {
	rec, err := replay.LoadPath(path)
	if err != nil {
		return result{path: path, err: err}
	}

	rep, err := runner.Run(ctx, rec)
	if err != nil {
		return result{path: path, err: err}
	}

	if store != nil {
		if err := store.SaveReport(ctx, rep); err != nil {
			return result{path: path, err: fmt.Errorf("failed to save report: %w", err)}
		}
		logger.Debug("report saved", zap.String("session_id", rep.SessionID))
	}

	return result{path: path, report: rep}
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
	// Reports go to stdout; keep logs off it.
	zapCfg.OutputPaths = []string{"stderr"}

	return zapCfg.Build()
}
