// Command echoscribe runs the segment practice engine with its health and
// metrics endpoints. Pointed at a subtitle file it starts a practice session
// immediately; with -stats it prints the accumulated practice summary and
// exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/hvngan/echoscribe/internal/app"
	"github.com/hvngan/echoscribe/internal/config"
	"github.com/hvngan/echoscribe/internal/health"
	"github.com/hvngan/echoscribe/internal/observe"
	"github.com/hvngan/echoscribe/internal/store"
	"github.com/hvngan/echoscribe/internal/store/postgres"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	subtitlePath := flag.String("subtitles", "", "subtitle file to start a practice session with")
	showStats := flag.Bool("stats", false, "print the practice summary and exit")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "echoscribe: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "echoscribe: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logLevel := new(slog.LevelVar)
	logLevel.Set(slogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	slog.Info("echoscribe starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
		"backend", cfg.Data.Backend,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "echoscribe",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Storage backend ───────────────────────────────────────────────────────
	st, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "backend", cfg.Data.Backend, "err", err)
		return 1
	}
	defer closeStore()

	// ── Practice engine ───────────────────────────────────────────────────────
	engine := app.New(st, app.WithPractice(cfg.Practice))

	if *showStats {
		return printStats(ctx, engine)
	}

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg, *subtitlePath)

	if *subtitlePath != "" {
		name := strings.TrimSuffix(filepath.Base(*subtitlePath), filepath.Ext(*subtitlePath))
		session, segments, err := engine.StartSession(ctx, *subtitlePath, *subtitlePath, name)
		if err != nil {
			slog.Error("failed to start practice session", "subtitles", *subtitlePath, "err", err)
			return 1
		}
		slog.Info("practice session started",
			"session_id", session.ID,
			"name", session.Name,
			"segments", segments,
		)
	}

	// ── Config hot reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		d := config.Diff(old, new)
		if d.LogLevelChanged {
			logLevel.Set(slogLevel(d.NewLogLevel))
			slog.Info("log level changed", "level", d.NewLogLevel)
		}
		if d.PracticeChanged {
			engine.ApplyPractice(d.NewPractice)
		}
	})
	if err != nil {
		slog.Error("failed to watch config", "err", err)
		return 1
	}
	defer watcher.Stop()

	// ── HTTP server: health + metrics ─────────────────────────────────────────
	mux := http.NewServeMux()
	health.New([]health.Checker{engine.StoreChecker()}).Register(mux)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           observe.Middleware(observe.DefaultMetrics())(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server ready — press Ctrl+C to shut down", "addr", server.Addr)
		var err error
		if cfg.Server.TLS != nil {
			err = server.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, stopping…")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// buildStore opens the document store named by cfg.Data.Backend. The returned
// close function is a no-op for the file backend.
func buildStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Data.Backend {
	case config.BackendPostgres:
		st, err := postgres.New(ctx, cfg.Data.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	default:
		dir := cfg.Data.Dir
		if dir == "" {
			dir = "data"
		}
		var opts []store.FileStoreOption
		if cfg.Data.BackupsToKeep > 0 {
			opts = append(opts, store.WithBackupsToKeep(cfg.Data.BackupsToKeep))
		}
		st, err := store.NewFileStore(dir, opts...)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {}, nil
	}
}

// printStats renders the accumulated practice summary for the -stats flag.
func printStats(ctx context.Context, engine *app.Engine) int {
	summary, err := engine.PracticeSummary(ctx)
	if err != nil {
		slog.Error("failed to load practice summary", "err", err)
		return 1
	}
	achievements, err := engine.Achievements(ctx)
	if err != nil {
		slog.Error("failed to load achievements", "err", err)
		return 1
	}

	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║       Echoscribe — practice stats     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	fmt.Printf("║  Current streak  : %-19d ║\n", summary.CurrentStreak)
	fmt.Printf("║  Videos finished : %-19d ║\n", summary.TotalVideos)
	fmt.Printf("║  Practice time   : %-19s ║\n", formatSeconds(summary.TotalTime))
	fmt.Printf("║  Avg accuracy    : %-19s ║\n", fmt.Sprintf("%.1f%%", summary.AverageAccuracy))
	fmt.Printf("║  Achievements    : %-19d ║\n", len(achievements))
	fmt.Println("╚═══════════════════════════════════════╝")
	return 0
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, subtitlePath string) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║       Echoscribe — startup summary    ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printField("Backend", string(cfg.Data.Backend))
	if cfg.Data.Backend == config.BackendFile {
		printField("Data dir", cfg.Data.Dir)
	}
	printField("Subtitles", subtitlePath)
	printField("Completion", fmt.Sprintf("%.0f%%", effectiveThreshold(cfg.Practice.CompletionThreshold)))
	if cfg.Server.TLS != nil {
		printField("TLS", "enabled")
	}
	if cfg.Server.ListenAddr != "" {
		printField("Listen addr", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printField(name, value string) {
	if value == "" {
		value = "(not configured)"
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-15s : %-19s ║\n", name, value)
}

func effectiveThreshold(v float64) float64 {
	if v == 0 {
		return 95
	}
	return v
}

func formatSeconds(secs float64) string {
	d := time.Duration(secs * float64(time.Second))
	return d.Round(time.Second).String()
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
