package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/amishk599/skywatch/internal/backend"
	"github.com/amishk599/skywatch/internal/config"
	"github.com/amishk599/skywatch/internal/model"
	"github.com/amishk599/skywatch/internal/notifier"
	"github.com/amishk599/skywatch/internal/observability"
	"github.com/amishk599/skywatch/internal/ratelimit"
	"github.com/amishk599/skywatch/internal/retry"
	"github.com/amishk599/skywatch/internal/session"
	"github.com/amishk599/skywatch/internal/store"
)

var (
	cfgPath   string
	debug     bool
	ephemeral bool
)

var rootCmd = &cobra.Command{
	Use:   "skywatch",
	Short: "Weather intelligence from NASA Earth data, in your terminal",
	Long:  "skywatch starts weather analyses and personalized predictions on the analysis backend, follows their progress and renders the results.",
	// With no subcommand, open the interactive dashboard.
	RunE:          runDashboard,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: SKYWATCH_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep the session in memory only")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > SKYWATCH_CONFIG env var > "./config.yaml".
// A missing file yields the defaults.
func loadConfig(path string) (*config.Config, error) {
	// A missing .env is fine; variables may come from the environment.
	_ = godotenv.Load()

	if path == "" {
		if env := os.Getenv("SKYWATCH_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Debug("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// app holds everything a command needs to talk to the backend and the
// local session.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	client     *backend.Client
	session    *session.Store
	notifier   model.Notifier
	metrics    *observability.Metrics
	metricsSrv *observability.Server
}

// setupApp loads the config and wires the client stack and session store.
// Failures are logged and exit the process, like every command does.
func setupApp(logger *slog.Logger) *app {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	a := &app{cfg: cfg, logger: logger}
	if cfg.Metrics.Addr != "" {
		a.metrics = observability.NewMetrics()
	}

	limiter := ratelimit.NewEndpointLimiter(cfg.RateLimit.MinDelay, cfg.RateLimit.EndpointOverrides)
	httpClient := &http.Client{
		Timeout:   cfg.Backend.Timeout,
		Transport: ratelimit.NewTransport(http.DefaultTransport, limiter, backend.EndpointKey, a.metrics),
	}
	retrier := retry.NewRetrier(cfg.Backend.MaxRetries, cfg.Backend.RetryBaseDelay, logger)
	a.client = backend.NewClient(cfg.Backend.BaseURL, httpClient, retrier, logger)
	a.client.SetMetrics(a.metrics)

	// Webhooks get their own client; they are not backend endpoints.
	a.notifier = setupNotifier(cfg, &http.Client{Timeout: 30 * time.Second}, logger)

	var kv model.KV
	if ephemeral {
		kv = store.NewMemoryKV()
	} else {
		sqlKV, err := store.NewSQLiteKV(cfg.Store.Path)
		if err != nil {
			logger.Error("failed to open session store", "path", cfg.Store.Path, "error", err)
			os.Exit(1)
		}
		kv = sqlKV
	}
	a.session, err = session.Open(kv)
	if err != nil {
		logger.Error("failed to open session", "error", err)
		os.Exit(1)
	}

	if a.metrics != nil {
		a.metricsSrv = observability.NewServer(cfg.Metrics.Addr, a.client, logger)
		go func() {
			if err := a.metricsSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	logger.Debug("config loaded",
		"base_url", cfg.Backend.BaseURL,
		"interval", cfg.Polling.Interval.String(),
		"max_duration", cfg.Polling.MaxDuration.String(),
		"store", cfg.Store.Path,
		"ephemeral", ephemeral,
	)
	return a
}

func (a *app) close() {
	if a.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metricsSrv.Shutdown(ctx); err != nil {
			a.logger.Warn("metrics server shutdown", "error", err)
		}
	}
	if err := a.session.Close(); err != nil {
		a.logger.Warn("closing session store", "error", err)
	}
}

// readSession reads the session or exits.
func (a *app) readSession() model.Session {
	sess, err := a.session.Read()
	if err != nil {
		a.logger.Error("failed to read session", "error", err)
		os.Exit(1)
	}
	return sess
}
