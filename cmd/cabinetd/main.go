// Command cabinetd serves the liquor cabinet chat agent over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	agent "github.com/Protocol-Lattice/cabinet-agent"
	"github.com/Protocol-Lattice/cabinet-agent/src/audit"
	"github.com/Protocol-Lattice/cabinet-agent/src/cabinet"
	"github.com/Protocol-Lattice/cabinet-agent/src/catalog"
	"github.com/Protocol-Lattice/cabinet-agent/src/concurrent"
	"github.com/Protocol-Lattice/cabinet-agent/src/config"
	"github.com/Protocol-Lattice/cabinet-agent/src/dispatch"
	"github.com/Protocol-Lattice/cabinet-agent/src/logger"
	"github.com/Protocol-Lattice/cabinet-agent/src/metrics"
	"github.com/Protocol-Lattice/cabinet-agent/src/models"
	"github.com/Protocol-Lattice/cabinet-agent/src/server"
	"github.com/Protocol-Lattice/cabinet-agent/src/subagents"
)

func main() {
	if err := run(); err != nil {
		slog.Error("cabinetd exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}
	cfg, err := config.Parse("cabinetd", os.Args[1:])
	if err != nil {
		return err
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		return err
	}
	for _, w := range cfg.Warnings() {
		slog.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := cfg.HTTPClient()
	refs := catalog.Load(ctx, httpClient, cfg.CatalogURL)
	svc := cabinet.NewService(refs, cabinet.NewClient(cfg.BackendURL, httpClient))

	model, err := newModel(ctx, cfg, cfg.Provider, cfg.Model)
	if err != nil {
		return fmt.Errorf("init model: %w", err)
	}
	searchModel := model
	if cfg.SearchModel != "" {
		if searchModel, err = newModel(ctx, cfg, cfg.SearchProvider, cfg.SearchModel); err != nil {
			return fmt.Errorf("init search model: %w", err)
		}
	}

	m := metrics.New()
	runner := agent.NewRunner(cfg.MaxTurns)
	runner.Observer = m

	graph, err := subagents.Build(subagents.Options{
		Model:       model,
		SearchModel: searchModel,
		Cabinet:     svc,
		Runner:      runner,
	})
	if err != nil {
		return fmt.Errorf("build delegation graph: %w", err)
	}

	recorder, closeRecorder, err := newRecorder(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer closeRecorder()

	d, err := dispatch.New(dispatch.Options{
		Start:    graph.Triage,
		Runner:   runner,
		Pool:     concurrent.NewWorkerPool(cfg.MaxConcurrentRuns),
		Observer: m,
		Recorder: recorder,
		Timeout:  cfg.RequestTimeout,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.NewRouter(server.Options{Dispatcher: d, Metrics: m.Handler()}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("cabinetd listening", "addr", cfg.Addr(), "provider", cfg.Provider, "model", cfg.Model)
	return server.Serve(ctx, srv, cfg.ShutdownTimeout)
}

func newModel(ctx context.Context, cfg *config.Config, provider, name string) (models.Agent, error) {
	var opts []models.Option
	if (provider == "openai" || provider == "") && cfg.OpenAIAPIKey != "" {
		opts = append(opts, models.WithAPIKey(cfg.OpenAIAPIKey))
	}
	llm, err := models.NewLLMProvider(ctx, provider, name, "", opts...)
	if err != nil {
		return nil, err
	}
	return models.TryCreateCachedLLM(llm), nil
}

func newRecorder(ctx context.Context, dsn string) (audit.Recorder, func(), error) {
	if dsn == "" {
		return audit.NopRecorder{}, func() {}, nil
	}
	pg, err := audit.NewPostgresRecorder(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("init audit store: %w", err)
	}
	slog.Info("audit trail enabled")
	return pg, pg.Close, nil
}
