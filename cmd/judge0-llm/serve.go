package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/judge0/llm-companion/internal/backend/openrouter"
	"github.com/judge0/llm-companion/internal/config"
	"github.com/judge0/llm-companion/internal/frontdoor"
	"github.com/judge0/llm-companion/internal/provider"
	"github.com/judge0/llm-companion/internal/relay"
	"github.com/judge0/llm-companion/internal/server"
	"github.com/judge0/llm-companion/internal/telemetry"
	"github.com/judge0/llm-companion/internal/tokens"
)

func serveCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}

			logger := newLogger(os.Stdout, slog.LevelInfo)
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cfg, logger)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "override server.port")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	httpClient := &http.Client{}
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(telemetry.ServiceName, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
			}
		}()
		httpClient = telemetry.HTTPClient(httpClient)
	}

	srv := buildServer(cfg, logger, httpClient)

	logger.Info("relay configured",
		slog.Bool("upstream_key_configured", cfg.Upstream.APIKey != ""),
		slog.String("upstream", cfg.Upstream.BaseURL),
		slog.String("fallback_model", cfg.Relay.DefaultModel),
		slog.Bool("debug_errors", cfg.Server.DebugErrors),
	)
	if cfg.Upstream.APIKey == "" {
		logger.Warn("no upstream API key configured; requests will be rejected upstream")
	}

	if err := srv.Start(ctx); err != nil {
		return err
	}
	logger.Info("relay shutdown complete")
	return nil
}

// buildServer wires upstream client, relay service and HTTP handlers.
func buildServer(cfg *config.Config, logger *slog.Logger, httpClient *http.Client) *server.Server {
	registry := provider.Default()

	upstream := openrouter.NewClient(cfg.Upstream.APIKey,
		openrouter.WithBaseURL(cfg.Upstream.BaseURL),
		openrouter.WithHTTPClient(httpClient),
		openrouter.WithSiteHeaders(cfg.Upstream.SiteURL, cfg.Upstream.SiteName),
	)

	mapping := relay.NewModelMapping(cfg.Relay.DefaultModel, cfg.Relay.Models)
	if unmapped := mapping.Unmapped(registry); len(unmapped) > 0 {
		logger.Warn("providers without an upstream model use the fallback",
			slog.Any("providers", unmapped),
			slog.String("fallback_model", mapping.Fallback()),
		)
	}

	svc := relay.NewService(upstream, mapping,
		relay.WithLogger(logger),
		relay.WithTokenCounter(tokens.NewCounter()),
	)

	handler := frontdoor.NewHandler(svc,
		frontdoor.WithRegistry(registry),
		frontdoor.WithDebugErrors(cfg.Server.DebugErrors),
		frontdoor.WithLogger(logger),
	)

	srv := server.New(server.Config{
		Port:           cfg.Server.Port,
		RequestTimeout: cfg.Server.RequestTimeout,
		StaticDir:      cfg.Server.StaticDir,
		Tracing:        cfg.Telemetry.Enabled,
		ServiceName:    telemetry.ServiceName,
	}, logger)

	for _, reg := range handler.Registrations() {
		srv.Handle(reg.Method, reg.Path, reg.Handler)
		logger.Debug("registered route", slog.String("method", reg.Method), slog.String("path", reg.Path))
	}
	return srv
}
