package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/cerealbox/internal/api"
	"github.com/MikeSquared-Agency/cerealbox/internal/config"
	"github.com/MikeSquared-Agency/cerealbox/internal/hermes"
	"github.com/MikeSquared-Agency/cerealbox/internal/processor"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the prompt tools over HTTP and NATS",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("cerealbox starting", "port", cfg.Port)

	ruleSet, source, err := loadRules(ctx, cfg)
	if err != nil {
		slog.Error("failed to load rules", "error", err)
		return err
	}
	slog.Info("rules loaded", "source", source, "categories", len(ruleSet.IDs()))

	// NATS is optional; without it there are no events and no bus tools.
	var bus processor.Bus
	var hermesClient *hermes.Client
	if cfg.NatsURL != "" {
		hermesClient, err = hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			return err
		}
		defer hermesClient.Close()
		bus = hermesClient
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS_URL not set, running HTTP only")
	}

	proc := processor.New(ruleSet, bus, slog.Default())

	if hermesClient != nil {
		for _, tool := range proc.Tools() {
			if err := hermesClient.Serve(hermes.SubjectToolPrefix+tool.Name, proc.HandleToolRequest); err != nil {
				slog.Error("failed to serve tool", "tool", tool.Name, "error", err)
				return err
			}
		}
	}

	srv := api.NewServer(cfg.Port, proc, api.Options{
		APIToken:   cfg.APIToken,
		RateLimit:  cfg.RateLimit,
		RateBurst:  cfg.RateBurst,
		RuleSource: source,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if hermesClient != nil {
		if err := hermesClient.Publish("swarm.agent.cerealbox.registered", map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"port":      cfg.Port,
			"tools":     len(proc.Tools()),
		}); err != nil {
			slog.Warn("failed to publish registration", "error", err)
		}
	}

	slog.Info("cerealbox ready", "port", cfg.Port, "rule_source", source)

	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
		return err
	}
	slog.Info("cerealbox stopped")
	return nil
}
