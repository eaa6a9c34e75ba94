package cli

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bv-juan-bedoya/search-agent-tool/internal/agent"
	"github.com/bv-juan-bedoya/search-agent-tool/internal/config"
	"github.com/bv-juan-bedoya/search-agent-tool/internal/search"
	"github.com/bv-juan-bedoya/search-agent-tool/internal/server"
)

var serveCmd = LeafCommand{
	Use:   "serve",
	Short: "Run the date-scoped search HTTP service",
	Args:  cobra.NoArgs,
	StrFlags: []StringFlag{
		{Name: "config", Usage: "path to config file", Default: "config.yml"},
		{Name: "listen", Usage: "listen address (overrides config)"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		configFlag, _ := cmd.Flags().GetString("config")
		listenFlag, _ := cmd.Flags().GetString("listen")

		cfg, err := config.Load(configFlag)
		if err != nil {
			return err
		}
		if listenFlag != "" {
			cfg.Server.ListenAddress = listenFlag
		}
		return runServe(cmd.Context(), cfg)
	},
}.Build()

// buildResolver assembles the resolver for the configured mode.
func buildResolver(cfg *config.Config) (agent.Resolver, error) {
	local := agent.Local{}
	switch cfg.Resolver.Mode {
	case config.ModeDeterministic:
		return local, nil
	case config.ModeAgent, config.ModeAgentFirst:
		client := agent.NewClient(cfg.Agent.Endpoint, cfg.Agent.Deployment, cfg.Agent.APIKey, cfg.Agent.Timeout)
		if cfg.Resolver.Mode == config.ModeAgent {
			return client, nil
		}
		return agent.Chain{Primary: client, Fallback: local}, nil
	default:
		return nil, fmt.Errorf("unknown resolver mode %q", cfg.Resolver.Mode)
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	resolver, err := buildResolver(cfg)
	if err != nil {
		return err
	}

	var searcher server.Searcher
	if cfg.Search.OpenAIEndpoint != "" && cfg.Search.Index != "" {
		searcher = search.NewClient(search.Config{
			OpenAIEndpoint: cfg.Search.OpenAIEndpoint,
			Deployment:     cfg.Search.Deployment,
			APIKey:         cfg.Search.APIKey,
			SearchEndpoint: cfg.Search.Endpoint,
			SearchIndex:    cfg.Search.Index,
			SearchAPIKey:   cfg.Search.SearchAPIKey,
			SemanticConfig: cfg.Search.SemanticConfig,
			TopN:           cfg.Search.TopN,
			Timeout:        cfg.Search.Timeout,
			Retries:        cfg.Search.Retries,
		})
	} else {
		log.Printf("no search backend configured, /api/search disabled")
	}

	srv := server.New(cfg.Server, resolver, searcher, cfg.Filter.Field, cfg.Resolver.DefaultLastMonth)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("serving on %s (resolver mode: %s)", cfg.Server.ListenAddress, cfg.Resolver.Mode)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
