package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bv-juan-bedoya/search-agent-tool/internal/agent"
	"github.com/bv-juan-bedoya/search-agent-tool/internal/config"
)

func TestBuildResolverDeterministic(t *testing.T) {
	r, err := buildResolver(&config.Config{Resolver: config.Resolver{Mode: config.ModeDeterministic}})
	require.NoError(t, err)
	assert.IsType(t, agent.Local{}, r)
}

func TestBuildResolverAgent(t *testing.T) {
	cfg := &config.Config{
		Resolver: config.Resolver{Mode: config.ModeAgent},
		Agent:    config.Agent{Endpoint: "https://oai.example.net", Deployment: "date-parser"},
	}
	r, err := buildResolver(cfg)
	require.NoError(t, err)
	assert.IsType(t, &agent.Client{}, r)
}

func TestBuildResolverAgentFirst(t *testing.T) {
	cfg := &config.Config{
		Resolver: config.Resolver{Mode: config.ModeAgentFirst},
		Agent:    config.Agent{Endpoint: "https://oai.example.net", Deployment: "date-parser"},
	}
	r, err := buildResolver(cfg)
	require.NoError(t, err)

	chain, ok := r.(agent.Chain)
	require.True(t, ok)
	assert.IsType(t, &agent.Client{}, chain.Primary)
	assert.IsType(t, agent.Local{}, chain.Fallback)
}

func TestBuildResolverUnknownMode(t *testing.T) {
	_, err := buildResolver(&config.Config{Resolver: config.Resolver{Mode: "psychic"}})
	assert.Error(t, err)
}
