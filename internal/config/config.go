// Package config loads service settings from a YAML file with environment
// overrides matching the original function's variable names.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Resolver modes.
const (
	ModeDeterministic = "deterministic"
	ModeAgent         = "agent"
	ModeAgentFirst    = "agent-first"
)

type Server struct {
	ListenAddress string        `yaml:"listen_address"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
}

type Resolver struct {
	// Mode selects the resolution path: deterministic (default), agent, or
	// agent-first (agent with deterministic fallback, the original layout).
	Mode string `yaml:"mode"`
	// DefaultLastMonth restores the original behavior of treating a query
	// with no date expression as "last month" instead of failing.
	DefaultLastMonth bool `yaml:"default_last_month"`
}

type Agent struct {
	Endpoint   string        `yaml:"endpoint"`
	Deployment string        `yaml:"deployment"`
	APIKey     string        `yaml:"api_key"`
	APIVersion string        `yaml:"api_version"`
	Timeout    time.Duration `yaml:"timeout"`
}

type Search struct {
	OpenAIEndpoint string        `yaml:"openai_endpoint"`
	Deployment     string        `yaml:"deployment"`
	APIKey         string        `yaml:"api_key"`
	Endpoint       string        `yaml:"endpoint"`
	Index          string        `yaml:"index"`
	SearchAPIKey   string        `yaml:"search_api_key"`
	SemanticConfig string        `yaml:"semantic_configuration"`
	TopN           int           `yaml:"top_n"`
	Timeout        time.Duration `yaml:"timeout"`
	Retries        int           `yaml:"retries"`
}

type Filter struct {
	Field string `yaml:"field"`
}

type Config struct {
	Server   Server   `yaml:"server"`
	Resolver Resolver `yaml:"resolver"`
	Agent    Agent    `yaml:"agent"`
	Search   Search   `yaml:"search"`
	Filter   Filter   `yaml:"filter"`
}

// Load reads the YAML config at path, applies environment overrides and
// fills defaults. A missing file is not an error; env and defaults apply.
func Load(path string) (*Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}

	c.applyEnv()
	c.applyDefaults()

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// applyEnv maps the original Azure Function's environment variables onto the
// config. Env values win over the file.
func (c *Config) applyEnv() {
	overrideString(&c.Search.OpenAIEndpoint, "AZURE_OAI_ENDPOINT")
	overrideString(&c.Search.Deployment, "AZURE_OAI_DEPLOYMENT")
	overrideString(&c.Search.APIKey, "AZURE_OAI_KEY")
	overrideString(&c.Search.Endpoint, "AZURE_SEARCH_ENDPOINT")
	overrideString(&c.Search.Index, "AZURE_SEARCH_INDEX")
	overrideString(&c.Search.SearchAPIKey, "AZURE_SEARCH_API_KEY")

	overrideString(&c.Agent.Endpoint, "DATE_AGENT_ENDPOINT")
	overrideString(&c.Agent.Deployment, "DATE_AGENT_DEPLOYMENT")
	overrideString(&c.Agent.APIKey, "DATE_AGENT_KEY")

	overrideString(&c.Resolver.Mode, "RESOLVER_MODE")
}

func (c *Config) applyDefaults() {
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		// Backend answers can take a while; the original allowed 60s.
		c.Server.WriteTimeout = 90 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Resolver.Mode == "" {
		c.Resolver.Mode = ModeDeterministic
	}
	if c.Agent.Timeout == 0 {
		c.Agent.Timeout = 30 * time.Second
	}
	// The date-parser agent shares the search deployment unless configured
	// separately.
	if c.Agent.Endpoint == "" {
		c.Agent.Endpoint = c.Search.OpenAIEndpoint
	}
	if c.Agent.Deployment == "" {
		c.Agent.Deployment = c.Search.Deployment
	}
	if c.Agent.APIKey == "" {
		c.Agent.APIKey = c.Search.APIKey
	}
	if c.Search.Timeout == 0 {
		c.Search.Timeout = 60 * time.Second
	}
	if c.Search.Retries == 0 {
		c.Search.Retries = 2
	}
	if c.Search.TopN == 0 {
		c.Search.TopN = 10
	}
}

func (c *Config) validate() error {
	switch c.Resolver.Mode {
	case ModeDeterministic, ModeAgent, ModeAgentFirst:
	default:
		return fmt.Errorf("unknown resolver mode %q", c.Resolver.Mode)
	}
	if c.Resolver.Mode != ModeDeterministic && c.Agent.Endpoint == "" {
		return fmt.Errorf("resolver mode %q requires an agent endpoint", c.Resolver.Mode)
	}
	return nil
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
