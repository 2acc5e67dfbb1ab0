// Package config loads runtime configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Environment variables overriding file values.
const (
	EnvModel      = "CODESCOUT_MODEL"
	EnvAPIBaseURL = "CODESCOUT_API_BASE_URL"
	EnvGraphURL   = "CODESCOUT_GRAPH_URL"
	EnvStepLimit  = "CODESCOUT_STEP_LIMIT"
)

// DefaultFile is the config file probed when no path is given.
const DefaultFile = "codescout.yaml"

// Config is the full runtime configuration.
type Config struct {
	// Model is the model identifier sent with every provider call.
	Model string `yaml:"model"`
	// APIBaseURL overrides the provider endpoint, for OpenAI-compatible
	// gateways. Empty means the provider default.
	APIBaseURL string `yaml:"api_base_url"`
	// GraphServiceURL is the base URL of the code graph service.
	GraphServiceURL string `yaml:"graph_service_url"`
	// StepLimit caps node executions per run.
	StepLimit int `yaml:"step_limit"`

	Reflexion ReflexionConfig `yaml:"reflexion"`
	LATS      LATSConfig      `yaml:"lats"`
}

// ReflexionConfig holds the Reflexion strategy knobs.
type ReflexionConfig struct {
	MaxIterations int `yaml:"max_iterations"`
}

// LATSConfig holds the LATS strategy knobs.
type LATSConfig struct {
	NumCandidates int `yaml:"num_candidates"`
	MaxIterations int `yaml:"max_iterations"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Model:           "gpt-4o-mini",
		GraphServiceURL: "http://localhost:8731",
		StepLimit:       100,
		Reflexion:       ReflexionConfig{MaxIterations: 3},
		LATS:            LATSConfig{NumCandidates: 3, MaxIterations: 5},
	}
}

// Load builds the configuration: defaults, then the YAML file, then
// environment overrides. An explicit path must exist; the default file is
// probed and skipped when absent.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = DefaultFile
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case explicit:
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if model := os.Getenv(EnvModel); model != "" {
		c.Model = model
	}
	if baseURL := os.Getenv(EnvAPIBaseURL); baseURL != "" {
		c.APIBaseURL = baseURL
	}
	if graphURL := os.Getenv(EnvGraphURL); graphURL != "" {
		c.GraphServiceURL = graphURL
	}
	if stepLimit := os.Getenv(EnvStepLimit); stepLimit != "" {
		parsed, err := strconv.Atoi(stepLimit)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvStepLimit, err)
		}
		c.StepLimit = parsed
	}
	return nil
}
