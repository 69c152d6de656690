// Package config loads service configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	NATS    NATSConfig
	Metrics MetricsConfig
	Engine  EngineConfig
}

// NATSConfig holds the transport settings.
type NATSConfig struct {
	URL      string
	ClientID string
	Subject  string
	Queue    string
}

// MetricsConfig holds the Prometheus listener settings.
type MetricsConfig struct {
	Addr string
}

// EngineConfig holds the default search limits; requests may override the
// hop, K and tolerance settings per call.
type EngineConfig struct {
	MaxHops          int
	TopK             int
	MaxExpansions    int
	MaxVisitedStates int
	MinTolerance     string
	MaxTolerance     string
	TimeBudget       time.Duration
	GraphTTL         time.Duration
}

// Load reads config.yaml from the usual locations. Environment variables
// with the PATHFINDER_ prefix override file values, dots becoming
// underscores (PATHFINDER_NATS_URL, PATHFINDER_ENGINE_MAX_HOPS, ...).
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"/configs", "./configs", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("PATHFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.client_id", "pathfinder-service")
	v.SetDefault("nats.subject", "pathfind.request")
	v.SetDefault("nats.queue", "pathfinder")
	v.SetDefault("metrics.addr", ":9108")
	v.SetDefault("engine.max_hops", 4)
	v.SetDefault("engine.top_k", 3)
	v.SetDefault("engine.max_expansions", 250000)
	v.SetDefault("engine.max_visited_states", 250000)
	v.SetDefault("engine.min_tolerance", "0")
	v.SetDefault("engine.max_tolerance", "0")
	v.SetDefault("engine.time_budget", "2s")
	v.SetDefault("engine.graph_ttl", "1m")

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return &Config{
		NATS: NATSConfig{
			URL:      v.GetString("nats.url"),
			ClientID: v.GetString("nats.client_id"),
			Subject:  v.GetString("nats.subject"),
			Queue:    v.GetString("nats.queue"),
		},
		Metrics: MetricsConfig{
			Addr: v.GetString("metrics.addr"),
		},
		Engine: EngineConfig{
			MaxHops:          v.GetInt("engine.max_hops"),
			TopK:             v.GetInt("engine.top_k"),
			MaxExpansions:    v.GetInt("engine.max_expansions"),
			MaxVisitedStates: v.GetInt("engine.max_visited_states"),
			MinTolerance:     v.GetString("engine.min_tolerance"),
			MaxTolerance:     v.GetString("engine.max_tolerance"),
			TimeBudget:       v.GetDuration("engine.time_budget"),
			GraphTTL:         v.GetDuration("engine.graph_ttl"),
		},
	}, nil
}
