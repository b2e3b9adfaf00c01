// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// MongoURI selects the MongoDB deployment. Empty means the in-memory
	// store.
	MongoURI string `koanf:"mongo_uri"`

	// MongoDatabase names the database holding the service collections.
	MongoDatabase string `koanf:"mongo_database"`

	// EventQueueSize bounds the in-memory point event queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of counter aggregation workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the event deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// HomeUniversity backs the intra-squad match filter.
	HomeUniversity string `koanf:"home_university"`

	// DefaultTopN and MaxTopN bound the technique breakdown sizes.
	DefaultTopN int `koanf:"default_top_n"`
	MaxTopN     int `koanf:"max_top_n"`

	// AllowSuddenDeath and AllowPanelDecision set the tie-break policy.
	AllowSuddenDeath   bool `koanf:"allow_sudden_death"`
	AllowPanelDecision bool `koanf:"allow_panel_decision"`

	// AutoComputeOutcome recomputes bout outcomes on every save.
	AutoComputeOutcome bool `koanf:"auto_compute_outcome"`

	// SummaryURL points at the AI summary service. Empty disables
	// summaries.
	SummaryURL string `koanf:"summary_url"`

	// SummaryAPIKey is the bearer token for the summary service.
	SummaryAPIKey string `koanf:"summary_api_key"`

	// SummaryRequestsPerMinute caps outbound summary calls.
	SummaryRequestsPerMinute int `koanf:"summary_requests_per_minute"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                 "info",
		Addr:                     ":9080",
		MongoDatabase:            "zanshin",
		EventQueueSize:           100_000,
		WorkerCount:              runtime.NumCPU() * 2,
		DedupeSize:               50_000,
		DefaultTopN:              10,
		MaxTopN:                  50,
		AllowSuddenDeath:         true,
		AllowPanelDecision:       true,
		AutoComputeOutcome:       true,
		SummaryRequestsPerMinute: 20,
	}
}
