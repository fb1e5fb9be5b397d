// Package config provides the configuration system for Metacat.
// A ServerConfig carries the process-wide sections (logging, observability,
// data retention) and one CatalogConfig per federated backend.
//
// Example usage:
//
//	cfg := config.NewServerConfig()
//	if err := config.Load("metacat.yaml", cfg); err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"time"

	"github.com/ajitpratap0/metacat/pkg/logger"
)

// DefaultMarkerLifetimeDays is how long a metadata soft-delete marker lives
// before the cleanup sweep may purge it.
const DefaultMarkerLifetimeDays = 15

// ServerConfig is the root configuration of a Metacat process.
type ServerConfig struct {
	// Logging configures the global zap logger
	Logging logger.Config `yaml:"logging" json:"logging" mapstructure:"logging"`

	// Observability settings for metrics and tracing
	Observability ObservabilityConfig `yaml:"observability" json:"observability" mapstructure:"observability"`

	// Data holds metadata retention properties
	Data DataConfig `yaml:"data" json:"data" mapstructure:"data"`

	// Catalogs lists every backend federated by this process
	Catalogs []CatalogConfig `yaml:"catalogs" json:"catalogs" mapstructure:"catalogs"`
}

// ObservabilityConfig contains monitoring and observability settings.
type ObservabilityConfig struct {
	// EnableMetrics activates Prometheus metrics collection
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics" mapstructure:"enable_metrics"`
	// EnableTracing activates OpenTelemetry tracing
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing" mapstructure:"enable_tracing"`
	// ServiceName is reported on every span
	ServiceName string `yaml:"service_name" json:"service_name" mapstructure:"service_name"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate" mapstructure:"tracing_sample_rate"`
}

// DataConfig holds data related properties.
type DataConfig struct {
	Metadata MetadataConfig `yaml:"metadata" json:"metadata" mapstructure:"metadata"`
}

// MetadataConfig holds metadata related properties.
type MetadataConfig struct {
	Delete DeleteConfig `yaml:"delete" json:"delete" mapstructure:"delete"`
}

// DeleteConfig describes soft-deletion marking of metadata. It is read by
// the cleanup collaborator, never by connector factories.
type DeleteConfig struct {
	// Enable turns on soft-delete marking
	Enable bool         `yaml:"enable" json:"enable" mapstructure:"enable"`
	Marker MarkerConfig `yaml:"marker" json:"marker" mapstructure:"marker"`
}

// MarkerConfig holds delete marker properties.
type MarkerConfig struct {
	Lifetime LifetimeConfig `yaml:"lifetime" json:"lifetime" mapstructure:"lifetime"`
}

// LifetimeConfig holds the marker lifetime.
type LifetimeConfig struct {
	Days int `yaml:"days" json:"days" mapstructure:"days"`
}

// Duration returns the marker lifetime as a duration
func (l LifetimeConfig) Duration() time.Duration {
	return time.Duration(l.Days) * 24 * time.Hour
}

// NewServerConfig creates a ServerConfig with defaults applied.
func NewServerConfig() *ServerConfig {
	return &ServerConfig{
		Logging: logger.Config{
			Level:    "info",
			Encoding: "json",
		},
		Observability: ObservabilityConfig{
			EnableMetrics:     true,
			EnableTracing:     false,
			ServiceName:       "metacat",
			TracingSampleRate: 0.1,
		},
		Data: DataConfig{
			Metadata: MetadataConfig{
				Delete: DeleteConfig{
					Marker: MarkerConfig{
						Lifetime: LifetimeConfig{Days: DefaultMarkerLifetimeDays},
					},
				},
			},
		},
	}
}

// Validate validates the configuration for correctness.
// Each catalog is validated and catalog names must be unique.
func (sc *ServerConfig) Validate() error {
	if sc.Data.Metadata.Delete.Marker.Lifetime.Days <= 0 {
		return fmt.Errorf("data.metadata.delete.marker.lifetime.days must be positive")
	}

	seen := make(map[string]struct{}, len(sc.Catalogs))
	for i := range sc.Catalogs {
		cat := &sc.Catalogs[i]
		if err := cat.Validate(); err != nil {
			return fmt.Errorf("catalogs[%d]: %w", i, err)
		}
		if _, dup := seen[cat.Name]; dup {
			return fmt.Errorf("catalogs[%d]: duplicate catalog name %q", i, cat.Name)
		}
		seen[cat.Name] = struct{}{}
	}
	return nil
}

// Catalog returns the configuration of the named catalog
func (sc *ServerConfig) Catalog(name string) (*CatalogConfig, bool) {
	for i := range sc.Catalogs {
		if sc.Catalogs[i].Name == name {
			return &sc.Catalogs[i], true
		}
	}
	return nil, false
}

// CatalogConfig describes one federated backend. Name is the catalog name the
// connector factory is registered under; Type selects the module set builder.
type CatalogConfig struct {
	// Name identifies the catalog
	Name string `yaml:"name" json:"name" mapstructure:"name"`
	// Type selects the connector family (e.g., "jdbc", "mongodb", "bigquery")
	Type string `yaml:"type" json:"type" mapstructure:"type"`

	// JDBC holds relational connection settings
	JDBC JDBCConfig `yaml:"jdbc" json:"jdbc" mapstructure:"jdbc"`
	// MongoDB holds MongoDB connection settings
	MongoDB MongoDBConfig `yaml:"mongodb" json:"mongodb" mapstructure:"mongodb"`
	// BigQuery holds BigQuery connection settings
	BigQuery BigQueryConfig `yaml:"bigquery" json:"bigquery" mapstructure:"bigquery"`

	// Pool configures the shared connection pool for this catalog
	Pool PoolConfig `yaml:"pool" json:"pool" mapstructure:"pool"`
	// Timeouts bound connection setup and metadata requests
	Timeouts TimeoutConfig `yaml:"timeouts" json:"timeouts" mapstructure:"timeouts"`

	// Properties carries free-form settings for custom connector types
	Properties map[string]string `yaml:"properties" json:"properties" mapstructure:"properties"`
}

// PoolConfig contains connection pool settings.
type PoolConfig struct {
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
}

// TimeoutConfig contains timeout-related settings.
type TimeoutConfig struct {
	// Connection timeout for establishing connections
	Connection time.Duration `yaml:"connection" json:"connection" mapstructure:"connection"`
	// Request timeout for individual metadata operations
	Request time.Duration `yaml:"request" json:"request" mapstructure:"request"`
}

// NewCatalogConfig creates a CatalogConfig with default pool and timeout
// settings.
func NewCatalogConfig(name, catalogType string) *CatalogConfig {
	cfg := &CatalogConfig{Name: name, Type: catalogType}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero pool and timeout settings
func (cc *CatalogConfig) ApplyDefaults() {
	if cc.Pool.MaxOpenConns <= 0 {
		cc.Pool.MaxOpenConns = 10
	}
	if cc.Pool.MaxIdleConns <= 0 {
		cc.Pool.MaxIdleConns = 2
	}
	if cc.Pool.MaxIdleConns > cc.Pool.MaxOpenConns {
		cc.Pool.MaxIdleConns = cc.Pool.MaxOpenConns
	}
	if cc.Pool.ConnMaxLifetime <= 0 {
		cc.Pool.ConnMaxLifetime = time.Hour
	}
	if cc.Pool.ConnMaxIdleTime <= 0 {
		cc.Pool.ConnMaxIdleTime = 5 * time.Minute
	}
	if cc.Timeouts.Connection <= 0 {
		cc.Timeouts.Connection = 10 * time.Second
	}
	if cc.Timeouts.Request <= 0 {
		cc.Timeouts.Request = 30 * time.Second
	}
}

// Validate checks the fields every catalog needs. Backend specific settings
// are validated by the module that consumes them.
func (cc *CatalogConfig) Validate() error {
	if cc.Name == "" {
		return fmt.Errorf("name is required")
	}
	if cc.Type == "" {
		return fmt.Errorf("type is required for catalog %q", cc.Name)
	}
	if cc.Pool.MaxOpenConns < 0 || cc.Pool.MaxIdleConns < 0 {
		return fmt.Errorf("pool sizes cannot be negative for catalog %q", cc.Name)
	}
	return nil
}

// Property returns a free-form property or the fallback
func (cc *CatalogConfig) Property(key, fallback string) string {
	if v, ok := cc.Properties[key]; ok && v != "" {
		return v
	}
	return fallback
}
