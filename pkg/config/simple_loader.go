// Package config provides simple configuration loading
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides read by LoadServerConfig
const EnvPrefix = "METACAT"

// Load loads a configuration from a YAML file
func Load(filePath string, config interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller and validated
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	content := substituteEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(content), config); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// Save saves a configuration to a YAML file
func Save(filePath string, config interface{}) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadServerConfig reads a server configuration through viper so that
// METACAT_* environment variables override file values (for example
// METACAT_LOGGING_LEVEL=debug). ${VAR} references inside the file are
// substituted first. Defaults are applied and the result is validated.
func LoadServerConfig(v *viper.Viper, filePath string) (*ServerConfig, error) {
	if v == nil {
		v = viper.New()
	}

	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setViperDefaults(v)

	if err := v.ReadConfig(bytes.NewReader([]byte(substituteEnvVars(string(data))))); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg := NewServerConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	for i := range cfg.Catalogs {
		cfg.Catalogs[i].ApplyDefaults()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setViperDefaults registers the scalar defaults so AutomaticEnv can see the keys
func setViperDefaults(v *viper.Viper) {
	def := NewServerConfig()
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.encoding", def.Logging.Encoding)
	v.SetDefault("logging.development", def.Logging.Development)
	v.SetDefault("observability.enable_metrics", def.Observability.EnableMetrics)
	v.SetDefault("observability.enable_tracing", def.Observability.EnableTracing)
	v.SetDefault("observability.service_name", def.Observability.ServiceName)
	v.SetDefault("observability.tracing_sample_rate", def.Observability.TracingSampleRate)
	v.SetDefault("data.metadata.delete.enable", def.Data.Metadata.Delete.Enable)
	v.SetDefault("data.metadata.delete.marker.lifetime.days", def.Data.Metadata.Delete.Marker.Lifetime.Days)
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
