// Package config loads and validates the infra configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	inferrors "github.com/subhub-ai/infra/internal/errors"
)

// DefaultPath is where the config file is looked up when no path is
// given. The SUBHUB_INFRA_CONFIG environment variable overrides it.
const DefaultPath = "subhub-infra.yaml"

// Config holds the runtime configuration
type Config struct {
	Path       string
	Definition *Definition
}

// Definition represents the subhub-infra.yaml structure
type Definition struct {
	Version     int               `yaml:"version"`
	SecretStore SecretStoreConfig `yaml:"secretStore"`
	Looker      LookerConfig      `yaml:"looker,omitempty"`
	Warehouse   WarehouseConfig   `yaml:"warehouse,omitempty"`
}

// SecretStoreConfig holds secret store-specific configuration.
// Store-specific keys (vault_url, region, project_id, values) are
// carried inline and passed to the provider factory untouched.
type SecretStoreConfig struct {
	Type   string                 `yaml:"type"`
	Config map[string]interface{} `yaml:",inline"`
}

// LookerConfig holds Looker API settings
type LookerConfig struct {
	BaseURL             string            `yaml:"base_url"`
	TimeoutSeconds      int               `yaml:"timeout_seconds,omitempty"`
	ExpiryBufferSeconds int               `yaml:"expiry_buffer_seconds,omitempty"`
	CACert              string            `yaml:"ca_cert,omitempty"`
	Secrets             map[string]string `yaml:"secrets,omitempty"`
}

// Timeout returns the configured request timeout, or 0 for the default
func (l LookerConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// ExpiryBuffer returns the token refresh buffer, or 0 for the default
func (l LookerConfig) ExpiryBuffer() time.Duration {
	return time.Duration(l.ExpiryBufferSeconds) * time.Second
}

// Configured reports whether the deployment uses Looker at all. The
// base URL may live in the secret store rather than the file, so a
// secrets mapping alone counts.
func (l LookerConfig) Configured() bool {
	return l.BaseURL != "" || len(l.Secrets) > 0
}

// WarehouseConfig holds warehouse connection settings. Credentials are
// referenced by secret name, never stored in the file.
type WarehouseConfig struct {
	Driver         string            `yaml:"driver"`
	SSLMode        string            `yaml:"sslmode,omitempty"`
	TimeoutSeconds int               `yaml:"timeout_seconds,omitempty"`
	Secrets        map[string]string `yaml:"secrets,omitempty"`
}

// Timeout returns the configured query timeout, or 0 for the default
func (w WarehouseConfig) Timeout() time.Duration {
	return time.Duration(w.TimeoutSeconds) * time.Second
}

// Configured reports whether the deployment uses a warehouse
func (w WarehouseConfig) Configured() bool {
	return w.Driver != ""
}

// ResolvePath returns the effective config path for an explicit flag
// value, the environment override, or the default, in that order.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("SUBHUB_INFRA_CONFIG"); env != "" {
		return env
	}
	return DefaultPath
}

// Load reads, schema-validates, and parses the configuration file
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return inferrors.ConfigError{
				Field:      "path",
				Value:      c.Path,
				Message:    "configuration file not found",
				Suggestion: "Create a subhub-infra.yaml or pass --config",
			}
		}
		return inferrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	if err := validateSchema(data); err != nil {
		return err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return inferrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters",
		}
	}

	if def.Version != 0 {
		return inferrors.ConfigError{
			Field:      "version",
			Value:      def.Version,
			Message:    "unsupported configuration version",
			Suggestion: "Set 'version: 0' at the top of your subhub-infra.yaml file",
		}
	}

	c.Definition = &def
	return nil
}

// validateSchema checks the raw YAML against the embedded JSON schema
func validateSchema(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return inferrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters",
		}
	}

	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to convert configuration to JSON for validation: %w", err)
	}

	schemaLoader := gojsonschema.NewStringLoader(configSchema)
	documentLoader := gojsonschema.NewBytesLoader(jsonData)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return inferrors.ConfigError{
			Message:    "configuration does not match the expected schema",
			Suggestion: strings.Join(problems, "; "),
		}
	}

	return nil
}
