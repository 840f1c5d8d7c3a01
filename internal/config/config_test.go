package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subhub-ai/infra/internal/config"
	inferrors "github.com/subhub-ai/infra/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subhub-infra.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
version: 0
secretStore:
  type: azure.keyvault
  vault_url: https://subhub-prod.vault.azure.net
looker:
  base_url: https://subhub.cloud.looker.com
  timeout_seconds: 120
  expiry_buffer_seconds: 90
warehouse:
  driver: snowflake
  sslmode: require
`)

	cfg := &config.Config{Path: path}
	require.NoError(t, cfg.Load())

	def := cfg.Definition
	assert.Equal(t, 0, def.Version)
	assert.Equal(t, "azure.keyvault", def.SecretStore.Type)
	assert.Equal(t, "https://subhub-prod.vault.azure.net", def.SecretStore.Config["vault_url"])
	assert.Equal(t, "https://subhub.cloud.looker.com", def.Looker.BaseURL)
	assert.Equal(t, 120*time.Second, def.Looker.Timeout())
	assert.Equal(t, 90*time.Second, def.Looker.ExpiryBuffer())
	assert.Equal(t, "snowflake", def.Warehouse.Driver)
	assert.Equal(t, "require", def.Warehouse.SSLMode)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Path: filepath.Join(t.TempDir(), "nope.yaml")}
	err := cfg.Load()
	require.Error(t, err)

	var configErr inferrors.ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "path", configErr.Field)
}

func TestLoadRejectsUnknownStoreType(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
version: 0
secretStore:
  type: vault.hashicorp
`)

	cfg := &config.Config{Path: path}
	err := cfg.Load()
	require.Error(t, err)

	var configErr inferrors.ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestLoadRejectsBadLookerURL(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
version: 0
secretStore:
  type: static
looker:
  base_url: subhub.cloud.looker.com
`)

	cfg := &config.Config{Path: path}
	err := cfg.Load()
	require.Error(t, err)

	var configErr inferrors.ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestLoadLookerWithoutBaseURL(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
version: 0
secretStore:
  type: static
looker:
  secrets:
    base_url: looker-api-base-url
`)

	cfg := &config.Config{Path: path}
	require.NoError(t, cfg.Load())

	assert.True(t, cfg.Definition.Looker.Configured())
	assert.Empty(t, cfg.Definition.Looker.BaseURL)
}

func TestLookerConfiguredEmpty(t *testing.T) {
	t.Parallel()

	assert.False(t, config.LookerConfig{}.Configured())
	assert.True(t, config.LookerConfig{BaseURL: "https://x.looker.com"}.Configured())
}

func TestLoadRejectsWrongVersion(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
version: 2
secretStore:
  type: static
`)

	cfg := &config.Config{Path: path}
	err := cfg.Load()
	require.Error(t, err)

	var configErr inferrors.ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "version: [unclosed")

	cfg := &config.Config{Path: path}
	err := cfg.Load()
	require.Error(t, err)

	var configErr inferrors.ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestResolvePath(t *testing.T) {
	t.Setenv("SUBHUB_INFRA_CONFIG", "")

	assert.Equal(t, config.DefaultPath, config.ResolvePath(""))
	assert.Equal(t, "explicit.yaml", config.ResolvePath("explicit.yaml"))

	t.Setenv("SUBHUB_INFRA_CONFIG", "/etc/subhub/infra.yaml")
	assert.Equal(t, "/etc/subhub/infra.yaml", config.ResolvePath(""))

	// An explicit flag still wins over the environment.
	assert.Equal(t, "explicit.yaml", config.ResolvePath("explicit.yaml"))
}
