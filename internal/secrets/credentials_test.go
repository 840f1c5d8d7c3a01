package secrets_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalsecrets "github.com/subhub-ai/infra/internal/secrets"
	"github.com/subhub-ai/infra/pkg/secrets"
)

func seedLookerSecrets(mock *internalsecrets.MockProvider) {
	mock.SetValue("looker-client-id", "client-id-value")
	mock.SetValue("looker-client-secret", "client-secret-value")
}

func seedWarehouseSecrets(mock *internalsecrets.MockProvider) {
	mock.SetValue("snowflake-username", "app_user")
	mock.SetValue("snowflake-password", "app_password")
	mock.SetValue("snowflake-account", "org-acct")
	mock.SetValue("snowflake-role", "ANALYST")
	mock.SetValue("snowflake-warehouse", "COMPUTE_WH")
	mock.SetValue("snowflake-database", "ANALYTICS")
	mock.SetValue("snowflake-schema", "PUBLIC")
}

func TestLoadLookerCredentials(t *testing.T) {
	t.Parallel()

	mock := internalsecrets.NewMockProvider("test")
	seedLookerSecrets(mock)

	creds, err := internalsecrets.LoadLookerCredentials(context.Background(), mock, internalsecrets.DefaultLookerSecretNames)
	require.NoError(t, err)
	defer creds.ClientSecret.Destroy()

	assert.Equal(t, "client-id-value", creds.ClientID)
	assert.Empty(t, creds.BaseURL, "base URL secret is optional")

	secret, err := creds.ClientSecret.OpenString()
	require.NoError(t, err)
	assert.Equal(t, "client-secret-value", secret)
}

func TestLoadLookerCredentialsBaseURLFromStore(t *testing.T) {
	t.Parallel()

	mock := internalsecrets.NewMockProvider("test")
	seedLookerSecrets(mock)
	mock.SetValue("looker-api-base-url", "https://subhub.cloud.looker.com")

	creds, err := internalsecrets.LoadLookerCredentials(context.Background(), mock, internalsecrets.LookerSecretNames{})
	require.NoError(t, err)
	defer creds.ClientSecret.Destroy()

	assert.Equal(t, "https://subhub.cloud.looker.com", creds.BaseURL)
}

func TestLoadLookerCredentialsEmptySecretValue(t *testing.T) {
	t.Parallel()

	mock := internalsecrets.NewMockProvider("test")
	mock.SetValue("looker-client-id", "client-id-value")
	mock.SetValue("looker-client-secret", "")

	// A store can hold an empty value; loading must not panic.
	creds, err := internalsecrets.LoadLookerCredentials(context.Background(), mock, internalsecrets.DefaultLookerSecretNames)
	require.NoError(t, err)
	defer creds.ClientSecret.Destroy()

	secret, err := creds.ClientSecret.OpenString()
	require.NoError(t, err)
	assert.Empty(t, secret)
}

func TestLoadLookerCredentialsDefaultsNames(t *testing.T) {
	t.Parallel()

	mock := internalsecrets.NewMockProvider("test")
	seedLookerSecrets(mock)

	// A zero names value falls back to the conventional secret names.
	creds, err := internalsecrets.LoadLookerCredentials(context.Background(), mock, internalsecrets.LookerSecretNames{})
	require.NoError(t, err)
	defer creds.ClientSecret.Destroy()

	assert.Equal(t, "client-id-value", creds.ClientID)
}

func TestLoadLookerCredentialsMissingSecret(t *testing.T) {
	t.Parallel()

	mock := internalsecrets.NewMockProvider("test")
	mock.SetValue("looker-client-id", "client-id-value")

	_, err := internalsecrets.LoadLookerCredentials(context.Background(), mock, internalsecrets.DefaultLookerSecretNames)
	require.Error(t, err)

	var notFound secrets.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "looker-client-secret", notFound.Key)
}

func TestLoadWarehouseConfig(t *testing.T) {
	t.Parallel()

	mock := internalsecrets.NewMockProvider("test")
	seedWarehouseSecrets(mock)

	cfg, err := internalsecrets.LoadWarehouseConfig(context.Background(), mock, "snowflake", internalsecrets.DefaultWarehouseSecretNames)
	require.NoError(t, err)
	defer cfg.Password.Destroy()

	assert.Equal(t, "snowflake", cfg.Driver)
	assert.Equal(t, "app_user", cfg.User)
	assert.Equal(t, "org-acct", cfg.Account)
	assert.Equal(t, "ANALYST", cfg.Role)
	assert.Equal(t, "COMPUTE_WH", cfg.Warehouse)
	assert.Equal(t, "ANALYTICS", cfg.Database)
	assert.Equal(t, "PUBLIC", cfg.Schema)

	password, err := cfg.Password.OpenString()
	require.NoError(t, err)
	assert.Equal(t, "app_password", password)
}

func TestLoadWarehouseConfigOptionalNamesSkipped(t *testing.T) {
	t.Parallel()

	mock := internalsecrets.NewMockProvider("test")
	mock.SetValue("pg-user", "app_user")
	mock.SetValue("pg-password", "app_password")
	mock.SetValue("pg-database", "reporting")
	mock.SetValue("pg-host", "db.internal")
	mock.SetValue("pg-port", "5433")

	names := internalsecrets.WarehouseSecretNames{
		Username: "pg-user",
		Password: "pg-password",
		Database: "pg-database",
		Host:     "pg-host",
		Port:     "pg-port",
	}

	cfg, err := internalsecrets.LoadWarehouseConfig(context.Background(), mock, "postgres", names)
	require.NoError(t, err)
	defer cfg.Password.Destroy()

	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 5433, cfg.Port)
	assert.Empty(t, cfg.Account)
	assert.Empty(t, cfg.Role)
}

func TestLoadWarehouseConfigBadPort(t *testing.T) {
	t.Parallel()

	mock := internalsecrets.NewMockProvider("test")
	mock.SetValue("pg-user", "app_user")
	mock.SetValue("pg-password", "app_password")
	mock.SetValue("pg-database", "reporting")
	mock.SetValue("pg-port", "not-a-port")

	names := internalsecrets.WarehouseSecretNames{
		Username: "pg-user",
		Password: "pg-password",
		Database: "pg-database",
		Port:     "pg-port",
	}

	_, err := internalsecrets.LoadWarehouseConfig(context.Background(), mock, "postgres", names)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pg-port")
}

func TestLoadWarehouseConfigMissingRequired(t *testing.T) {
	t.Parallel()

	mock := internalsecrets.NewMockProvider("test")
	mock.SetValue("snowflake-username", "app_user")

	_, err := internalsecrets.LoadWarehouseConfig(context.Background(), mock, "snowflake", internalsecrets.DefaultWarehouseSecretNames)
	require.Error(t, err)

	var notFound secrets.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
