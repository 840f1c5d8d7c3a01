package secrets

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/subhub-ai/infra/internal/looker"
	"github.com/subhub-ai/infra/pkg/metrics"
	"github.com/subhub-ai/infra/internal/secure"
	"github.com/subhub-ai/infra/internal/warehouse"
	"github.com/subhub-ai/infra/pkg/secrets"
)

// LookerSecretNames maps the Looker credential fields to the secret
// names that hold them in the configured store.
type LookerSecretNames struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
}

// DefaultLookerSecretNames are the conventional secret names
var DefaultLookerSecretNames = LookerSecretNames{
	ClientID:     "looker-client-id",
	ClientSecret: "looker-client-secret",
	BaseURL:      "looker-api-base-url",
}

// WarehouseSecretNames maps warehouse connection fields to secret names
type WarehouseSecretNames struct {
	Username  string
	Password  string
	Account   string
	Role      string
	Warehouse string
	Database  string
	Schema    string
	Host      string
	Port      string
}

// DefaultWarehouseSecretNames are the conventional secret names for a
// Snowflake connection.
var DefaultWarehouseSecretNames = WarehouseSecretNames{
	Username:  "snowflake-username",
	Password:  "snowflake-password",
	Account:   "snowflake-account",
	Role:      "snowflake-role",
	Warehouse: "snowflake-warehouse",
	Database:  "snowflake-database",
	Schema:    "snowflake-schema",
}

// LoadLookerCredentials resolves Looker API credentials from a secret
// store. The client secret goes straight into an enclave; it is never
// held in a plain string field. The base URL secret is optional: a
// store without it yields credentials with an empty BaseURL, and the
// caller falls back to its configured endpoint.
func LoadLookerCredentials(ctx context.Context, provider secrets.Provider, names LookerSecretNames) (looker.Credentials, error) {
	if names.ClientID == "" {
		names.ClientID = DefaultLookerSecretNames.ClientID
	}
	if names.ClientSecret == "" {
		names.ClientSecret = DefaultLookerSecretNames.ClientSecret
	}
	if names.BaseURL == "" {
		names.BaseURL = DefaultLookerSecretNames.BaseURL
	}

	clientID, err := resolveValue(ctx, provider, names.ClientID)
	if err != nil {
		return looker.Credentials{}, err
	}

	clientSecret, err := resolveValue(ctx, provider, names.ClientSecret)
	if err != nil {
		return looker.Credentials{}, err
	}

	baseURL, err := resolveValue(ctx, provider, names.BaseURL)
	if err != nil {
		var notFound secrets.NotFoundError
		if !errors.As(err, &notFound) {
			return looker.Credentials{}, err
		}
		baseURL = ""
	}

	creds := looker.NewCredentials(clientID, clientSecret)
	creds.BaseURL = baseURL
	return creds, nil
}

// LoadWarehouseConfig resolves warehouse connection settings from a
// secret store. Optional fields (role, schema, host, port) resolve to
// empty when the name is unset; a set name that is missing from the
// store is an error.
func LoadWarehouseConfig(ctx context.Context, provider secrets.Provider, driver string, names WarehouseSecretNames) (warehouse.Config, error) {
	if names.Username == "" {
		names = DefaultWarehouseSecretNames
	}

	cfg := warehouse.Config{Driver: driver}

	required := []struct {
		name string
		dst  *string
	}{
		{names.Username, &cfg.User},
		{names.Database, &cfg.Database},
	}
	for _, field := range required {
		value, err := resolveValue(ctx, provider, field.name)
		if err != nil {
			return warehouse.Config{}, err
		}
		*field.dst = value
	}

	password, err := resolveValue(ctx, provider, names.Password)
	if err != nil {
		return warehouse.Config{}, err
	}
	cfg.Password = secure.NewSecureString(password)

	optional := []struct {
		name string
		dst  *string
	}{
		{names.Account, &cfg.Account},
		{names.Role, &cfg.Role},
		{names.Warehouse, &cfg.Warehouse},
		{names.Schema, &cfg.Schema},
		{names.Host, &cfg.Host},
	}
	for _, field := range optional {
		if field.name == "" {
			continue
		}
		value, err := resolveValue(ctx, provider, field.name)
		if err != nil {
			return warehouse.Config{}, err
		}
		*field.dst = value
	}

	if names.Port != "" {
		portStr, err := resolveValue(ctx, provider, names.Port)
		if err != nil {
			return warehouse.Config{}, err
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return warehouse.Config{}, fmt.Errorf("secret %q is not a valid port: %w", names.Port, err)
		}
		cfg.Port = port
	}

	return cfg, nil
}

// resolveValue fetches a single secret value and records the outcome
func resolveValue(ctx context.Context, provider secrets.Provider, name string) (string, error) {
	m := metrics.NewInfraMetrics()

	value, err := provider.Resolve(ctx, secrets.Reference{
		Provider: provider.Name(),
		Key:      name,
	})
	if err != nil {
		m.RecordSecretResolve(provider.Name(), "error")
		return "", err
	}

	m.RecordSecretResolve(provider.Name(), "success")
	return value.Value, nil
}
