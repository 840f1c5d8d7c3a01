// Package infra is the entry point for SubHub's shared infrastructure
// clients. It wires the configured secret store into the Looker and
// warehouse clients, creating each lazily on first use.
package infra

import (
	"context"
	"fmt"
	"sync"

	"github.com/subhub-ai/infra/internal/config"
	"github.com/subhub-ai/infra/internal/logging"
	internalsecrets "github.com/subhub-ai/infra/internal/secrets"
	"github.com/subhub-ai/infra/internal/looker"
	"github.com/subhub-ai/infra/internal/warehouse"
	"github.com/subhub-ai/infra/pkg/secrets"
)

// Client is the facade over the configured infrastructure services.
// Accessors construct their client on first call and reuse it after.
// Safe for concurrent use.
type Client struct {
	def      *config.Definition
	logger   *logging.Logger
	registry *internalsecrets.Registry

	mu        sync.Mutex
	provider  secrets.Provider
	session   *looker.Session
	warehouse *warehouse.Client
	closed    bool
}

// Option is a functional option for configuring the client
type Option func(*Client)

// WithLogger sets a custom logger
func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithProvider injects a pre-built secret provider (for testing)
func WithProvider(provider secrets.Provider) Option {
	return func(c *Client) {
		c.provider = provider
	}
}

// WithLookerSession injects a pre-built Looker session (for testing)
func WithLookerSession(session *looker.Session) Option {
	return func(c *Client) {
		c.session = session
	}
}

// WithWarehouseClient injects a pre-built warehouse client (for testing)
func WithWarehouseClient(client *warehouse.Client) Option {
	return func(c *Client) {
		c.warehouse = client
	}
}

// New creates a client from a loaded configuration. No connections are
// made until a service accessor is called.
func New(def *config.Definition, opts ...Option) *Client {
	c := &Client{
		def:      def,
		logger:   logging.New(false, false),
		registry: internalsecrets.NewRegistry(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Secrets returns the configured secret store provider
func (c *Client) Secrets(ctx context.Context) (secrets.Provider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.secretsLocked(ctx)
}

func (c *Client) secretsLocked(ctx context.Context) (secrets.Provider, error) {
	if c.closed {
		return nil, fmt.Errorf("infra client is closed")
	}
	if c.provider != nil {
		return c.provider, nil
	}

	store := c.def.SecretStore
	provider, err := c.registry.CreateProvider("default", store.Type, store.Config)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Created %s secret store", store.Type)
	c.provider = provider
	return provider, nil
}

// Looker returns an authenticated-on-demand Looker session
func (c *Client) Looker(ctx context.Context) (*looker.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("infra client is closed")
	}
	if c.session != nil {
		return c.session, nil
	}

	lookerCfg := c.def.Looker
	if !lookerCfg.Configured() {
		return nil, fmt.Errorf("looker is not configured (set looker.base_url or a looker.secrets mapping)")
	}

	provider, err := c.secretsLocked(ctx)
	if err != nil {
		return nil, err
	}

	creds, err := internalsecrets.LoadLookerCredentials(ctx, provider, internalsecrets.LookerSecretNames{
		ClientID:     lookerCfg.Secrets["client_id"],
		ClientSecret: lookerCfg.Secrets["client_secret"],
		BaseURL:      lookerCfg.Secrets["base_url"],
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load Looker credentials: %w", err)
	}

	// The file wins over the store so a deployment can point at a
	// different instance without touching the vault.
	baseURL := lookerCfg.BaseURL
	if baseURL == "" {
		baseURL = creds.BaseURL
	}
	if baseURL == "" {
		return nil, fmt.Errorf("looker base URL not found: set looker.base_url or store the %s secret", internalsecrets.DefaultLookerSecretNames.BaseURL)
	}

	apiClient, err := looker.NewAPIClient(looker.ClientConfig{
		BaseURL: baseURL,
		Timeout: lookerCfg.Timeout(),
		CACert:  lookerCfg.CACert,
	})
	if err != nil {
		return nil, err
	}

	c.session = looker.NewSession(apiClient, creds, looker.SessionConfig{
		ExpiryBuffer: lookerCfg.ExpiryBuffer(),
	}, looker.WithLogger(c.logger))

	return c.session, nil
}

// Warehouse returns the configured warehouse client
func (c *Client) Warehouse(ctx context.Context) (*warehouse.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("infra client is closed")
	}
	if c.warehouse != nil {
		return c.warehouse, nil
	}

	whCfg := c.def.Warehouse
	if !whCfg.Configured() {
		return nil, fmt.Errorf("warehouse is not configured (missing warehouse.driver)")
	}

	provider, err := c.secretsLocked(ctx)
	if err != nil {
		return nil, err
	}

	cfg, err := internalsecrets.LoadWarehouseConfig(ctx, provider, whCfg.Driver, warehouseSecretNames(whCfg))
	if err != nil {
		return nil, fmt.Errorf("failed to load warehouse credentials: %w", err)
	}
	cfg.SSLMode = whCfg.SSLMode
	cfg.QueryTimeout = whCfg.Timeout()

	client, err := warehouse.Open(cfg, warehouse.WithLogger(c.logger))
	if err != nil {
		return nil, err
	}

	c.warehouse = client
	return client, nil
}

// warehouseSecretNames maps config secret names onto the loader's
// struct, leaving unset fields to the loader defaults.
func warehouseSecretNames(cfg config.WarehouseConfig) internalsecrets.WarehouseSecretNames {
	if len(cfg.Secrets) == 0 {
		return internalsecrets.WarehouseSecretNames{}
	}
	return internalsecrets.WarehouseSecretNames{
		Username:  cfg.Secrets["username"],
		Password:  cfg.Secrets["password"],
		Account:   cfg.Secrets["account"],
		Role:      cfg.Secrets["role"],
		Warehouse: cfg.Secrets["warehouse"],
		Database:  cfg.Secrets["database"],
		Schema:    cfg.Secrets["schema"],
		Host:      cfg.Secrets["host"],
		Port:      cfg.Secrets["port"],
	}
}

// Initialize eagerly constructs and checks every configured service.
// Useful at process startup to fail fast on bad credentials.
func (c *Client) Initialize(ctx context.Context) error {
	provider, err := c.Secrets(ctx)
	if err != nil {
		return err
	}
	if err := provider.Validate(ctx); err != nil {
		return err
	}

	if c.def.Looker.Configured() {
		session, err := c.Looker(ctx)
		if err != nil {
			return err
		}
		if err := session.Authenticate(ctx); err != nil {
			return err
		}
	}

	if c.def.Warehouse.Configured() {
		client, err := c.Warehouse(ctx)
		if err != nil {
			return err
		}
		if err := client.Ping(ctx); err != nil {
			return err
		}
	}

	return nil
}

// Close releases every constructed service. The client cannot be
// reused afterwards.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var firstErr error
	if c.session != nil {
		if err := c.session.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.warehouse != nil {
		if err := c.warehouse.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
