// Package warehouse provides a thin client over analytical and
// relational databases. Snowflake is the primary target; Postgres and
// MySQL are supported for local development against the same queries.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq" // PostgreSQL driver
	sf "github.com/snowflakedb/gosnowflake"

	inferrors "github.com/subhub-ai/infra/internal/errors"
	"github.com/subhub-ai/infra/internal/logging"
	"github.com/subhub-ai/infra/pkg/metrics"
	"github.com/subhub-ai/infra/internal/secure"
)

// Driver name mapping, aliases included
var driverMap = map[string]string{
	"snowflake":  "snowflake",
	"postgresql": "postgres",
	"postgres":   "postgres",
	"mysql":      "mysql",
	"mariadb":    "mysql",
}

const defaultQueryTimeout = 300 * time.Second

// Config holds warehouse connection settings. Credential fields are
// typically populated from a secret store, not from config files.
type Config struct {
	// Driver selects the database: "snowflake", "postgres", "mysql"
	Driver string

	// Account is the Snowflake account identifier (snowflake only)
	Account string

	// Host and Port locate the server (postgres and mysql)
	Host string
	Port int

	User     string
	Password *secure.SecureBuffer

	Database string
	Schema   string

	// Warehouse and Role are Snowflake session parameters
	Warehouse string
	Role      string

	// SSLMode for postgres (default: "require")
	SSLMode string

	// QueryTimeout bounds each query (default: 300s)
	QueryTimeout time.Duration
}

// Result holds the rows returned by a query. Column order is preserved
// from the result set.
type Result struct {
	Columns []string
	Rows    []map[string]interface{}
}

// Client is an open warehouse connection. Safe for concurrent use; the
// underlying sql.DB pools connections.
type Client struct {
	db      *sql.DB
	driver  string
	timeout time.Duration
	logger  *logging.Logger
	metrics *metrics.InfraMetrics
}

// ClientOption is a functional option for configuring clients
type ClientOption func(*Client)

// WithLogger sets a custom logger
func WithLogger(logger *logging.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m *metrics.InfraMetrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithDB injects an existing database handle (for testing with sqlmock)
func WithDB(db *sql.DB) ClientOption {
	return func(c *Client) {
		c.db = db
	}
}

// Open validates the config, builds a DSN, and opens a connection pool.
// No server round-trip happens until the first query or Ping.
func Open(cfg Config, opts ...ClientOption) (*Client, error) {
	driver, ok := driverMap[strings.ToLower(cfg.Driver)]
	if !ok {
		return nil, inferrors.ConfigError{
			Field:      "driver",
			Value:      cfg.Driver,
			Message:    "unsupported warehouse driver",
			Suggestion: "Use one of: snowflake, postgres, mysql",
		}
	}

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}

	c := &Client{
		driver:  driver,
		timeout: timeout,
		logger:  logging.New(false, false),
		metrics: metrics.NewInfraMetrics(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.db == nil {
		dsn, err := buildDSN(driver, cfg)
		if err != nil {
			return nil, err
		}

		db, err := sql.Open(driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
		}
		db.SetMaxOpenConns(5)
		db.SetConnMaxIdleTime(5 * time.Minute)
		c.db = db
	}

	return c, nil
}

// buildDSN creates a driver-specific connection string. The password
// enclave is opened only for the duration of this call.
func buildDSN(driver string, cfg Config) (string, error) {
	password := ""
	if cfg.Password != nil {
		p, err := cfg.Password.OpenString()
		if err != nil {
			return "", fmt.Errorf("warehouse password unavailable: %w", err)
		}
		password = p
	}

	switch driver {
	case "snowflake":
		if cfg.Account == "" {
			return "", inferrors.ConfigError{
				Field:      "account",
				Message:    "account is required for the snowflake driver",
				Suggestion: "Set the account identifier, e.g. \"xy12345.us-east-1\"",
			}
		}
		return sf.DSN(&sf.Config{
			Account:   cfg.Account,
			User:      cfg.User,
			Password:  password,
			Database:  cfg.Database,
			Schema:    cfg.Schema,
			Warehouse: cfg.Warehouse,
			Role:      cfg.Role,
		})

	case "postgres":
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "require"
		}
		parts := []string{
			fmt.Sprintf("host=%s", cfg.Host),
			fmt.Sprintf("port=%d", cfg.Port),
			fmt.Sprintf("dbname=%s", cfg.Database),
			fmt.Sprintf("user=%s", cfg.User),
			fmt.Sprintf("sslmode=%s", sslMode),
		}
		if password != "" {
			parts = append(parts, fmt.Sprintf("password=%s", password))
		}
		if cfg.Schema != "" {
			parts = append(parts, fmt.Sprintf("options='-c search_path=%s'", cfg.Schema))
		}
		return strings.Join(parts, " "), nil

	case "mysql":
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = password
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		mc.DBName = cfg.Database
		mc.ParseTime = true
		return mc.FormatDSN(), nil

	default:
		return "", fmt.Errorf("unsupported warehouse driver: %s", driver)
	}
}

// Query executes a statement and collects all rows into memory.
// Suited to analytical result sets of moderate size, not bulk export.
func (c *Client) Query(ctx context.Context, query string, args ...interface{}) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Debug("Executing %s query", c.driver)

	start := time.Now()
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		c.metrics.RecordWarehouseQuery(c.driver, "error", time.Since(start).Seconds())
		return nil, c.wrapQueryError(err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	result := &Result{Columns: columns}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePointers := make([]interface{}, len(columns))
		for i := range values {
			valuePointers[i] = &values[i]
		}

		if err := rows.Scan(valuePointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		c.metrics.RecordWarehouseQuery(c.driver, "error", time.Since(start).Seconds())
		return nil, c.wrapQueryError(err)
	}

	c.metrics.RecordWarehouseQuery(c.driver, "success", time.Since(start).Seconds())
	return result, nil
}

// wrapQueryError classifies a driver failure. Transient failures
// (timeouts, dropped connections, throttling) get a retry suggestion;
// everything else is wrapped as-is.
func (c *Client) wrapQueryError(err error) error {
	if inferrors.IsRetryable(err) {
		return inferrors.UserError{
			Message:    fmt.Sprintf("%s query failed", c.driver),
			Details:    err.Error(),
			Suggestion: "The failure looks transient; retry the query",
			Err:        err,
		}
	}
	return fmt.Errorf("%s query failed: %w", c.driver, err)
}

// Exec executes a statement that returns no rows
func (c *Client) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s exec failed: %w", c.driver, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		// Some drivers cannot report affected rows
		return 0, nil
	}
	return affected, nil
}

// Ping verifies connectivity and credentials
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := c.db.PingContext(ctx); err != nil {
		suggestion := "Check warehouse credentials and network access"
		if inferrors.IsRetryable(err) {
			suggestion = "The failure looks transient; retry in a moment"
		}
		return inferrors.UserError{
			Message:    fmt.Sprintf("Failed to connect to %s", c.driver),
			Details:    err.Error(),
			Suggestion: suggestion,
			Err:        err,
		}
	}
	return nil
}

// Driver returns the resolved driver name
func (c *Client) Driver() string {
	return c.driver
}

// Close releases the connection pool
func (c *Client) Close() error {
	return c.db.Close()
}
