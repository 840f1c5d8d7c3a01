package warehouse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subhub-ai/infra/internal/secure"
)

func TestBuildSnowflakeDSN(t *testing.T) {
	t.Parallel()

	dsn, err := buildDSN("snowflake", Config{
		Driver:    "snowflake",
		Account:   "xy12345.us-east-1",
		User:      "etl_user",
		Password:  secure.NewSecureString("hunter2"),
		Database:  "ANALYTICS",
		Schema:    "PUBLIC",
		Warehouse: "COMPUTE_WH",
		Role:      "ANALYST",
	})
	require.NoError(t, err)

	assert.Contains(t, dsn, "etl_user")
	assert.Contains(t, dsn, "xy12345.us-east-1")
	assert.Contains(t, dsn, "ANALYTICS")
	assert.Contains(t, dsn, "warehouse=COMPUTE_WH")
	assert.Contains(t, dsn, "role=ANALYST")
}

func TestBuildSnowflakeDSNRequiresAccount(t *testing.T) {
	t.Parallel()

	_, err := buildDSN("snowflake", Config{Driver: "snowflake", User: "u"})
	assert.Error(t, err)
}

func TestBuildPostgresDSN(t *testing.T) {
	t.Parallel()

	dsn, err := buildDSN("postgres", Config{
		Host:     "localhost",
		Port:     5432,
		User:     "app",
		Password: secure.NewSecureString("pw"),
		Database: "appdb",
	})
	require.NoError(t, err)

	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "port=5432")
	assert.Contains(t, dsn, "dbname=appdb")
	assert.Contains(t, dsn, "user=app")
	assert.Contains(t, dsn, "password=pw")
	assert.Contains(t, dsn, "sslmode=require")
}

func TestBuildMySQLDSN(t *testing.T) {
	t.Parallel()

	dsn, err := buildDSN("mysql", Config{
		Host:     "db.internal",
		Port:     3306,
		User:     "app",
		Password: secure.NewSecureString("pw"),
		Database: "appdb",
	})
	require.NoError(t, err)

	assert.Contains(t, dsn, "app:pw@tcp(db.internal:3306)/appdb")
	assert.Contains(t, dsn, "parseTime=true")
}

func TestBuildDSNWithoutPassword(t *testing.T) {
	t.Parallel()

	dsn, err := buildDSN("postgres", Config{
		Host:     "localhost",
		Port:     5432,
		User:     "app",
		Database: "appdb",
	})
	require.NoError(t, err)
	assert.NotContains(t, dsn, "password=")
}
