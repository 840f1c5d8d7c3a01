package secrets_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalsecrets "github.com/subhub-ai/infra/internal/secrets"
	"github.com/subhub-ai/infra/pkg/secrets"
)

func TestStaticProviderResolve(t *testing.T) {
	t.Parallel()

	p, err := internalsecrets.NewStaticProvider("static", map[string]interface{}{
		"values": map[string]interface{}{
			"looker-client-id": "id-123",
		},
	})
	require.NoError(t, err)

	value, err := p.Resolve(context.Background(), secrets.Reference{Key: "looker-client-id"})
	require.NoError(t, err)
	assert.Equal(t, "id-123", value.Value)
}

func TestStaticProviderNotFound(t *testing.T) {
	t.Parallel()

	p, err := internalsecrets.NewStaticProvider("static", map[string]interface{}{})
	require.NoError(t, err)

	_, err = p.Resolve(context.Background(), secrets.Reference{Key: "missing"})
	require.Error(t, err)

	var notFound secrets.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestStaticProviderEnvIndirection(t *testing.T) {
	t.Setenv("TEST_STATIC_SECRET", "from-env")

	p, err := internalsecrets.NewStaticProvider("static", map[string]interface{}{
		"values": map[string]interface{}{
			"api-key": "env:TEST_STATIC_SECRET",
		},
	})
	require.NoError(t, err)

	value, err := p.Resolve(context.Background(), secrets.Reference{Key: "api-key"})
	require.NoError(t, err)
	assert.Equal(t, "from-env", value.Value)
}

func TestStaticProviderJSONField(t *testing.T) {
	t.Parallel()

	p, err := internalsecrets.NewStaticProvider("static", map[string]interface{}{
		"values": map[string]interface{}{
			"db-config": `{"user": "app"}`,
		},
	})
	require.NoError(t, err)

	value, err := p.Resolve(context.Background(), secrets.Reference{Key: "db-config", Field: "user"})
	require.NoError(t, err)
	assert.Equal(t, "app", value.Value)
}

func TestStaticProviderDescribe(t *testing.T) {
	t.Parallel()

	p, err := internalsecrets.NewStaticProvider("static", map[string]interface{}{
		"values": map[string]interface{}{"present": "value"},
	})
	require.NoError(t, err)

	metadata, err := p.Describe(context.Background(), secrets.Reference{Key: "present"})
	require.NoError(t, err)
	assert.True(t, metadata.Exists)

	metadata, err = p.Describe(context.Background(), secrets.Reference{Key: "absent"})
	require.NoError(t, err)
	assert.False(t, metadata.Exists)
}

func TestMockProviderFailures(t *testing.T) {
	t.Parallel()

	mock := internalsecrets.NewMockProvider("mock")
	mock.SetValue("good", "value")
	mock.SetFailure("bad", assert.AnError)

	value, err := mock.Resolve(context.Background(), secrets.Reference{Key: "good"})
	require.NoError(t, err)
	assert.Equal(t, "value", value.Value)

	_, err = mock.Resolve(context.Background(), secrets.Reference{Key: "bad"})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestMockProviderDelayHonorsContext(t *testing.T) {
	t.Parallel()

	mock := internalsecrets.NewMockProvider("mock")
	mock.SetValue("slow", "value")
	mock.SetDelay(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := mock.Resolve(ctx, secrets.Reference{Key: "slow"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
