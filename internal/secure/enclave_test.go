package secure_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subhub-ai/infra/internal/secure"
)

func TestSecureBufferRoundTrip(t *testing.T) {
	buf := secure.NewSecureString("client-secret-value")
	defer buf.Destroy()

	got, err := buf.OpenString()
	require.NoError(t, err)
	assert.Equal(t, "client-secret-value", got)

	// The enclave survives repeated opens.
	got, err = buf.OpenString()
	require.NoError(t, err)
	assert.Equal(t, "client-secret-value", got)
}

func TestSecureBufferOpenLockedBuffer(t *testing.T) {
	buf := secure.NewSecureBuffer([]byte("password"))
	defer buf.Destroy()

	locked, err := buf.Open()
	require.NoError(t, err)
	defer locked.Destroy()

	assert.Equal(t, []byte("password"), locked.Bytes())
}

func TestSecureBufferEmptyValue(t *testing.T) {
	buf := secure.NewSecureString("")
	defer buf.Destroy()

	// A store can hold a legitimately empty value; that must not panic.
	got, err := buf.OpenString()
	require.NoError(t, err)
	assert.Empty(t, got)

	locked, err := buf.Open()
	require.NoError(t, err)
	assert.Nil(t, locked)
}

func TestSecureBufferDestroyIsIdempotent(t *testing.T) {
	buf := secure.NewSecureString("secret")

	buf.Destroy()
	buf.Destroy()

	got, err := buf.OpenString()
	require.NoError(t, err)
	assert.Empty(t, got)
}
