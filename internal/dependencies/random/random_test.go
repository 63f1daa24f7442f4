package random

import (
	"encoding/base64"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDIsUUID(t *testing.T) {
	r := New()
	id := r.NewID()

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
	assert.NotEqual(t, id, r.NewID())
}

func TestSecretLength(t *testing.T) {
	r := New()

	decoded, err := base64.RawURLEncoding.DecodeString(r.Secret(24))
	require.NoError(t, err)
	assert.Len(t, decoded, 24)
	assert.Empty(t, r.Secret(0))
}
