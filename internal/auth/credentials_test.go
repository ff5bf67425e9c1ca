package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentials(t *testing.T) {
	hash, err := HashPassword("1234")
	require.NoError(t, err)

	tests := []struct {
		name     string
		hash     string
		password string
	}{
		{name: "from hash", hash: hash},
		{name: "from plaintext", password: "1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCredentials("admin", tt.hash, tt.password)
			require.NoError(t, err)
			require.True(t, c.Enabled())

			assert.NoError(t, c.Verify("admin", "1234"))
			assert.ErrorIs(t, c.Verify("admin", "wrong"), ErrInvalidCredentials)
			assert.ErrorIs(t, c.Verify("root", "1234"), ErrInvalidCredentials)
			assert.ErrorIs(t, c.Verify("", ""), ErrInvalidCredentials)
		})
	}
}

func TestCredentialsDisabledWithoutPassword(t *testing.T) {
	c, err := NewCredentials("admin", "", "")
	require.NoError(t, err)
	assert.False(t, c.Enabled())
	assert.ErrorIs(t, c.Verify("admin", ""), ErrInvalidCredentials)
}

func TestCredentialsRejectMalformedHash(t *testing.T) {
	_, err := NewCredentials("admin", "plainly-not-bcrypt", "")
	assert.Error(t, err)
}
