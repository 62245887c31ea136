package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestTokenCipher_RoundTrip(t *testing.T) {
	c, err := NewTokenCipher(testKey)
	require.NoError(t, err)

	enc, err := c.Encrypt("eyJhbGciOiJIUzI1NiJ9.payload.sig")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(enc, encryptedValuePrefix))
	assert.NotContains(t, enc, "payload")

	plain, err := c.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "eyJhbGciOiJIUzI1NiJ9.payload.sig", plain)
}

func TestTokenCipher_NonceIsRandom(t *testing.T) {
	c, err := NewTokenCipher(testKey)
	require.NoError(t, err)

	a, _ := c.Encrypt("same")
	b, _ := c.Encrypt("same")
	assert.NotEqual(t, a, b)
}

func TestTokenCipher_WrongKeyFails(t *testing.T) {
	c1, _ := NewTokenCipher(testKey)
	c2, _ := NewTokenCipher(testKey + "-other")

	enc, err := c1.Encrypt("secret")
	require.NoError(t, err)

	_, err = c2.Decrypt(enc)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestTokenCipher_RejectsShortKeyAndPlaintext(t *testing.T) {
	_, err := NewTokenCipher("short")
	assert.ErrorIs(t, err, ErrInvalidCipherKey)

	c, _ := NewTokenCipher(testKey)
	_, err = c.Decrypt("plain-token")
	assert.ErrorIs(t, err, ErrDecrypt)

	empty, err := c.Decrypt("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
