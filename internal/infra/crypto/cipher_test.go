package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPass = "0123456789abcdef0123456789abcdef"

func TestCipher_RoundTrip(t *testing.T) {
	c, err := New(testPass)
	require.NoError(t, err)
	assert.False(t, c.Ephemeral())

	for _, plain := range []string{"john@okhdfcbank", "John Doe", "", "नमस्ते ☕"} {
		enc, err := c.Encrypt(plain)
		require.NoError(t, err)
		if plain != "" {
			assert.NotContains(t, enc, plain)
		}
		got, err := c.Decrypt(enc)
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	}
}

func TestCipher_SamePassphraseSurvivesRestart(t *testing.T) {
	a, err := New(testPass)
	require.NoError(t, err)
	b, err := New(testPass)
	require.NoError(t, err)

	enc, err := a.Encrypt("john@ybl")
	require.NoError(t, err)
	got, err := b.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "john@ybl", got)
}

func TestCipher_NonceIsRandom(t *testing.T) {
	c, err := New(testPass)
	require.NoError(t, err)
	x, _ := c.Encrypt("same")
	y, _ := c.Encrypt("same")
	assert.NotEqual(t, x, y)
}

func TestCipher_EphemeralKeysDoNotInteroperate(t *testing.T) {
	a, err := New("")
	require.NoError(t, err)
	assert.True(t, a.Ephemeral())
	b, err := New("")
	require.NoError(t, err)

	enc, err := a.Encrypt("secret")
	require.NoError(t, err)
	_, err = b.Decrypt(enc)
	assert.Error(t, err)
}

func TestCipher_RejectsBadInput(t *testing.T) {
	_, err := New("too-short")
	assert.Error(t, err)
	_, err = New(strings.Repeat("k", PassphraseLength+1))
	assert.Error(t, err)

	c, err := New(testPass)
	require.NoError(t, err)

	_, err = c.Decrypt("not base64 !!")
	assert.Error(t, err)
	_, err = c.Decrypt("AAAA")
	assert.ErrorIs(t, err, ErrShortCiphertext)
	// texto plano legado que no es ciphertext
	_, err = c.Decrypt("am9obkB5Ymw=")
	assert.Error(t, err)
}
