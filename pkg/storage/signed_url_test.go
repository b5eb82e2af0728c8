package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)

	token, expires, err := signer.Generate("pass-1", "proofs/abc.pdf")
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))

	passID, relPath, _, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "pass-1", passID)
	assert.Equal(t, "proofs/abc.pdf", relPath)
}

func TestSignedURLTamperedSignature(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)

	token, _, err := signer.Generate("pass-1", "proofs/abc.pdf")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[3] = strings.Repeat("0", len(parts[3]))
	_, _, _, err = signer.Parse(strings.Join(parts, "."))
	assert.Error(t, err)
}

func TestSignedURLWrongSecret(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	other := NewSignedURLSigner("different", time.Minute)

	token, _, err := signer.Generate("pass-1", "proofs/abc.pdf")
	require.NoError(t, err)

	_, _, _, err = other.Parse(token)
	assert.Error(t, err)
}

func TestSignedURLExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	signer.ttl = -time.Minute

	token, _, err := signer.Generate("pass-1", "proofs/abc.pdf")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token)
	assert.Error(t, err)
}

func TestSignedURLRequiresInputs(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	_, _, err := signer.Generate("", "proofs/abc.pdf")
	assert.Error(t, err)
	_, _, err = signer.Generate("pass-1", "")
	assert.Error(t, err)
}
