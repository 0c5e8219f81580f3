package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("01HZX", "reports/01HZX.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	obj, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "01HZX", obj.ExportID)
	assert.Equal(t, "reports/01HZX.csv", obj.Key)
	assert.True(t, expiresAt.Equal(obj.ExpiresAt))
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	token, _, err := signer.Generate("01HZX", "reports/01HZX.csv")
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	obj, err := signer.Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	require.NotNil(t, obj)
	assert.Equal(t, "01HZX", obj.ExportID)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("01HZX", "reports/01HZX.csv")
	require.NoError(t, err)

	_, err = NewSignedURLSigner("other", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = signer.Parse("01HZY" + token[5:])
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = signer.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignedURLSignerRequiresSecret(t *testing.T) {
	_, _, err := NewSignedURLSigner("", time.Hour).Generate("id", "key")
	assert.Error(t, err)
}
