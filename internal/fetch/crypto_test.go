package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plain := []byte("%PDF-1.4 pretend document body")

	enc, err := Encrypt(plain, "hunter2")
	require.NoError(t, err)
	assert.True(t, IsEncrypted(enc))
	assert.NotEqual(t, plain, enc)

	dec, err := Decrypt(enc, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, plain, dec)
}

func TestDecryptWrongPassword(t *testing.T) {
	enc, err := Encrypt([]byte("secret payload"), "correct")
	require.NoError(t, err)

	_, err = Decrypt(enc, "incorrect")
	assert.Error(t, err)
}

func TestDecryptPlainPassthrough(t *testing.T) {
	plain := []byte("not encrypted at all")
	assert.False(t, IsEncrypted(plain))

	out, err := Decrypt(plain, "whatever")
	require.NoError(t, err)
	assert.Equal(t, plain, out)
}
