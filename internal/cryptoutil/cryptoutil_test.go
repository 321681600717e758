package cryptoutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sajansharmanz/accountd/internal/domain/model"
)

func TestHashToken_Deterministic(t *testing.T) {
	h1 := HashToken("abc123")
	h2 := HashToken("abc123")

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	assert.NotEqual(t, h1, HashToken("abc124"))
}

func TestRandomHex(t *testing.T) {
	v1, err := RandomHex(32)
	require.NoError(t, err)
	v2, err := RandomHex(32)
	require.NoError(t, err)

	assert.Len(t, v1, 64)
	assert.NotEqual(t, v1, v2)
}

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher("test-encryption-secret")
	require.NoError(t, err)

	sec, err := c.Encrypt("JBSWY3DPEHPK3PXP")
	require.NoError(t, err)
	require.True(t, sec.Complete())

	plain, err := c.Decrypt(sec)
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", plain)
}

func TestCipher_NonceVariesPerCall(t *testing.T) {
	c, err := NewCipher("test-encryption-secret")
	require.NoError(t, err)

	a, err := c.Encrypt("same-plaintext")
	require.NoError(t, err)
	b, err := c.Encrypt("same-plaintext")
	require.NoError(t, err)

	assert.NotEqual(t, a.IV, b.IV)
	assert.NotEqual(t, a.Ciphertext, b.Ciphertext)
}

func TestCipher_Decrypt_Tampered(t *testing.T) {
	c, err := NewCipher("test-encryption-secret")
	require.NoError(t, err)

	sec, err := c.Encrypt("JBSWY3DPEHPK3PXP")
	require.NoError(t, err)

	tampered := sec
	flip := "00"
	if sec.AuthTag[62:] == "00" {
		flip = "ff"
	}
	tampered.AuthTag = sec.AuthTag[:62] + flip
	_, err = c.Decrypt(tampered)
	assert.ErrorIs(t, err, ErrDecrypt)

	garbage := model.EncryptedSecret{Ciphertext: "zz", IV: "zz", AuthTag: "zz"}
	_, err = c.Decrypt(garbage)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestCipher_Decrypt_WrongKey(t *testing.T) {
	c1, err := NewCipher("secret-one")
	require.NoError(t, err)
	c2, err := NewCipher("secret-two")
	require.NoError(t, err)

	sec, err := c1.Encrypt("JBSWY3DPEHPK3PXP")
	require.NoError(t, err)

	_, err = c2.Decrypt(sec)
	assert.ErrorIs(t, err, ErrDecrypt)
}
