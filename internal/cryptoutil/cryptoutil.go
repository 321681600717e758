// Package cryptoutil provides the primitives behind token storage and
// OTP seed protection: one-way hashing for lookup keys, random bearer
// material, and authenticated encryption for secrets at rest.
package cryptoutil

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"

	"github.com/sajansharmanz/accountd/internal/domain/model"
)

const (
	keyLen   = 32
	nonceLen = 12
	tagLen   = 16
)

// ErrDecrypt reports ciphertext that fails authentication or decoding.
// Callers must treat the stored secret as unusable.
var ErrDecrypt = errors.New("decrypt failed")

// HashToken returns the hex SHA-256 digest of a bearer token. Stored
// records hold only this digest; the raw value never touches storage.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// RandomHex returns n random bytes encoded as a hex string of length 2n.
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Cipher encrypts and decrypts small secrets with AES-256-GCM. The key
// is derived once from the configured encryption secret via scrypt.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives a 256-bit key from secret and prepares the AEAD.
func NewCipher(secret string) (*Cipher, error) {
	key, err := scrypt.Key([]byte(secret), []byte("salt"), 16384, 8, 1, keyLen)
	if err != nil {
		return nil, fmt.Errorf("derive encryption key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce. The result splits
// ciphertext, nonce, and authentication tag into separate hex fields, the
// shape the user record stores them in.
func (c *Cipher) Encrypt(plaintext string) (model.EncryptedSecret, error) {
	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return model.EncryptedSecret{}, fmt.Errorf("read nonce: %w", err)
	}

	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	ct, tag := sealed[:len(sealed)-tagLen], sealed[len(sealed)-tagLen:]

	return model.EncryptedSecret{
		Ciphertext: hex.EncodeToString(ct),
		IV:         hex.EncodeToString(nonce),
		AuthTag:    hex.EncodeToString(tag),
	}, nil
}

// Decrypt opens a stored secret. Any tampering with ciphertext, nonce,
// or tag yields ErrDecrypt.
func (c *Cipher) Decrypt(sec model.EncryptedSecret) (string, error) {
	ct, err := hex.DecodeString(sec.Ciphertext)
	if err != nil {
		return "", ErrDecrypt
	}
	nonce, err := hex.DecodeString(sec.IV)
	if err != nil || len(nonce) != nonceLen {
		return "", ErrDecrypt
	}
	tag, err := hex.DecodeString(sec.AuthTag)
	if err != nil || len(tag) != tagLen {
		return "", ErrDecrypt
	}

	plaintext, err := c.aead.Open(nil, nonce, append(ct, tag...), nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}
