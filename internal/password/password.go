// Package password hashes and verifies login credentials with argon2id.
// A server-side pepper from configuration is mixed into every hash, so a
// dumped credential table alone is not crackable offline.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 1
	saltLen      = 16
	hashLen      = 32
)

// ErrMismatch reports a password that does not match the stored hash.
var ErrMismatch = errors.New("password mismatch")

// Hasher produces and checks peppered argon2id hashes in PHC string form.
type Hasher struct {
	pepper []byte
}

// NewHasher builds a Hasher with the configured pepper.
func NewHasher(pepper string) *Hasher {
	return &Hasher{pepper: []byte(pepper)}
}

// Hash returns a PHC-encoded argon2id hash of the peppered password.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}

	digest := argon2.IDKey(h.peppered(password), salt, argonTime, argonMemory, argonThreads, hashLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	), nil
}

// Verify checks password against an encoded hash. It recomputes with the
// parameters embedded in the hash, so older records verify after a
// parameter change. Returns ErrMismatch when the password is wrong.
func (h *Hasher) Verify(password, encoded string) error {
	params, salt, digest, err := decode(encoded)
	if err != nil {
		return err
	}

	candidate := argon2.IDKey(h.peppered(password), salt, params.time, params.memory, params.threads, uint32(len(digest)))

	if subtle.ConstantTimeCompare(candidate, digest) != 1 {
		return ErrMismatch
	}
	return nil
}

func (h *Hasher) peppered(password string) []byte {
	return append([]byte(password), h.pepper...)
}

type params struct {
	memory  uint32
	time    uint32
	threads uint8
}

func decode(encoded string) (params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return params{}, nil, nil, errors.New("malformed password hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params{}, nil, nil, errors.New("malformed password hash")
	}
	if version != argon2.Version {
		return params{}, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var p params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return params{}, nil, nil, errors.New("malformed password hash")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params{}, nil, nil, errors.New("malformed password hash")
	}
	digest, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return params{}, nil, nil, errors.New("malformed password hash")
	}

	return p, salt, digest, nil
}
