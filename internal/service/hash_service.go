package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// argon2Params pins the Argon2id cost surface. One parameter set covers both
// passwords and 4-digit transaction PINs: the PIN keyspace is tiny, so the
// memory-hard cost is what slows offline guessing, not the input length.
type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
	saltLen uint32
	keyLen  uint32
}

var defaultArgon2Params = argon2Params{
	memory:  64 * 1024, // KiB
	time:    1,
	threads: 4,
	saltLen: 16,
	keyLen:  32,
}

// Argon2HashService implements ports.HashService using Argon2id.
type Argon2HashService struct {
	params argon2Params
}

// NewArgon2HashService creates a hash service with the default cost settings.
func NewArgon2HashService() *Argon2HashService {
	return &Argon2HashService{params: defaultArgon2Params}
}

// Hash derives an Argon2id hash of the secret in the standard encoded form
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>.
func (s *Argon2HashService) Hash(secret string) (string, error) {
	salt := make([]byte, s.params.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(secret), salt, s.params.time, s.params.memory, s.params.threads, s.params.keyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		s.params.memory, s.params.time, s.params.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// Verify re-derives the key using the parameters embedded in the encoded
// hash, so stored hashes stay verifiable across cost upgrades.
func (s *Argon2HashService) Verify(secret string, encodedHash string) (bool, error) {
	salt, want, p, err := parseArgon2Hash(encodedHash)
	if err != nil {
		return false, err
	}

	got := argon2.IDKey([]byte(secret), salt, p.time, p.memory, p.threads, p.keyLen)
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

// parseArgon2Hash splits an encoded hash into its salt, key, and parameters.
func parseArgon2Hash(encodedHash string) ([]byte, []byte, argon2Params, error) {
	var p argon2Params

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return nil, nil, p, fmt.Errorf("invalid hash format: expected 6 parts, got %d", len(parts))
	}
	if parts[1] != "argon2id" {
		return nil, nil, p, fmt.Errorf("unsupported algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, p, fmt.Errorf("parsing version: %w", err)
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return nil, nil, p, fmt.Errorf("parsing parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, p, fmt.Errorf("decoding salt: %w", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, p, fmt.Errorf("decoding hash: %w", err)
	}
	p.saltLen = uint32(len(salt))
	p.keyLen = uint32(len(key))

	return salt, key, p, nil
}
