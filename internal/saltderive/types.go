package saltderive

import (
	"encoding/hex"
	"strings"
)

const (
	// MasterSeedSize is the required length of the deriver key material.
	MasterSeedSize = 32
	// SaltSize is the length of every derived salt.
	SaltSize = 16
)

// MasterSeed is the process-wide secret all salts are derived from.
// The zero value is not a usable seed.
type MasterSeed struct {
	key   [MasterSeedSize]byte
	valid bool
}

// NewMasterSeed copies b into a seed; b must be exactly MasterSeedSize bytes.
func NewMasterSeed(b []byte) (MasterSeed, error) {
	if len(b) != MasterSeedSize {
		return MasterSeed{}, &ConfigurationError{Reason: "master seed must be 32 bytes"}
	}
	var seed MasterSeed
	copy(seed.key[:], b)
	seed.valid = true
	return seed, nil
}

// ParseMasterSeed decodes a 64-character hex string into a seed.
func ParseMasterSeed(raw string) (MasterSeed, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return MasterSeed{}, &ConfigurationError{Reason: "master seed is not set"}
	}
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return MasterSeed{}, &ConfigurationError{Reason: "master seed must be valid hex", Err: err}
	}
	defer zeroBytes(decoded)
	if len(decoded) != MasterSeedSize {
		return MasterSeed{}, &ConfigurationError{Reason: "master seed must be 32 bytes (64 hex chars)"}
	}
	return NewMasterSeed(decoded)
}

// Valid reports whether the seed was constructed from well-formed input.
func (s MasterSeed) Valid() bool {
	return s.valid
}

// Claims identifies one OIDC principal. Values are treated as opaque bytes.
type Claims struct {
	Issuer   string `json:"iss"`
	Audience string `json:"aud"`
	Subject  string `json:"sub"`
}

// Salt is the derived per-identity value.
type Salt [SaltSize]byte

// Hex returns the lowercase hex transport form.
func (s Salt) Hex() string {
	return hex.EncodeToString(s[:])
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
