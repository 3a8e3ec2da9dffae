// Package saltderive turns OIDC identity claims into a stable, secret
// per-identity salt keyed by a process-wide master seed.
package saltderive

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/hkdf"
)

// Scheme selects how issuer and audience are combined into the HKDF salt.
type Scheme string

const (
	// SchemeConcat joins issuer and audience with no delimiter. Salts match
	// the reference deriver bit for bit.
	SchemeConcat Scheme = "concat"
	// SchemeLengthPrefixed prefixes each field with its big-endian uint32
	// length, so ("AB","C") and ("A","BC") no longer collide. Salts differ
	// from SchemeConcat for every identity.
	SchemeLengthPrefixed Scheme = "length-prefixed"
)

// ParseScheme maps a configured scheme name; empty selects SchemeConcat.
func ParseScheme(raw string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(raw))) {
	case "", SchemeConcat:
		return SchemeConcat, nil
	case SchemeLengthPrefixed:
		return SchemeLengthPrefixed, nil
	default:
		return "", &ConfigurationError{Reason: fmt.Sprintf("unknown salt scheme %q", raw)}
	}
}

type Option func(*Deriver)

// WithScheme overrides the default SchemeConcat.
func WithScheme(scheme Scheme) Option {
	return func(d *Deriver) {
		d.scheme = scheme
	}
}

// Deriver is immutable after construction and safe for concurrent use.
type Deriver struct {
	seed   MasterSeed
	scheme Scheme
}

func NewDeriver(seed MasterSeed, opts ...Option) *Deriver {
	d := &Deriver{seed: seed, scheme: SchemeConcat}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Scheme reports the active issuer/audience encoding.
func (d *Deriver) Scheme() Scheme {
	if d == nil {
		return ""
	}
	return d.scheme
}

// Derive computes HKDF-SHA256(ikm=seed, salt=join(iss, aud), info=sub)
// truncated to SaltSize bytes.
func (d *Deriver) Derive(claims Claims) (Salt, error) {
	if d == nil || !d.seed.Valid() {
		return Salt{}, &ConfigurationError{Reason: "master seed is not loaded"}
	}
	if err := validateClaims(claims); err != nil {
		return Salt{}, err
	}
	hkdfSalt, err := d.joinIssuerAudience(claims.Issuer, claims.Audience)
	if err != nil {
		return Salt{}, err
	}

	reader := hkdf.New(sha256.New, d.seed.key[:], hkdfSalt, []byte(claims.Subject))
	var out Salt
	if _, err := io.ReadFull(reader, out[:]); err != nil {
		return Salt{}, fmt.Errorf("hkdf expand: %w", err)
	}
	return out, nil
}

func (d *Deriver) joinIssuerAudience(issuer, audience string) ([]byte, error) {
	switch d.scheme {
	case SchemeConcat, "":
		out := make([]byte, 0, len(issuer)+len(audience))
		out = append(out, issuer...)
		return append(out, audience...), nil
	case SchemeLengthPrefixed:
		out := make([]byte, 0, 8+len(issuer)+len(audience))
		out = binary.BigEndian.AppendUint32(out, uint32(len(issuer)))
		out = append(out, issuer...)
		out = binary.BigEndian.AppendUint32(out, uint32(len(audience)))
		return append(out, audience...), nil
	default:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown salt scheme %q", d.scheme)}
	}
}

func validateClaims(claims Claims) error {
	fields := []struct {
		name  string
		value string
	}{
		{"iss", claims.Issuer},
		{"aud", claims.Audience},
		{"sub", claims.Subject},
	}
	for _, f := range fields {
		if f.value == "" {
			return &EncodingError{Field: f.name, Reason: "is required"}
		}
		if !utf8.ValidString(f.value) {
			return &EncodingError{Field: f.name, Reason: "must be valid UTF-8"}
		}
	}
	return nil
}
