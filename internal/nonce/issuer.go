// Package nonce issues the ephemeral-key commitment a client embeds in the
// nonce field of its OIDC authorization request. Nothing is retained after
// issuance.
package nonce

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

const DefaultValidity = time.Hour

var ErrMalformed = errors.New("nonce is malformed")

// Material is the payload serialized into the nonce.
type Material struct {
	EphemeralPublicKey []byte
	MaxEpoch           int64
	JWTRandomness      string
}

type wireMaterial struct {
	EphPK         string `json:"eph_pk"`
	MaxEpoch      int64  `json:"max_epoch"`
	JWTRandomness string `json:"jwt_randomness"`
}

func (m Material) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireMaterial{
		EphPK:         base64.StdEncoding.EncodeToString(m.EphemeralPublicKey),
		MaxEpoch:      m.MaxEpoch,
		JWTRandomness: m.JWTRandomness,
	})
}

func (m *Material) UnmarshalJSON(data []byte) error {
	var wire wireMaterial
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	pub, err := base64.StdEncoding.DecodeString(wire.EphPK)
	if err != nil {
		return fmt.Errorf("eph_pk: %w", err)
	}
	m.EphemeralPublicKey = pub
	m.MaxEpoch = wire.MaxEpoch
	m.JWTRandomness = wire.JWTRandomness
	return nil
}

// Response is what the client receives.
type Response struct {
	Nonce string `json:"nonce"`
}

type Option func(*Issuer)

// WithValidity sets how far in the future max_epoch lies. Non-positive
// values keep DefaultValidity.
func WithValidity(d time.Duration) Option {
	return func(i *Issuer) {
		if d > 0 {
			i.validity = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// WithRandom replaces the CSPRNG used for keypairs and randomness.
func WithRandom(r io.Reader) Option {
	return func(i *Issuer) {
		if r != nil {
			i.random = r
		}
	}
}

// Issuer is stateless and safe for concurrent use.
type Issuer struct {
	validity time.Duration
	now      func() time.Time
	random   io.Reader
}

func NewIssuer(opts ...Option) *Issuer {
	i := &Issuer{
		validity: DefaultValidity,
		now:      time.Now,
		random:   rand.Reader,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}
	return i
}

// Validity reports the configured window.
func (i *Issuer) Validity() time.Duration {
	return i.validity
}

// Issue generates fresh material and its opaque encoding. An error means
// the random source failed.
func (i *Issuer) Issue() (Response, Material, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(i.random, seed); err != nil {
		return Response{}, Material{}, fmt.Errorf("generate ephemeral keypair: %w", err)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	zeroBytes(seed)
	zeroBytes(priv)

	randomness, err := uuid.NewRandomFromReader(i.random)
	if err != nil {
		return Response{}, Material{}, fmt.Errorf("generate jwt randomness: %w", err)
	}

	material := Material{
		EphemeralPublicKey: pub,
		MaxEpoch:           i.now().Add(i.validity).Unix(),
		JWTRandomness:      randomness.String(),
	}
	encoded, err := Encode(material)
	if err != nil {
		return Response{}, Material{}, err
	}
	return Response{Nonce: encoded}, material, nil
}

// Encode serializes material into the nonce wire form.
func Encode(m Material) (string, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal nonce material: %w", err)
	}
	return base64.StdEncoding.EncodeToString(payload), nil
}

// Decode parses a nonce produced by Encode.
func Decode(nonce string) (Material, error) {
	payload, err := base64.StdEncoding.DecodeString(nonce)
	if err != nil {
		return Material{}, ErrMalformed
	}
	var m Material
	if err := json.Unmarshal(payload, &m); err != nil {
		return Material{}, ErrMalformed
	}
	if len(m.EphemeralPublicKey) != ed25519.PublicKeySize || m.JWTRandomness == "" {
		return Material{}, ErrMalformed
	}
	return m, nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
