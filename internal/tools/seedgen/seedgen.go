// Package seedgen produces and recovers master seeds for the salt service.
package seedgen

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/tyler-smith/go-bip39"

	"zklogin-salt/go-backend/internal/saltderive"
	"zklogin-salt/go-backend/internal/securestore"
)

var ErrInvalidMnemonic = errors.New("mnemonic is not a valid 24-word backup")

// Config holds the parsed command line.
type Config struct {
	Mnemonic     bool
	FromMnemonic string
	SealPath     string
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	fs.BoolVar(&cfg.Mnemonic, "mnemonic", false, "also print a BIP-39 backup of the seed")
	fs.StringVar(&cfg.FromMnemonic, "from-mnemonic", "", "recover the seed from a BIP-39 backup instead of generating one")
	fs.StringVar(&cfg.SealPath, "seal", "", "write the seed to a sealed file (passphrase from ZKLOGIN_SALT_PASSPHRASE)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run produces a seed and reports it on out. reader defaults to
// crypto/rand; passphrase is only used with SealPath.
func Run(cfg Config, out io.Writer, reader io.Reader, passphrase string) error {
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}

	seed, err := obtainSeed(cfg, reader)
	if err != nil {
		return err
	}
	defer zeroBytes(seed)

	if cfg.SealPath != "" {
		if strings.TrimSpace(passphrase) == "" {
			return errors.New("ZKLOGIN_SALT_PASSPHRASE is required with -seal")
		}
		if err := securestore.WriteSealedFile(cfg.SealPath, passphrase, seed); err != nil {
			return fmt.Errorf("write sealed seed: %w", err)
		}
		if _, err := fmt.Fprintf(out, "ZKLOGIN_SALT_FILE=%s\n", cfg.SealPath); err != nil {
			return err
		}
	} else if _, err := fmt.Fprintf(out, "ZKLOGIN_SALT=%s\n", hex.EncodeToString(seed)); err != nil {
		return err
	}

	if cfg.Mnemonic {
		words, err := bip39.NewMnemonic(seed)
		if err != nil {
			return fmt.Errorf("encode mnemonic: %w", err)
		}
		if _, err := fmt.Fprintf(out, "# backup: %s\n", words); err != nil {
			return err
		}
	}
	return nil
}

func obtainSeed(cfg Config, reader io.Reader) ([]byte, error) {
	if words := strings.Join(strings.Fields(cfg.FromMnemonic), " "); words != "" {
		seed, err := bip39.EntropyFromMnemonic(words)
		if err != nil || len(seed) != saltderive.MasterSeedSize {
			return nil, ErrInvalidMnemonic
		}
		return seed, nil
	}
	seed := make([]byte, saltderive.MasterSeedSize)
	if _, err := io.ReadFull(reader, seed); err != nil {
		return nil, fmt.Errorf("generate random bytes: %w", err)
	}
	return seed, nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
