package securestore

import (
	"os"
	"path/filepath"
)

// ReadSealedFile reads and opens a file written by WriteSealedFile.
func ReadSealedFile(path, passphrase string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Open(passphrase, raw)
}

// WriteSealedFile seals plaintext and writes it owner-readable only.
func WriteSealedFile(path, passphrase string, plaintext []byte) error {
	sealed, err := Seal(passphrase, plaintext)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, sealed, 0o600)
}
