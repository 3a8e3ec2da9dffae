package config

import (
	"strings"

	"zklogin-salt/go-backend/internal/saltderive"
	"zklogin-salt/go-backend/internal/securestore"
)

// ResolveSeed picks the master seed from exactly one source: a hex value
// or a sealed file plus passphrase. Every failure is a
// saltderive.ConfigurationError.
func ResolveSeed(hexValue, sealedPath, passphrase string) (saltderive.MasterSeed, error) {
	hexValue = strings.TrimSpace(hexValue)
	sealedPath = strings.TrimSpace(sealedPath)
	switch {
	case hexValue != "" && sealedPath != "":
		return saltderive.MasterSeed{}, &saltderive.ConfigurationError{Reason: "set either ZKLOGIN_SALT or ZKLOGIN_SALT_FILE, not both"}
	case hexValue != "":
		return saltderive.ParseMasterSeed(hexValue)
	case sealedPath != "":
		if strings.TrimSpace(passphrase) == "" {
			return saltderive.MasterSeed{}, &saltderive.ConfigurationError{Reason: "ZKLOGIN_SALT_PASSPHRASE is required with ZKLOGIN_SALT_FILE"}
		}
		raw, err := securestore.ReadSealedFile(sealedPath, passphrase)
		if err != nil {
			return saltderive.MasterSeed{}, &saltderive.ConfigurationError{Reason: "cannot open sealed master seed", Err: err}
		}
		defer zeroBytes(raw)
		return saltderive.NewMasterSeed(raw)
	default:
		return saltderive.MasterSeed{}, &saltderive.ConfigurationError{Reason: "ZKLOGIN_SALT env var not set"}
	}
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
