package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"zklogin-salt/go-backend/internal/saltderive"
	"zklogin-salt/go-backend/internal/securestore"
)

var zeroSeedHex = strings.Repeat("00", saltderive.MasterSeedSize)

var allEnvKeys = []string{
	"ZKLOGIN_LISTEN_ADDR",
	"ZKLOGIN_NONCE_TTL",
	"ZKLOGIN_CORS_ORIGINS",
	"ZKLOGIN_SALT_SCHEME",
	"ZKLOGIN_LOG_LEVEL",
	"ZKLOGIN_LOG_FORMAT",
	"ZKLOGIN_SALT_FILE",
	"ZKLOGIN_SALT",
	"ZKLOGIN_SALT_PASSPHRASE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvKeys {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("ZKLOGIN_SALT", zeroSeedHex)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != DefaultListenAddr {
		t.Fatalf("listen addr = %q", cfg.ListenAddr)
	}
	if cfg.NonceTTL != time.Hour {
		t.Fatalf("nonce ttl = %s", cfg.NonceTTL)
	}
	if cfg.SaltScheme != saltderive.SchemeConcat {
		t.Fatalf("scheme = %q", cfg.SaltScheme)
	}
	if cfg.LogLevel != slog.LevelInfo || cfg.LogFormat != LogFormatJSON {
		t.Fatalf("unexpected logging config: %v %q", cfg.LogLevel, cfg.LogFormat)
	}
	if len(cfg.CORSOrigins) != 0 {
		t.Fatalf("expected no configured origins, got %v", cfg.CORSOrigins)
	}
	if !cfg.Seed.Valid() {
		t.Fatal("expected a valid seed")
	}
}

func TestLoadYAMLThenEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
listenAddr: 127.0.0.1:9000
nonceTTL: 30m
corsOrigins:
  - https://app.example.com
saltScheme: length-prefixed
logLevel: debug
logFormat: text
`)
	t.Setenv("ZKLOGIN_SALT", zeroSeedHex)
	t.Setenv("ZKLOGIN_LISTEN_ADDR", "127.0.0.1:9100")
	t.Setenv("ZKLOGIN_CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:9100" {
		t.Fatalf("env must override yaml listen addr, got %q", cfg.ListenAddr)
	}
	if cfg.NonceTTL != 30*time.Minute {
		t.Fatalf("nonce ttl = %s", cfg.NonceTTL)
	}
	if cfg.SaltScheme != saltderive.SchemeLengthPrefixed {
		t.Fatalf("scheme = %q", cfg.SaltScheme)
	}
	if cfg.LogLevel != slog.LevelDebug || cfg.LogFormat != LogFormatText {
		t.Fatalf("unexpected logging config: %v %q", cfg.LogLevel, cfg.LogFormat)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if strings.Join(cfg.CORSOrigins, "|") != strings.Join(want, "|") {
		t.Fatalf("origins = %v, want %v", cfg.CORSOrigins, want)
	}
}

func TestLoadFailsFastOnSeedProblems(t *testing.T) {
	cases := map[string]string{
		"missing":   "",
		"non-hex":   strings.Repeat("zz", 32),
		"too short": strings.Repeat("00", 31),
		"too long":  strings.Repeat("00", 33),
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			if value != "" {
				t.Setenv("ZKLOGIN_SALT", value)
			}
			_, err := Load("")
			if !errors.Is(err, saltderive.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	cases := map[string][2]string{
		"ttl":        {"ZKLOGIN_NONCE_TTL", "-1m"},
		"scheme":     {"ZKLOGIN_SALT_SCHEME", "delimited"},
		"log level":  {"ZKLOGIN_LOG_LEVEL", "loud"},
		"log format": {"ZKLOGIN_LOG_FORMAT", "xml"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("ZKLOGIN_SALT", zeroSeedHex)
			t.Setenv(kv[0], kv[1])
			if _, err := Load(""); err == nil {
				t.Fatalf("expected error for %s=%s", kv[0], kv[1])
			}
		})
	}
}

func TestLoadMissingConfigFileFails(t *testing.T) {
	clearEnv(t)
	t.Setenv("ZKLOGIN_SALT", zeroSeedHex)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestResolveSeedFromSealedFile(t *testing.T) {
	raw := make([]byte, saltderive.MasterSeedSize)
	path := filepath.Join(t.TempDir(), "master.seed")
	if err := securestore.WriteSealedFile(path, "pass", raw); err != nil {
		t.Fatalf("write sealed file: %v", err)
	}

	seed, err := ResolveSeed("", path, "pass")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	salt, err := saltderive.NewDeriver(seed).Derive(saltderive.Claims{
		Issuer:   "https://accounts.example.com",
		Audience: "client123",
		Subject:  "user456",
	})
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if salt.Hex() != "92ec29fcaa8d957d4e39c2c7e3c6e007" {
		t.Fatalf("sealed seed derived %s", salt.Hex())
	}

	if _, err := ResolveSeed("", path, "wrong"); !errors.Is(err, saltderive.ErrConfiguration) || !errors.Is(err, securestore.ErrAuthFailed) {
		t.Fatalf("expected configuration error wrapping ErrAuthFailed, got %v", err)
	}
	if _, err := ResolveSeed("", path, ""); !errors.Is(err, saltderive.ErrConfiguration) {
		t.Fatalf("expected passphrase requirement, got %v", err)
	}
}

func TestResolveSeedRejectsSealedSeedOfWrongLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.seed")
	if err := securestore.WriteSealedFile(path, "pass", make([]byte, 16)); err != nil {
		t.Fatalf("write sealed file: %v", err)
	}
	if _, err := ResolveSeed("", path, "pass"); !errors.Is(err, saltderive.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestResolveSeedRejectsConflictingSources(t *testing.T) {
	if _, err := ResolveSeed(zeroSeedHex, "/tmp/seed", "pass"); !errors.Is(err, saltderive.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("ZKLOGIN_LISTEN_ADDR", "127.0.0.1:1111")
	path := writeFile(t, ".env", "ZKLOGIN_SALT="+zeroSeedHex+"\nZKLOGIN_LISTEN_ADDR=127.0.0.1:2222\n")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("ZKLOGIN_SALT") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:1111" {
		t.Fatalf("dotenv must not override the environment, got %q", cfg.ListenAddr)
	}
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing env file must be ignored, got %v", err)
	}
}
