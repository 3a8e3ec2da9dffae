// Package config resolves process configuration once at startup: built-in
// defaults, then an optional YAML file, then ZKLOGIN_* environment
// variables. The master seed is validated here so a misconfigured process
// never starts serving.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"zklogin-salt/go-backend/internal/nonce"
	"zklogin-salt/go-backend/internal/saltderive"
)

const (
	DefaultListenAddr = "0.0.0.0:4000"
	LogFormatJSON     = "json"
	LogFormatText     = "text"
)

// Config is immutable once Load returns.
type Config struct {
	ListenAddr  string
	NonceTTL    time.Duration
	CORSOrigins []string
	SaltScheme  saltderive.Scheme
	LogLevel    slog.Level
	LogFormat   string
	SaltFile    string
	Seed        saltderive.MasterSeed
}

// FileConfig mirrors the YAML document. The master seed itself is never
// read from YAML; only the path of a sealed seed file is.
type FileConfig struct {
	ListenAddr  string        `yaml:"listenAddr"`
	NonceTTL    time.Duration `yaml:"nonceTTL"`
	CORSOrigins []string      `yaml:"corsOrigins"`
	SaltScheme  string        `yaml:"saltScheme"`
	LogLevel    string        `yaml:"logLevel"`
	LogFormat   string        `yaml:"logFormat"`
	SaltFile    string        `yaml:"saltFile"`
}

type envConfig struct {
	ListenAddr     string        `env:"ZKLOGIN_LISTEN_ADDR"`
	NonceTTL       time.Duration `env:"ZKLOGIN_NONCE_TTL"`
	CORSOrigins    []string      `env:"ZKLOGIN_CORS_ORIGINS" envSeparator:","`
	SaltScheme     string        `env:"ZKLOGIN_SALT_SCHEME"`
	LogLevel       string        `env:"ZKLOGIN_LOG_LEVEL"`
	LogFormat      string        `env:"ZKLOGIN_LOG_FORMAT"`
	SaltFile       string        `env:"ZKLOGIN_SALT_FILE"`
	SaltHex        string        `env:"ZKLOGIN_SALT"`
	SaltPassphrase string        `env:"ZKLOGIN_SALT_PASSPHRASE"`
}

func defaultFileConfig() FileConfig {
	return FileConfig{
		ListenAddr: DefaultListenAddr,
		NonceTTL:   nonce.DefaultValidity,
		SaltScheme: string(saltderive.SchemeConcat),
		LogLevel:   "info",
		LogFormat:  LogFormatJSON,
	}
}

// LoadDotEnv loads KEY=VALUE pairs from path without overriding variables
// already present in the environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load builds the effective configuration. configPath may be empty.
func Load(configPath string) (Config, error) {
	file := defaultFileConfig()
	if configPath = strings.TrimSpace(configPath); configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configPath, err)
		}
		var parsed FileConfig
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", configPath, err)
		}
		Merge(&file, parsed)
	}

	var fromEnv envConfig
	if err := env.Parse(&fromEnv); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	Merge(&file, FileConfig{
		ListenAddr:  fromEnv.ListenAddr,
		NonceTTL:    fromEnv.NonceTTL,
		CORSOrigins: fromEnv.CORSOrigins,
		SaltScheme:  fromEnv.SaltScheme,
		LogLevel:    fromEnv.LogLevel,
		LogFormat:   fromEnv.LogFormat,
		SaltFile:    fromEnv.SaltFile,
	})

	cfg, err := finalize(file)
	if err != nil {
		return Config{}, err
	}
	seed, err := ResolveSeed(fromEnv.SaltHex, cfg.SaltFile, fromEnv.SaltPassphrase)
	if err != nil {
		return Config{}, err
	}
	cfg.Seed = seed
	return cfg, nil
}

// Merge copies every non-zero field of src onto dst.
func Merge(dst *FileConfig, src FileConfig) {
	if v := strings.TrimSpace(src.ListenAddr); v != "" {
		dst.ListenAddr = v
	}
	if src.NonceTTL != 0 {
		dst.NonceTTL = src.NonceTTL
	}
	if origins := trimAll(src.CORSOrigins); len(origins) > 0 {
		dst.CORSOrigins = origins
	}
	if v := strings.TrimSpace(src.SaltScheme); v != "" {
		dst.SaltScheme = v
	}
	if v := strings.TrimSpace(src.LogLevel); v != "" {
		dst.LogLevel = v
	}
	if v := strings.TrimSpace(src.LogFormat); v != "" {
		dst.LogFormat = v
	}
	if v := strings.TrimSpace(src.SaltFile); v != "" {
		dst.SaltFile = v
	}
}

func finalize(file FileConfig) (Config, error) {
	if file.NonceTTL <= 0 {
		return Config{}, fmt.Errorf("nonce ttl must be positive, got %s", file.NonceTTL)
	}
	scheme, err := saltderive.ParseScheme(file.SaltScheme)
	if err != nil {
		return Config{}, err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(file.LogLevel)); err != nil {
		return Config{}, fmt.Errorf("invalid log level %q", file.LogLevel)
	}
	format := strings.ToLower(file.LogFormat)
	if format != LogFormatJSON && format != LogFormatText {
		return Config{}, fmt.Errorf("invalid log format %q", file.LogFormat)
	}
	return Config{
		ListenAddr:  file.ListenAddr,
		NonceTTL:    file.NonceTTL,
		CORSOrigins: file.CORSOrigins,
		SaltScheme:  scheme,
		LogLevel:    level,
		LogFormat:   format,
		SaltFile:    file.SaltFile,
	}, nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
