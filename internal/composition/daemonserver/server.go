package daemonserver

import (
	"io"
	"log/slog"

	"zklogin-salt/go-backend/internal/adapters/httpapi"
	"zklogin-salt/go-backend/internal/config"
	"zklogin-salt/go-backend/internal/metrics"
	"zklogin-salt/go-backend/internal/nonce"
	"zklogin-salt/go-backend/internal/platform/privacylog"
	"zklogin-salt/go-backend/internal/saltderive"
)

// NewLogger builds the process logger; every record passes through the
// privacy sanitizer.
func NewLogger(cfg config.Config, out io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var base slog.Handler
	if cfg.LogFormat == config.LogFormatText {
		base = slog.NewTextHandler(out, opts)
	} else {
		base = slog.NewJSONHandler(out, opts)
	}
	return slog.New(privacylog.WrapHandler(base))
}

// NewServer wires the deriver, nonce issuer and HTTP transport from an
// already validated configuration.
func NewServer(cfg config.Config, logger *slog.Logger) *httpapi.Server {
	deriver := saltderive.NewDeriver(cfg.Seed, saltderive.WithScheme(cfg.SaltScheme))
	issuer := nonce.NewIssuer(nonce.WithValidity(cfg.NonceTTL))
	logger.Info("salt service configured",
		"component", "daemonserver",
		"derivation_scheme", string(deriver.Scheme()),
		"nonce_validity", issuer.Validity().String(),
		"cors_origins", len(cfg.CORSOrigins),
	)
	return httpapi.NewServer(deriver, issuer, httpapi.Options{
		Addr:        cfg.ListenAddr,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
		Metrics:     metrics.New(),
	})
}
