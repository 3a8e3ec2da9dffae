package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"zklogin-salt/go-backend/internal/metrics"
	"zklogin-salt/go-backend/internal/nonce"
	"zklogin-salt/go-backend/internal/saltderive"
)

const (
	DefaultAddr     = "0.0.0.0:4000"
	shutdownTimeout = 5 * time.Second
	maxBodyBytes    = 64 << 10
)

// SaltDeriver is satisfied by *saltderive.Deriver.
type SaltDeriver interface {
	Derive(claims saltderive.Claims) (saltderive.Salt, error)
}

// NonceIssuer is satisfied by *nonce.Issuer.
type NonceIssuer interface {
	Issue() (nonce.Response, nonce.Material, error)
}

type Options struct {
	Addr        string
	CORSOrigins []string
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

type Server struct {
	httpServer *http.Server
	deriver    SaltDeriver
	issuer     NonceIssuer
	logger     *slog.Logger
	metrics    *metrics.Metrics
	initErr    error
}

func NewServer(deriver SaltDeriver, issuer NonceIssuer, opts Options) *Server {
	if deriver == nil || issuer == nil {
		return &Server{initErr: errors.New("httpapi: deriver and issuer are required")}
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{
		deriver: deriver,
		issuer:  issuer,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.instrument("healthz", s.handleHealth))
	mux.HandleFunc("/salt", s.instrument("salt", s.handleSalt))
	mux.HandleFunc("/api/zklogin/salt", s.instrument("salt", s.handleSalt))
	mux.HandleFunc("/nonce", s.instrument("nonce", s.handleNonce))
	mux.HandleFunc("/api/zklogin/nonce", s.instrument("nonce", s.handleNonce))
	if opts.Metrics != nil {
		mux.Handle("/metrics", opts.Metrics.Handler())
	}

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           newCORS(opts.CORSOrigins).Handler(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	return s
}

// Handler exposes the routed handler, CORS included.
func (s *Server) Handler() http.Handler {
	if s.httpServer == nil {
		return http.NotFoundHandler()
	}
	return s.httpServer.Handler
}

func (s *Server) Addr() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s.initErr != nil {
		return s.initErr
	}
	select {
	case <-ctx.Done():
		return nil
	default:
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	s.logger.Info("http server listening", "component", "httpapi", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		err := s.httpServer.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
			return
		}
		errCh <- err
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		defer s.metrics.ObserveRequest(route, started)
		next(w, r)
	}
}
