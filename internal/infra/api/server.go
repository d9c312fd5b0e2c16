package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"qr-redirect/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RateLimiter is satisfied by the Redis fixed-window limiter.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Options carries the HTTP-facing settings of the service.
type Options struct {
	RequestTimeout time.Duration
	ScanRateLimit  int
	ScanRateWindow time.Duration
	// TrustedProxies may set X-Forwarded-For and X-Real-IP; see ParseTrustedProxies.
	TrustedProxies []*net.IPNet
}

// Server holds the use cases behind the public redirect surface and the owner API.
type Server struct {
	redirect usecase.RedirectUseCase
	resolver usecase.ResolverUseCase
	recorder usecase.RecorderUseCase
	codes    usecase.CodeUseCase
	auth     *Authenticator
	limiter  RateLimiter // nil disables rate limiting
	ips      clientIPs
	opts     Options
	log      *zerolog.Logger
}

func NewServer(
	redirect usecase.RedirectUseCase,
	resolver usecase.ResolverUseCase,
	recorder usecase.RecorderUseCase,
	codes usecase.CodeUseCase,
	auth *Authenticator,
	limiter RateLimiter,
	opts Options,
	logger *zerolog.Logger,
) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	l := logger.With().Str("component", "HTTPServer").Logger()
	return &Server{
		redirect: redirect,
		resolver: resolver,
		recorder: recorder,
		codes:    codes,
		auth:     auth,
		limiter:  limiter,
		ips:      clientIPs{trusted: opts.TrustedProxies},
		opts:     opts,
		log:      &l,
	}
}

// middlewares is the chain every route runs through, outermost first.
func (s *Server) middlewares() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		TraceID(),
		Recover(s.log),
		RequestLog(s.log),
		Metrics(),
		Timeout(s.opts.RequestTimeout),
	}
}

// Routes builds the full router with the middleware chain applied.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.middlewares()...)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/redirect", redirectHandler(s.redirect, s.ips))
	r.With(CodeID("codeId")).Get("/r/{codeId}", visitHandler(s.redirect, s.ips, s.log))
	r.Post("/scans", scanCreateHandler(s.recorder, s.limiter, s.ips, s.opts, s.log))
	r.With(CodeID("id")).Get("/vcards/{id}", vcardHandler(s.resolver))
	r.With(CodeID("id")).Get("/tickets/{id}", ticketHandler(s.resolver))

	r.Route("/api/v1/codes", func(r chi.Router) {
		r.Use(s.auth.RequireOwner)
		r.Post("/", codeCreateHandler(s.codes))
		r.Get("/", codeListHandler(s.codes))
		r.Route("/{id}", func(r chi.Router) {
			r.Use(CodeID("id"))
			r.Get("/", codeGetHandler(s.codes))
			r.Delete("/", codeDeleteHandler(s.codes))
			r.Get("/scans", codeScansHandler(s.codes))
		})
	})
	return r
}
