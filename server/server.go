// Package server exposes the conversion service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/xeptore/tubecast/acquire"
	"github.com/xeptore/tubecast/config"
	"github.com/xeptore/tubecast/job"
	"github.com/xeptore/tubecast/ratelimit"
)

type Server struct {
	logger      zerolog.Logger
	conf        config.Server
	workdirBase string
	orch        *acquire.Orchestrator
	prober      *Prober
	worker      *job.Worker
	limiter     *ratelimit.Limiter
}

func New(
	logger zerolog.Logger,
	conf config.Server,
	workdirBase string,
	orch *acquire.Orchestrator,
	prober *Prober,
) *Server {
	return &Server{
		logger:      logger,
		conf:        conf,
		workdirBase: workdirBase,
		orch:        orch,
		prober:      prober,
		worker:      job.NewWorker(conf.MaxJobs),
		limiter:     ratelimit.New(conf.RateLimit, conf.RateBurst),
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(requestIDField)
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/debug", s.handleDebug)
	r.With(s.limiter.Middleware).Get("/convert", s.handleConvert)

	return r
}

// Start listens on the configured address and serves until ctx is done, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.conf.Addr)
	if nil != err {
		return fmt.Errorf("failed to listen on %s: %v", s.conf.Addr, err)
	}

	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{ //nolint:exhaustruct
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.conf.ReadHeaderTimeout.Duration,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.Serve(ln)
	}()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Server started")

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server stopped unexpectedly: %v", err)
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.conf.ShutdownTimeout.Duration)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); nil != err {
		return errors.Join(
			fmt.Errorf("failed to shut down gracefully: %v", err),
			srv.Close(),
		)
	}

	s.logger.Info().Msg("Server stopped")

	return nil
}

func requestIDField(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			logger := hlog.FromRequest(r).With().Str("request_id", id).Logger()
			r = r.WithContext(logger.WithContext(r.Context()))
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).
		Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("Request handled")
}
