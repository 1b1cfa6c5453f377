package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/ulule/limiter/v3"

	"github.com/liut/typist/pkg/services/relay"
	"github.com/liut/typist/pkg/services/stores"
	"github.com/liut/typist/pkg/settings"
)

type Service interface {
	Serve(ctx context.Context) error
	Stop(ctx context.Context) error
}

type Config struct {
	Addr  string
	Debug bool

	Relay   *relay.Relay
	Store   stores.ConversationStore
	Welcome string

	// optional, no limit when nil
	LimiterStore limiter.Store
	RateLimit    string // like 60-M
}

type server struct {
	Addr string
	cfg  Config

	rl  *relay.Relay
	sto stores.ConversationStore
	lmt *limiter.Limiter

	ar *chi.Mux     // app router
	hs *http.Server // http server

	upgrader websocket.Upgrader
}

// New return new web server
func New(cfg Config) Service {
	return newServer(cfg)
}

func newServer(cfg Config) *server {
	ar := chi.NewMux()
	if cfg.Debug {
		ar.Use(middleware.Logger)
	}
	ar.Use(middleware.Recoverer, middleware.RealIP)

	s := &server{
		Addr: cfg.Addr, ar: ar,
		cfg: cfg,
		rl:  cfg.Relay,
		sto: cfg.Store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(origin) == 0 || settings.AllowOrigin(origin)
			},
		},
	}
	if len(s.cfg.Welcome) == 0 {
		s.cfg.Welcome = dftWelcome
	}

	if cfg.LimiterStore != nil && len(cfg.RateLimit) > 0 {
		rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
		if err != nil {
			logger().Infow("invalid rate limit, skipped", "rate", cfg.RateLimit, "err", err)
		} else {
			s.lmt = limiter.New(cfg.LimiterStore, rate)
			logger().Infow("rate limit on chat", "rate", cfg.RateLimit)
		}
	}

	s.strapRouter()

	s.hs = &http.Server{
		Addr:              s.Addr,
		Handler:           s.ar,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Debug {
		logger().Infow("routes:")
		walkFunc := func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			route = strings.Replace(route, "/*/", "/", -1)
			fmt.Fprintf(os.Stderr, "DEBUG: %-6s %-24s --> %s (%d mw)\n", method, route, nameOfFunction(handler), len(middlewares))
			return nil
		}

		if err := chi.Walk(ar, walkFunc); err != nil {
			logger().Infow("router walk fail", "err", err)
		}
	}
	return s
}

func (s *server) Serve(ctx context.Context) error {
	// Run HTTP server
	runErrChan := make(chan error, 1)
	t := time.AfterFunc(time.Millisecond*200, func() {
		runErrChan <- s.hs.ListenAndServe()
	})

	defer t.Stop()
	logger().Infow("Listen on", "addr", s.hs.Addr)

	// Wait
	for {
		select {
		case runErr := <-runErrChan:
			if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
				logger().Infow("run http server failed",
					"err", runErr,
				)
				return runErr
			}
			logger().Info("http server has been stopped")
			return nil
		case <-ctx.Done():
			logger().Info("http server has been stopped")
			return ctx.Err()
		}
	}
}

func (s *server) Stop(ctx context.Context) error {
	if err := s.hs.Shutdown(ctx); err != nil {
		logger().Infow("Server Shutdown", "err", err)
		return err
	}
	return nil
}
