// Package server exposes the mark-to-market pass, bracket edits and price
// lookups over HTTP.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/rustyeddy/arena/auth"
	"github.com/rustyeddy/arena/brackets"
	"github.com/rustyeddy/arena/logger"
	"github.com/rustyeddy/arena/metrics"
	"github.com/rustyeddy/arena/pnl"
)

const (
	PnLPath      = "/functions/v1/pnl-update-engine"
	BracketsPath = "/functions/v1/update-position-brackets"
	PricesPath   = "/functions/v1/get-forex-price"
	HealthPath   = "/health"
	MetricsPath  = "/metrics"

	maxBodyBytes = 1 << 20
)

type PassRunner interface {
	Run(ctx context.Context) (pnl.Result, error)
}

type BracketUpdater interface {
	Update(ctx context.Context, userID string, req brackets.Request) (brackets.Result, error)
}

type PriceSource interface {
	Prices(ctx context.Context, symbols []string) (map[string]float64, error)
}

// Deps are the collaborators behind each route. Metrics is optional; when
// nil the /metrics route is not mounted.
type Deps struct {
	Engine   PassRunner
	Brackets BracketUpdater
	Prices   PriceSource
	Verifier auth.Verifier
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
}

type Server struct {
	deps       Deps
	log        *logger.Logger
	router     *mux.Router
	httpServer *http.Server
	listener   net.Listener
}

func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = logger.NewNop()
	}
	s := &Server{deps: d, log: d.Logger.Named("server")}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(accessLog(s.log), cors)

	router.Methods(http.MethodOptions).HandlerFunc(preflight)

	router.HandleFunc(PnLPath, s.handlePnL).Methods(http.MethodPost, http.MethodGet)
	router.HandleFunc(BracketsPath, s.handleBrackets).Methods(http.MethodPost)
	router.HandleFunc(PricesPath, s.handlePrices).Methods(http.MethodPost)
	router.HandleFunc(HealthPath, handleHealth).Methods(http.MethodGet)
	if s.deps.Metrics != nil {
		router.Handle(MetricsPath, s.deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	return router
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on address and serves in the background. An empty
// address picks a free port.
func (s *Server) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.log.Info("http server listening", zap.String("addr", listener.Addr().String()))
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("http server failed", zap.Error(err))
		}
	}()

	return nil
}

// Addr is the bound listen address, valid after Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.log.Info("http server stopping")
	return s.httpServer.Shutdown(ctx)
}
