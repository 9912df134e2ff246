package api

import (
	"context"
	"fmt"
	"net/http"

	"paper-trader-go/internal/auth"
	"paper-trader-go/internal/config"
	"paper-trader-go/internal/ledger"
	"paper-trader-go/internal/metrics"
	"paper-trader-go/internal/news"
	"paper-trader-go/internal/quotes"
	"paper-trader-go/internal/watch"

	"go.uber.org/zap"
)

// Server exposes the paper-trading HTTP API.
type Server struct {
	server   *http.Server
	logger   *zap.Logger
	cfg      *config.Config
	executor *ledger.Executor
	store    ledger.Store
	quotes   quotes.ProviderInterface
	news     *news.Service
	watch    *watch.Service
	auth     *auth.Manager
	metrics  *metrics.Collector
}

// NewServer creates the API server and registers all routes.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	executor *ledger.Executor,
	store ledger.Store,
	provider quotes.ProviderInterface,
	newsSvc *news.Service,
	watchSvc *watch.Service,
	authMgr *auth.Manager,
	collector *metrics.Collector,
) *Server {
	s := &Server{
		logger:   logger.Named("api"),
		cfg:      cfg,
		executor: executor,
		store:    store,
		quotes:   provider,
		news:     newsSvc,
		watch:    watchSvc,
		auth:     authMgr,
		metrics:  collector,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/signup", s.signupHandler)
	mux.HandleFunc("/api/buy", s.auth.Require(s.logger, s.buyHandler))
	mux.HandleFunc("/api/sell", s.auth.Require(s.logger, s.sellHandler))
	mux.HandleFunc("/api/portfolio", s.auth.Require(s.logger, s.portfolioHandler))
	mux.HandleFunc("/api/transactions", s.auth.Require(s.logger, s.transactionsHandler))
	mux.HandleFunc("/api/profile", s.auth.Require(s.logger, s.profileHandler))
	mux.HandleFunc("/api/quotes", s.auth.Require(s.logger, s.quotesHandler))
	mux.HandleFunc("/api/watch", s.auth.Require(s.logger, s.watchHandler))
	mux.HandleFunc("/api/news", s.newsHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.Handle("/metrics", s.metrics.Handler())

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: mux,
	}
	return s
}

// Start runs the HTTP server in a new goroutine.
func (s *Server) Start() {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("API server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}
