// ABOUTME: Gateway orchestrator wiring the connection manager and HTTP server.
// ABOUTME: Owns startup, route registration, and graceful shutdown.

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/lanternworks/telegate/internal/auth"
	"github.com/lanternworks/telegate/internal/chat"
	"github.com/lanternworks/telegate/internal/config"
	"github.com/lanternworks/telegate/internal/store"
	"github.com/lanternworks/telegate/internal/telegram"
)

// Gateway coordinates the telegate server components: the shared Telegram
// session, the resolve/fetch pipeline, and the HTTP surface.
type Gateway struct {
	config     *config.Config
	manager    *telegram.Manager
	resolver   *chat.Resolver
	fetcher    *chat.Fetcher
	store      *store.SQLiteStore
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Gateway from configuration. The Telegram session is not
// connected here; the first request (or none at all) triggers it.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	var (
		sqlStore *store.SQLiteStore
		cache    chat.EntityCache
	)
	if cfg.Database.Path != "" {
		s, err := store.NewSQLiteStore(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("initializing entity cache: %w", err)
		}
		sqlStore = s
		cache = s
	}

	creds := telegram.Credentials{
		AppID:        cfg.Telegram.AppID,
		AppHash:      cfg.Telegram.AppHash,
		SessionToken: cfg.Telegram.SessionToken,
		Retries:      cfg.Telegram.ConnectRetries,
	}
	dial := func() telegram.Client {
		return telegram.NewMTProto(creds, logger)
	}
	manager := telegram.NewManager(dial, logger.With("component", "connection-manager"))

	g, err := newGateway(cfg, manager, cache, logger)
	if err != nil {
		if sqlStore != nil {
			_ = sqlStore.Close()
		}
		return nil, err
	}
	g.store = sqlStore
	return g, nil
}

// newGateway assembles a Gateway from parts. Tests use this with a
// manager whose dial function returns a fake client.
func newGateway(cfg *config.Config, manager *telegram.Manager, cache chat.EntityCache, logger *slog.Logger) (*Gateway, error) {
	g := &Gateway{
		config:   cfg,
		manager:  manager,
		resolver: chat.NewResolver(cache, logger),
		fetcher:  chat.NewFetcher(logger),
		logger:   logger.With("component", "gateway"),
	}

	mux, err := g.routes()
	if err != nil {
		return nil, err
	}
	g.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return g, nil
}

// routes registers HTTP handlers, wrapping API endpoints with bearer auth
// when a JWT secret is configured. The health endpoints stay open.
func (g *Gateway) routes() (*http.ServeMux, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", g.handleHome)
	mux.HandleFunc("/health", g.handleHealth)

	api := func(h http.HandlerFunc) http.Handler { return h }
	if g.config.Auth.JWTSecret != "" {
		verifier, err := auth.NewJWTVerifier([]byte(g.config.Auth.JWTSecret))
		if err != nil {
			return nil, fmt.Errorf("creating JWT verifier: %w", err)
		}
		middleware := auth.Middleware(verifier)
		api = func(h http.HandlerFunc) http.Handler { return middleware(h) }
		g.logger.Info("HTTP auth middleware enabled")
	} else {
		g.logger.Warn("HTTP auth disabled - no jwt_secret configured")
	}

	mux.Handle("/get-chat-messages", api(g.handleChatMessages))
	mux.Handle("/search-entities", api(g.handleSearchEntities))
	mux.Handle("/get-members", api(g.handleMembers))
	mux.Handle("/scrape-douyin", api(g.handleDouyin))
	return mux, nil
}

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails, then performs graceful shutdown.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is
// already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown stops the HTTP server and disconnects the Telegram session.
// The disconnect does not wait for in-flight requests beyond the server's
// shutdown window.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", g.httpServer.Shutdown(ctx))
	errs = appendCloseError(errs, "telegram disconnect", g.manager.Close(ctx))
	if g.store != nil {
		errs = appendCloseError(errs, "store close", g.store.Close())
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}
