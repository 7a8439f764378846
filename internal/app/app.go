package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/livequiz/internal/admission"
	"github.com/gokatarajesh/livequiz/internal/config"
	"github.com/gokatarajesh/livequiz/internal/live"
	"github.com/gokatarajesh/livequiz/internal/logging"
	"github.com/gokatarajesh/livequiz/internal/metrics"
	"github.com/gokatarajesh/livequiz/internal/quiz"
	"github.com/gokatarajesh/livequiz/internal/server"
	ws "github.com/gokatarajesh/livequiz/pkg/http/ws"
)

// Application aggregates the session, the WebSocket hub and the HTTP server.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	redis   *redis.Client // nil when admission uses the in-memory limiter
	http    *http.Server
	session *quiz.Session
	hub     *ws.Hub
}

// New bootstraps logger, metrics, admission, the live session and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env, cfg.LogLevel)
	logger.Info().Msg("starting application bootstrap")

	m := metrics.New()

	var (
		redisClient *redis.Client
		limiter     admission.Limiter
	)
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			_ = redisClient.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		limiter = admission.NewRedisLimiter(redisClient, cfg.Admission.RateLimit, cfg.Admission.Window)
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("admission limiter backed by redis")
	} else {
		limiter = admission.NewMemoryLimiter(cfg.Admission.RateLimit, cfg.Admission.Window)
		logger.Warn().Msg("REDIS_ADDR not set; admission limiter is per-process")
	}

	gate := admission.NewGate(limiter, admission.Options{
		RequireUserAgent:  cfg.Admission.RequireUserAgent,
		TrustForwardedFor: cfg.Admission.TrustForwardedFor,
	}, m, logger)

	session := quiz.NewSession()
	hub := ws.NewHub(logger, m)
	handler := live.NewHandler(session, hub, m, logger)
	wsHandler := live.NewWSHandler(handler, hub, gate, server.NewUpgrader(cfg.CORS), ws.ConnectionOptions{
		QueueSize: cfg.WS.SendQueueSize,
		ReadLimit: cfg.WS.ReadLimit,
		PongWait:  cfg.WS.PongWait,
		WriteWait: cfg.WS.WriteWait,
	}, logger)

	apiServer := server.NewHTTPServer(cfg, logger, m.Handler(), wsHandler.HandleWebSocket)

	return &Application{
		cfg:     cfg,
		logger:  logger,
		redis:   redisClient,
		http:    apiServer,
		session: session,
		hub:     hub,
	}, nil
}

// Handler exposes the HTTP routes, mainly for tests.
func (a *Application) Handler() http.Handler {
	return a.http.Handler
}

// Run starts the HTTP server and waits for termination signals or ctx cancellation.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		a.close()
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	// Shutdown does not wait for hijacked WebSocket connections.
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	snap := a.session.Snapshot()
	a.logger.Info().
		Str("state", string(snap.State)).
		Int("participants", snap.ParticipantCount).
		Int("connections", a.hub.Count()).
		Msg("session discarded")

	a.close()
	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) close() {
	if a.redis == nil {
		return
	}
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}
}
