package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/livequiz/internal/config"
	"github.com/gokatarajesh/livequiz/internal/logging"
	httperrors "github.com/gokatarajesh/livequiz/pkg/http/errors"
)

// NewUpgrader builds the WebSocket upgrader; origins are checked against the CORS allow-list.
func NewUpgrader(c config.CORS) websocket.Upgrader {
	policy := newCORS(c)
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return r.Header.Get("Origin") == "" || policy.OriginAllowed(r)
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

type healthResponse struct {
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

type infoResponse struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// NewHTTPServer wires the service routes: health, info, metrics and the WebSocket endpoint.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, metrics http.Handler, wsHandler http.HandlerFunc) *http.Server {
	started := time.Now()
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			httperrors.RespondMethodNotAllowed(w)
			return
		}
		writeJSON(w, healthResponse{
			Status:        "ok",
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
			UptimeSeconds: int64(time.Since(started).Seconds()),
		})
	})

	mux.HandleFunc("/v1/info", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httperrors.RespondMethodNotAllowed(w)
			return
		}
		writeJSON(w, infoResponse{
			Name:        cfg.Name,
			Version:     cfg.Version,
			Description: "Live quiz session coordinator",
		})
	})

	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	if wsHandler != nil {
		mux.HandleFunc("/ws", wsHandler)
	} else {
		mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
			httperrors.RespondError(w, http.StatusServiceUnavailable, httperrors.ErrCodeServiceUnavailable, "WebSocket handler not configured")
		})
	}

	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newCORS(cfg.CORS).Handler(withLogger(logger, mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// withLogger makes the request-scoped logger available through logging.FromContext.
func withLogger(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := loggingContext(r.Context(), logger.With().
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Logger())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logging.IntoContext(ctx, logger)
}

func newCORS(c config.CORS) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   c.AllowedOrigins,
		AllowedMethods:   c.AllowedMethods,
		AllowedHeaders:   c.AllowedHeaders,
		AllowCredentials: c.AllowCredentials,
		MaxAge:           c.MaxAge,
	})
}
