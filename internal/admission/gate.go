package admission

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/livequiz/pkg/http/errors"
)

// Rejection reasons, used as metric labels.
const (
	ReasonRateLimited      = "rate_limited"
	ReasonMissingUserAgent = "missing_user_agent"
)

// Recorder observes rejected connections. *metrics.Metrics satisfies it.
type Recorder interface {
	AdmissionRejected(reason string)
}

// Options configures the gate.
type Options struct {
	RequireUserAgent  bool
	TrustForwardedFor bool
	Timeout           time.Duration
}

// Gate admits or rejects connection attempts before the WebSocket upgrade.
type Gate struct {
	limiter  Limiter
	opts     Options
	recorder Recorder
	logger   zerolog.Logger
}

// NewGate builds a gate. limiter and recorder may be nil.
func NewGate(limiter Limiter, opts Options, recorder Recorder, logger zerolog.Logger) *Gate {
	if opts.Timeout <= 0 {
		opts.Timeout = 500 * time.Millisecond
	}
	return &Gate{
		limiter:  limiter,
		opts:     opts,
		recorder: recorder,
		logger:   logger.With().Str("component", "admission").Logger(),
	}
}

// Admit reports whether r may proceed. On rejection the HTTP error has been written.
// A failing limiter admits the connection.
func (g *Gate) Admit(w http.ResponseWriter, r *http.Request) bool {
	ip := g.clientIP(r)

	if g.opts.RequireUserAgent && strings.TrimSpace(r.UserAgent()) == "" {
		g.reject(ReasonMissingUserAgent, ip)
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidClient, "Invalid client")
		return false
	}

	if g.limiter == nil {
		return true
	}

	ctx, cancel := context.WithTimeout(r.Context(), g.opts.Timeout)
	defer cancel()

	d, err := g.limiter.Allow(ctx, ip)
	if err != nil {
		g.logger.Warn().Err(err).Str("client_ip", ip).Msg("rate limiter unavailable, admitting")
		return true
	}
	if !d.Allowed {
		g.reject(ReasonRateLimited, ip)
		httperrors.RespondTooManyRequests(w, d.RetryAfter)
		return false
	}
	return true
}

func (g *Gate) reject(reason, ip string) {
	if g.recorder != nil {
		g.recorder.AdmissionRejected(reason)
	}
	g.logger.Warn().Str("client_ip", ip).Str("reason", reason).Msg("connection rejected")
}

func (g *Gate) clientIP(r *http.Request) string {
	if g.opts.TrustForwardedFor {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
