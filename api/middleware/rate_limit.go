package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/angelmondragon/vendora-backend/api/responses"
	"github.com/angelmondragon/vendora-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	"github.com/angelmondragon/vendora-backend/pkg/logger"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is an in-process per-IP token bucket. Stale visitors are swept
// until the context passed to NewRateLimiter is cancelled or Shutdown is called.
type RateLimiter struct {
	mu            sync.Mutex
	visitors      map[string]*visitor
	limit         rate.Limit
	burst         int
	cleanupPeriod time.Duration
	clientTTL     time.Duration
	logg          *logger.Logger
	now           func() time.Time
	cancel        context.CancelFunc
}

func NewRateLimiter(ctx context.Context, cfg config.RateLimitConfig, logg *logger.Logger) *RateLimiter {
	rl := &RateLimiter{
		visitors:      make(map[string]*visitor),
		limit:         rate.Limit(cfg.RequestsPerSecond),
		burst:         cfg.Burst,
		cleanupPeriod: cfg.CleanupPeriod,
		clientTTL:     cfg.ClientTTL,
		logg:          logg,
		now:           time.Now,
	}
	if rl.burst <= 0 {
		rl.burst = 1
	}
	if rl.cleanupPeriod <= 0 {
		rl.cleanupPeriod = time.Minute
	}
	if rl.clientTTL <= 0 {
		rl.clientTTL = 3 * time.Minute
	}
	ctx, rl.cancel = context.WithCancel(ctx)
	go rl.cleanupLoop(ctx)
	return rl
}

// Middleware rejects callers that exhausted their bucket with 429.
// A non-positive rate disables limiting.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rl == nil || rl.limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !rl.visitorFor(ip).Allow() {
				ctx := r.Context()
				if rl.logg != nil {
					rl.logg.Warn(rl.logg.WithField(ctx, "ip", ip), "http.rate_limit.blocked")
				}
				responses.WriteError(ctx, rl.logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) visitorFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = rl.now()
	return v.limiter
}

func (rl *RateLimiter) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(rl.cleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-ctx.Done():
			return
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.clientTTL)
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}

func (rl *RateLimiter) Shutdown() {
	if rl != nil && rl.cancel != nil {
		rl.cancel()
	}
}
