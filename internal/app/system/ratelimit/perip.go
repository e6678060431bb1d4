package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dalemusser/studytrack/internal/app/system/apperr"
	"github.com/dalemusser/studytrack/internal/app/system/respond"
	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// PerIP is a token-bucket limiter keyed by client IP.
type PerIP struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rps     rate.Limit
	burst   int
	idle    time.Duration
}

// NewPerIP allows rps requests per second with the given burst per IP.
// Idle buckets are swept until ctx is done.
func NewPerIP(ctx context.Context, rps float64, burst int) *PerIP {
	p := &PerIP{
		buckets: make(map[string]*bucket),
		rps:     rate.Limit(rps),
		burst:   burst,
		idle:    3 * time.Minute,
	}
	go p.sweep(ctx)
	return p
}

func (p *PerIP) sweep(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.mu.Lock()
			for ip, b := range p.buckets {
				if time.Since(b.lastSeen) > p.idle {
					delete(p.buckets, ip)
				}
			}
			p.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

// Allow reports whether a request from ip may proceed.
func (p *PerIP) Allow(ip string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.buckets[ip]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(p.rps, p.burst)}
		p.buckets[ip] = b
	}
	b.lastSeen = time.Now()
	return b.limiter.Allow()
}

// Middleware rejects requests over the limit with a 429 envelope.
func (p *PerIP) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !p.Allow(ClientIP(r)) {
			respond.Error(w, r, nil, apperr.RateLimited("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
