package proxy

import (
	"net"
	"sync"
	"time"

	"go.minekube.com/gate/pkg/config"
	"golang.org/x/time/rate"
)

// bucket pairs a per-IP limiter with the time it was last consulted, so
// stale entries can be identified and pruned.
type bucket struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// pruneInterval bounds how often allow() sweeps for stale buckets, and
// bucketTTL is how long an IP's bucket survives without another attempt.
const (
	pruneInterval = 256
	bucketTTL     = 10 * time.Minute
)

// loginRateLimiter enforces spec.md §4.9/§6's login-ratelimit: one token
// bucket per remote IP, refilling once every configured interval,
// rejecting an Overload connection outright (spec.md §7). buckets is
// pruned opportunistically so IP churn doesn't grow it unboundedly.
type loginRateLimiter struct {
	interval time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
	calls   uint64
}

func newLoginRateLimiter(cfg *config.Config) *loginRateLimiter {
	return &loginRateLimiter{
		interval: time.Duration(cfg.LoginRateLimit) * time.Millisecond,
		buckets:  make(map[string]*bucket),
	}
}

// allow reports whether a new connection attempt from addr should be
// admitted. A zero interval disables rate limiting entirely.
func (l *loginRateLimiter) allow(addr net.Addr) bool {
	if l.interval <= 0 {
		return true
	}
	host := addrHost(addr)
	now := time.Now()

	l.mu.Lock()
	b, ok := l.buckets[host]
	if !ok {
		// One token every interval, burst of 1: a second connection
		// attempt before the interval elapses is rejected outright.
		b = &bucket{limiter: rate.NewLimiter(rate.Every(l.interval), 1)}
		l.buckets[host] = b
	}
	b.lastUsed = now
	l.calls++
	if l.calls%pruneInterval == 0 {
		l.pruneLocked(now)
	}
	l.mu.Unlock()

	return b.limiter.Allow()
}

// pruneLocked deletes buckets not consulted within bucketTTL. Caller
// must hold l.mu.
func (l *loginRateLimiter) pruneLocked(now time.Time) {
	for host, b := range l.buckets {
		if now.Sub(b.lastUsed) > bucketTTL {
			delete(l.buckets, host)
		}
	}
}

func addrHost(addr net.Addr) string {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.IP.String()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
