// Package limiter defines interfaces and implementations for brief submission rate limiting.
package limiter

import (
	"context"
	"crypto/sha256"
	"time"
)

// Limiter bounds how many briefs one client may submit per window.
type Limiter interface {
	// Allow records one attempt for ipHash and reports whether it is within quota,
	// with an optional retry-after when it is not.
	Allow(ctx context.Context, ipHash []byte) (bool, time.Duration, error)
}

// Noop allows everything. Used when no durable store is configured.
type Noop struct{}

// Allow always allows.
func (Noop) Allow(context.Context, []byte) (bool, time.Duration, error) { return true, 0, nil }

// HashIP returns a stable hash for an IP string to avoid storing raw addresses.
func HashIP(ip string) []byte {
	h := sha256.Sum256([]byte(ip))
	return h[:]
}
