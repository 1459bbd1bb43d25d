// Package ratelimit is a fixed-window limiter over a shared TTL key-value
// table, so every service instance sees the same counts. The process-local
// variant exists for tests and single-node development only.
package ratelimit

import (
	"context"
	"time"
)

type Result struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// Limiter is injected wherever a request path needs throttling.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}
