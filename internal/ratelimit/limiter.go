// Package ratelimit implements a fixed-window per-client request limiter.
// Authentication endpoints get a stricter budget than the rest of the API.
package ratelimit

import (
	"context"
	"strings"
	"time"
)

// WindowStore counts hits per key within a fixed window. Implementations must
// be safe for concurrent use.
type WindowStore interface {
	// Incr registers one hit for key and returns the hit count and the time
	// the current window resets.
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error)
}

// Result describes one limiter decision.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds
}

// Limiter applies per-client-IP limits keyed by endpoint class.
type Limiter struct {
	store     WindowStore
	window    time.Duration
	limit     int
	authLimit int
}

func NewLimiter(store WindowStore, window time.Duration, limit, authLimit int) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	if limit <= 0 {
		limit = 100
	}
	if authLimit <= 0 {
		authLimit = 10
	}
	return &Limiter{store: store, window: window, limit: limit, authLimit: authLimit}
}

// Allow registers one request from clientIP against the budget for path.
// On store errors the limiter fails open; the error is returned so callers
// can log it.
func (l *Limiter) Allow(ctx context.Context, clientIP, path string) (Result, error) {
	limit := l.limit
	class := "general"
	if isAuthPath(path) {
		limit = l.authLimit
		class = "auth"
	}

	count, resetAt, err := l.store.Incr(ctx, "ratelimit:"+class+":"+clientIP, l.window)
	if err != nil {
		return Result{Allowed: true, Limit: limit, Remaining: limit}, err
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	result := Result{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
	if !result.Allowed {
		retry := int(time.Until(resetAt).Seconds()) + 1
		if retry < 1 {
			retry = 1
		}
		result.RetryAfter = retry
	}
	return result, nil
}

func isAuthPath(path string) bool {
	return strings.HasPrefix(path, "/auth/") || strings.HasPrefix(path, "/api/auth/")
}
