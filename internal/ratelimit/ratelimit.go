package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/margdarshan-ai/margdarshan/internal/config"
	"github.com/margdarshan-ai/margdarshan/internal/store"
	"github.com/sirupsen/logrus"
)

// ErrLimitExceeded is returned when a user has used up their window quota.
var ErrLimitExceeded = errors.New("rate limit exceeded")

// LimitError carries the reset information for an exceeded quota.
type LimitError struct {
	Endpoint   string
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	return "rate limit exceeded for " + e.Endpoint
}

func (e *LimitError) Unwrap() error {
	return ErrLimitExceeded
}

// RetryAfterMinutes reports minutes remaining until the window resets,
// rounded up, never below 1.
func (e *LimitError) RetryAfterMinutes() int {
	minutes := int((e.RetryAfter + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// Limiter enforces per-user fixed-window quotas backed by the store.
type Limiter struct {
	cfg    *config.RateLimitConfig
	store  store.Store
	logger *logrus.Logger
}

func NewLimiter(cfg *config.RateLimitConfig, st store.Store, logger *logrus.Logger) *Limiter {
	return &Limiter{
		cfg:    cfg,
		store:  st,
		logger: logger,
	}
}

// Allow consumes one request from the user's window quota for the endpoint.
// The counter increment is a single store operation, so concurrent requests
// cannot undercount. A fresh window always restarts at count 1.
func (l *Limiter) Allow(ctx context.Context, userID, endpoint string) error {
	if !l.cfg.Enabled {
		return nil
	}

	limit, ok := l.cfg.Limit(endpoint)
	if !ok {
		return nil
	}

	rec, err := l.store.IncrRateLimit(ctx, userID, endpoint, l.cfg.Window)
	if err != nil {
		return err
	}

	if rec.Count > limit {
		retryAfter := time.Until(time.UnixMilli(rec.ResetAt))
		l.logger.WithFields(logrus.Fields{
			"user_id":  userID,
			"endpoint": endpoint,
			"count":    rec.Count,
			"limit":    limit,
		}).Warn("Rate limit exceeded")

		return &LimitError{Endpoint: endpoint, RetryAfter: retryAfter}
	}

	return nil
}
