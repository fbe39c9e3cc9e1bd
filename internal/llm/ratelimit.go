package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/serena/internal/common"
	"golang.org/x/time/rate"
)

// resilientClient wraps a provider with a request-rate limiter, a per-call
// timeout and retries with exponential backoff.
type resilientClient struct {
	next      Client
	limiter   *rate.Limiter
	logger    *slog.Logger
	retryOpts common.RetryOptions
	timeout   time.Duration
}

// newRateLimiter creates a limiter allowing requestsPerMinute calls with a
// burst of the same size.
func newRateLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRateLimit
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute)
}

// Wrap decorates next with rate limiting, timeouts and retries per cfg.
func Wrap(next Client, cfg Config, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	retryOpts := common.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts <= 0 {
		retryOpts.MaxAttempts = DefaultMaxRetries
	}
	if retryOpts.InitialDelay <= 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &resilientClient{
		next:      next,
		limiter:   newRateLimiter(cfg.RateLimit),
		logger:    logger,
		retryOpts: retryOpts,
		timeout:   timeout,
	}
}

// Complete waits for the limiter, then calls the provider with a deadline,
// retrying transient failures.
func (c *resilientClient) Complete(ctx context.Context, req Request) (string, error) {
	var reply string

	err := common.WithRetry(ctx, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter canceled: %w", err)
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		start := time.Now()
		out, err := c.next.Complete(callCtx, req)
		if err != nil {
			return err
		}

		c.logger.Debug("oracle call completed",
			"duration", time.Since(start),
			"reply_chars", len(out))
		reply = out
		return nil
	}, c.retryOpts)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrOracleFailed, err)
	}

	return reply, nil
}
