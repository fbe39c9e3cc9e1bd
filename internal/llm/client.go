package llm

import (
	"context"
	"time"
)

// Client is the oracle contract. Implementations must honor ctx deadlines.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is one oracle call.
type Request struct {
	SystemInstruction string
	UserContent       string
	Temperature       float64
	MaxOutputTokens   int
}

// Config holds configuration for the oracle client.
type Config struct {
	Provider       string
	APIKey         string
	Model          string
	BaseURL        string
	ClaudeCodePath string
	MaxRetries     int
	RetryDelay     time.Duration
	Timeout        time.Duration
	RateLimit      int // requests per minute
}

// Default settings applied when Config leaves them zero.
const (
	DefaultTimeout    = 60 * time.Second
	DefaultMaxRetries = 3
	DefaultRateLimit  = 60
)
