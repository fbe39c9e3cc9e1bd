package llm

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/serena/internal/common"
)

// NewClient creates an oracle client for the configured provider, wrapped
// with rate limiting, timeouts and retries.
func NewClient(cfg Config, logger *slog.Logger) (Client, error) {
	var (
		client Client
		err    error
	)

	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		client, err = newOpenAIClient(cfg)
	case "anthropic":
		client, err = newAnthropicClient(cfg)
	case "claudecode":
		client, err = newClaudeCodeClient(cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %s", common.ErrInvalidConfig, cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return Wrap(client, cfg, logger), nil
}
