package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/serena/internal/common"
	"github.com/Veraticus/serena/internal/llm"
)

// llmConfig reads the oracle settings from v. API keys fall back to the
// provider's usual environment variable.
func llmConfig(v *viper.Viper) (llm.Config, error) {
	provider := strings.ToLower(v.GetString("llm.provider"))
	if provider == "" {
		provider = "openai"
	}

	cfg := llm.Config{
		Provider:       provider,
		Model:          v.GetString("llm.model"),
		BaseURL:        v.GetString("llm.base_url"),
		ClaudeCodePath: v.GetString("llm.claude_code_path"),
		MaxRetries:     v.GetInt("llm.max_retries"),
		RetryDelay:     v.GetDuration("llm.retry_delay"),
		Timeout:        v.GetDuration("llm.timeout"),
		RateLimit:      v.GetInt("llm.rate_limit"),
	}

	switch provider {
	case "openai":
		cfg.APIKey = firstNonEmpty(v.GetString("llm.openai_api_key"), os.Getenv("OPENAI_API_KEY"))
		if cfg.APIKey == "" {
			return cfg, fmt.Errorf("%w: OpenAI API key not found in config or OPENAI_API_KEY environment variable", common.ErrMissingConfig)
		}
	case "anthropic":
		cfg.APIKey = firstNonEmpty(v.GetString("llm.anthropic_api_key"), os.Getenv("ANTHROPIC_API_KEY"))
		if cfg.APIKey == "" {
			return cfg, fmt.Errorf("%w: anthropic API key not found in config or ANTHROPIC_API_KEY environment variable", common.ErrMissingConfig)
		}
	case "claudecode":
		// The CLI carries its own credentials.
	default:
		return cfg, fmt.Errorf("%w: unsupported LLM provider: %s", common.ErrInvalidConfig, provider)
	}

	return cfg, nil
}

// createOracle builds the configured oracle client.
func createOracle(v *viper.Viper) (llm.Client, error) {
	cfg, err := llmConfig(v)
	if err != nil {
		return nil, common.NewUserError("the LLM provider is not configured", err)
	}

	client, err := llm.NewClient(cfg, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return client, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
