package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Veraticus/serena/internal/common"
)

// claudeCodeClient implements Client by shelling out to the Claude CLI.
type claudeCodeClient struct {
	model   string
	cliPath string
}

// newClaudeCodeClient creates a new Claude CLI client.
func newClaudeCodeClient(cfg Config) (Client, error) {
	cliPath := cfg.ClaudeCodePath
	if cliPath == "" {
		cliPath = "claude"
	}

	if _, err := exec.LookPath(cliPath); err != nil {
		return nil, fmt.Errorf("%w: claude CLI not found at %s", common.ErrMissingConfig, cliPath)
	}

	model := cfg.Model
	if model == "" {
		model = "sonnet"
	}

	return &claudeCodeClient{
		model:   model,
		cliPath: cliPath,
	}, nil
}

// claudeCodeResponse represents the JSON response from the Claude CLI.
type claudeCodeResponse struct {
	Result    string  `json:"result"`
	Type      string  `json:"type"`
	SessionID string  `json:"session_id"`
	IsError   bool    `json:"is_error"`
	TotalCost float64 `json:"total_cost_usd"`
}

// Complete runs a single-turn prompt. The CLI has no separate system
// channel, so the instruction is prepended to the content.
func (c *claudeCodeClient) Complete(ctx context.Context, req Request) (string, error) {
	fullPrompt := req.SystemInstruction + "\n\n" + strings.TrimSpace(req.UserContent)

	args := []string{
		"-p", fullPrompt,
		"--output-format", "json",
		"--model", c.model,
		"--max-turns", "1",
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.cliPath, args...) //nolint:gosec // cliPath comes from configuration
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if stderr.Len() > 0 {
			return "", fmt.Errorf("claude code error: %s", strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("failed to execute claude: %w", err)
	}

	return parseClaudeCodeOutput(stdout.Bytes())
}

// parseClaudeCodeOutput unwraps the CLI's JSON envelope, falling back to
// the raw text when the CLI printed something else.
func parseClaudeCodeOutput(out []byte) (string, error) {
	var response claudeCodeResponse
	if err := json.Unmarshal(out, &response); err != nil {
		text := strings.TrimSpace(string(out))
		if text == "" {
			return "", common.ErrEmptyResponse
		}
		return text, nil
	}

	if response.IsError {
		return "", fmt.Errorf("claude code error in response: %s", response.Result)
	}
	if strings.TrimSpace(response.Result) == "" {
		return "", fmt.Errorf("%w: empty response from claude code", common.ErrEmptyResponse)
	}

	return strings.TrimSpace(response.Result), nil
}
