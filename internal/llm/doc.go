// Package llm provides the extraction oracle: a black-box language model
// that answers a system instruction plus user content with free-form text.
// It supports OpenAI, Anthropic and the Claude CLI as providers, with retry
// logic, rate limiting, per-call timeouts, and helpers for pulling labels
// and JSON payloads out of the replies.
package llm
