package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Veraticus/serena/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const anthropicMessage = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-3-5-sonnet-latest",
  "content": [{"type": "text", "text": "{\"service_name\": \"Grab\"}"}],
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 12, "output_tokens": 8}
}`

func TestNewAnthropicClient(t *testing.T) {
	_, err := newAnthropicClient(Config{})
	require.ErrorIs(t, err, common.ErrMissingConfig)

	client, err := newAnthropicClient(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "claude-3-5-sonnet-latest", client.(*anthropicClient).model)
}

func TestAnthropicClient_Complete(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		data, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(data, &body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, anthropicMessage)
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	reply, err := client.Complete(context.Background(), ExtractionRequest("Grab ride receipt"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"service_name":"Grab"}`, reply)

	require.NotNil(t, body)
	assert.InDelta(t, 2048, body["max_tokens"], 0.0001)
	assert.NotEmpty(t, body["system"])
}

func TestParseClaudeCodeOutput(t *testing.T) {
	reply, err := parseClaudeCodeOutput([]byte(`{"result":" This is A2P. ","type":"result","is_error":false}`))
	require.NoError(t, err)
	assert.Equal(t, "This is A2P.", reply)

	_, err = parseClaudeCodeOutput([]byte(`{"result":"boom","is_error":true}`))
	assert.Error(t, err)

	reply, err = parseClaudeCodeOutput([]byte("plain text reply"))
	require.NoError(t, err)
	assert.Equal(t, "plain text reply", reply)

	_, err = parseClaudeCodeOutput(nil)
	assert.ErrorIs(t, err, common.ErrEmptyResponse)
}

func TestNewClient_UnsupportedProvider(t *testing.T) {
	_, err := NewClient(Config{Provider: "carrier-pigeon"}, common.DiscardLogger())
	require.ErrorIs(t, err, common.ErrInvalidConfig)

	client, err := NewClient(Config{Provider: "openai", APIKey: "k"}, common.DiscardLogger())
	require.NoError(t, err)
	assert.IsType(t, &resilientClient{}, client)
}
