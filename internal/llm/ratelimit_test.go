package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/serena/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingClient struct{}

func (blockingClient) Complete(ctx context.Context, _ Request) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestNewRateLimiter(t *testing.T) {
	rl := newRateLimiter(10)
	assert.Equal(t, 10, rl.Burst())

	rl = newRateLimiter(0)
	assert.Equal(t, DefaultRateLimit, rl.Burst())
}

func TestResilientClient(t *testing.T) {
	cfg := Config{
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
		Timeout:    time.Second,
		RateLimit:  6000,
	}
	logger := common.DiscardLogger()

	t.Run("passes replies through", func(t *testing.T) {
		mock := NewMockClient(MockResponse{Reply: "This is A2P."})
		client := Wrap(mock, cfg, logger)

		reply, err := client.Complete(context.Background(), ClassificationRequest("Your order shipped"))
		require.NoError(t, err)
		assert.Equal(t, "This is A2P.", reply)
		assert.Equal(t, 1, mock.CallCount())
	})

	t.Run("retries transient failures", func(t *testing.T) {
		mock := NewMockClient(
			MockResponse{Err: errors.New("connection reset")},
			MockResponse{Reply: "This is P2P."},
		)
		client := Wrap(mock, cfg, logger)

		reply, err := client.Complete(context.Background(), ClassificationRequest("hey"))
		require.NoError(t, err)
		assert.Equal(t, "This is P2P.", reply)
		assert.Equal(t, 2, mock.CallCount())
	})

	t.Run("permanent failures are not retried", func(t *testing.T) {
		mock := NewMockClient(MockResponse{Err: common.Permanent(errors.New("bad key"))})
		client := Wrap(mock, cfg, logger)

		_, err := client.Complete(context.Background(), ClassificationRequest("hey"))
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrOracleFailed)
		assert.Equal(t, 1, mock.CallCount())
	})

	t.Run("every call gets a deadline", func(t *testing.T) {
		short := cfg
		short.Timeout = 10 * time.Millisecond
		short.MaxRetries = 1
		client := Wrap(blockingClient{}, short, logger)

		start := time.Now()
		_, err := client.Complete(context.Background(), ClassificationRequest("hey"))
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 5*time.Second)
	})
}

func TestMockClient_Rules(t *testing.T) {
	mock := NewMockClient().
		OnInstruction(ClassificationInstruction, "This is A2P.", nil).
		OnInstruction(ExtractionInstruction, `{"service_name":"Uber"}`, nil)

	reply, err := mock.Complete(context.Background(), ExtractionRequest("x"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"service_name":"Uber"}`, reply)

	reply, err = mock.Complete(context.Background(), ClassificationRequest("x"))
	require.NoError(t, err)
	assert.Equal(t, "This is A2P.", reply)

	_, err = mock.Complete(context.Background(), NormalizationRequest("{}"))
	assert.Error(t, err)
	assert.Len(t, mock.Calls(), 3)
}
