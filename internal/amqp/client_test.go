package amqp

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{15, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("connection refused"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"amqp closed", fmt.Errorf("publish: %w", amqp091.ErrClosed), true},
		{"other error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isConnectionError(tt.err))
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "budget", queueName: "month_changed"}

	assert.False(t, client.isCircuitOpen(), "closed initially")

	for i := 0; i < maxFailures-1; i++ {
		client.recordFailure()
	}
	assert.False(t, client.isCircuitOpen())
	client.recordFailure()
	assert.True(t, client.isCircuitOpen())

	client.lastFailure = time.Now().Add(-openTimeout - time.Second)
	assert.False(t, client.isCircuitOpen(), "half-open after the timeout")
	assert.Equal(t, StateHalfOpen, atomic.LoadInt32(&client.state))

	client.recordFailure()
	assert.True(t, client.isCircuitOpen(), "a half-open failure reopens")

	client.recordSuccess()
	assert.False(t, client.isCircuitOpen())
	assert.Zero(t, atomic.LoadInt64(&client.failureCount))
}

func TestClient_PublishRefusals(t *testing.T) {
	client := &Client{exchangeName: "budget", queueName: "month_changed"}
	msg := NewMonthChangedMessage("u1", []string{"2025-01"}, "set-assigned")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, context.Canceled, client.PublishMonthChanged(ctx, msg))

	atomic.StoreInt32(&client.state, StateOpen)
	client.lastFailure = time.Now()
	err := client.PublishMonthChanged(context.Background(), msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
}

func TestMonthChangedMessageJSON(t *testing.T) {
	msg := NewMonthChangedMessage("u1", []string{"2025-01", "2025-02"}, "post-transaction")
	assert.WithinDuration(t, time.Now(), msg.Timestamp, time.Second)

	body, err := msg.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(body), `"user_id":"u1"`)

	parsed, err := MonthChangedMessageFromJSON(body)
	require.NoError(t, err)
	assert.Equal(t, msg.Months, parsed.Months)
	assert.Equal(t, "post-transaction", parsed.Kind)
	assert.True(t, parsed.Timestamp.Equal(msg.Timestamp))
}

func TestMonthChangedMessageInvalid(t *testing.T) {
	_, err := MonthChangedMessageFromJSON([]byte(`{"user_id": 7}`))
	assert.Error(t, err)
	_, err = MonthChangedMessageFromJSON([]byte(`{"months": ["2025-01"]}`))
	assert.Error(t, err)
}
