package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/storefront/internal/config"
)

func TestNewClientDrivers(t *testing.T) {
	logger := zap.NewNop()

	client, err := NewClient(nil, config.Config{Messaging: config.Messaging{Kafka: config.Kafka{Topic: "orders.events"}}}, logger)
	require.NoError(t, err)
	assert.IsType(t, noopClient{}, client)
	assert.NoError(t, client.Publish(context.Background(), nil, []byte("x")))

	lc := fxtest.NewLifecycle(t)
	client, err = NewClient(lc, config.Config{Messaging: config.Messaging{
		Enabled: true,
		Driver:  "memory",
		Kafka:   config.Kafka{Topic: "orders.events"},
	}}, logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryClient{}, client)
	assert.Equal(t, "orders.events", client.Topic())
	lc.RequireStart().RequireStop()
	assert.ErrorIs(t, client.Publish(context.Background(), nil, nil), ErrClosed)

	_, err = NewClient(nil, config.Config{Messaging: config.Messaging{Enabled: true, Driver: "nats"}}, logger)
	assert.Error(t, err)
}

func TestMemoryClientDeliversInOrder(t *testing.T) {
	client := NewMemoryClient("orders.events", 4)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, v := range []string{"a", "b", "c"} {
		require.NoError(t, client.Publish(ctx, []byte("order-1"), []byte(v)))
	}
	client.Close()

	var got []Message
	err := client.Consume(ctx, func(_ context.Context, msg Message) error {
		got = append(got, msg)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, want, string(got[i].Value))
		assert.Equal(t, int64(i+1), got[i].Offset)
		assert.Equal(t, "order-1", string(got[i].Key))
	}
}

func TestMemoryClientPublishNeverBlocks(t *testing.T) {
	client := NewMemoryClient("orders.events", 2)
	ctx := context.Background()

	require.NoError(t, client.Publish(ctx, nil, []byte("a")))
	require.NoError(t, client.Publish(ctx, nil, []byte("b")))

	done := make(chan error, 1)
	go func() { done <- client.Publish(ctx, nil, []byte("c")) }()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrBufferFull)
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full buffer")
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, client.Publish(cancelled, nil, []byte("d")), context.Canceled)
}
