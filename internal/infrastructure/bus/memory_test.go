package bus

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
		return nil
	}
}

func TestMemoryPublishSubscribe(t *testing.T) {
	b := NewMemory(4)
	t.Cleanup(func() { b.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx, "pos/billing")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "pos/billing", []byte("True")))
	require.NoError(t, b.Publish(ctx, "pos/billing", []byte("False")))
	require.NoError(t, b.Publish(ctx, "pos/init", []byte("True")))

	assert.Equal(t, []byte("True"), receive(t, ch))
	assert.Equal(t, []byte("False"), receive(t, ch))

	select {
	case msg := <-ch:
		t.Fatalf("unexpected message %q", msg)
	default:
	}
}

func TestMemoryPayloadIsCopied(t *testing.T) {
	b := NewMemory(1)
	t.Cleanup(func() { b.Close() })

	ch, err := b.Subscribe(context.Background(), "t")
	require.NoError(t, err)

	payload := []byte("True")
	require.NoError(t, b.Publish(context.Background(), "t", payload))
	payload[0] = 'X'

	assert.Equal(t, []byte("True"), receive(t, ch))
}

func TestMemoryBoundedQueueBlocksPublisher(t *testing.T) {
	b := NewMemory(1)
	t.Cleanup(func() { b.Close() })

	ch, err := b.Subscribe(context.Background(), "t")
	require.NoError(t, err)

	require.NoError(t, b.Publish(context.Background(), "t", []byte("1")))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = b.Publish(ctx, "t", []byte("2"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Equal(t, []byte("1"), receive(t, ch))
}

func TestMemorySubscriptionEndsWithContext(t *testing.T) {
	b := NewMemory(1)
	t.Cleanup(func() { b.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := b.Subscribe(ctx, "t")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}

	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.subs["t"]) == 0
	}, time.Second, 5*time.Millisecond)
	assert.NoError(t, b.Publish(context.Background(), "t", []byte("x")))
}

func TestMemoryClose(t *testing.T) {
	b := NewMemory(1)

	ch, err := b.Subscribe(context.Background(), "t")
	require.NoError(t, err)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, ok := <-ch
	assert.False(t, ok)

	assert.ErrorIs(t, b.Publish(context.Background(), "t", nil), ErrClosed)
	_, err = b.Subscribe(context.Background(), "t")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRedisOptions(t *testing.T) {
	opt, err := RedisOptions("redis://localhost:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opt.Addr)
	assert.Equal(t, 2, opt.DB)

	opt, err = RedisOptions("10.0.0.5:6379")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5:6379", opt.Addr)
}

func TestOpenMemoryAndUnknownKind(t *testing.T) {
	b, err := Open(context.Background(), Config{Kind: "memory"}, "test", nil)
	require.NoError(t, err)
	require.NoError(t, b.Close())

	_, err = Open(context.Background(), Config{Kind: "amqp"}, "test", nil)
	assert.Error(t, err)
}

func TestClientIDIsUnique(t *testing.T) {
	a, b := ClientID("pos-interface"), ClientID("pos-interface")
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "pos-interface-")
}

func TestOpenUnreachableBroker(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, cfg := range []Config{
		{Kind: KindMQTT, URL: "tcp://" + addr},
		{Kind: KindRedis, URL: "redis://" + addr},
	} {
		t.Run(cfg.Kind, func(t *testing.T) {
			require.NotPanics(t, func() {
				_, err := Open(ctx, cfg, "test", nil)
				assert.Error(t, err)
			})
		})
	}
}
