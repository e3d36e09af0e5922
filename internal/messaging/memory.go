package messaging

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

const memoryBuffer = 256

// ErrClosed is returned when publishing to a closed MemoryClient.
var ErrClosed = errors.New("messaging: client closed")

// ErrBufferFull is returned when no consumer has drained the MemoryClient buffer.
var ErrBufferFull = errors.New("messaging: buffer full")

// MemoryClient is an in-process bus for single-binary runs and tests.
// Every published message is delivered to exactly one consumer.
type MemoryClient struct {
	topic  string
	ch     chan Message
	mu     sync.RWMutex
	closed bool
	offset atomic.Int64
	now    func() time.Time
}

// NewMemoryClient builds a MemoryClient holding up to buffer undelivered messages.
func NewMemoryClient(topic string, buffer int) *MemoryClient {
	if buffer <= 0 {
		buffer = memoryBuffer
	}
	return &MemoryClient{
		topic: topic,
		ch:    make(chan Message, buffer),
		now:   time.Now,
	}
}

// Publish enqueues a message. It never waits for a consumer: when the buffer
// is full the message is dropped and ErrBufferFull returned.
func (m *MemoryClient) Publish(ctx context.Context, key []byte, value []byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}

	msg := Message{
		Topic:  m.topic,
		Key:    append([]byte(nil), key...),
		Value:  append([]byte(nil), value...),
		Offset: m.offset.Add(1),
		Time:   m.now(),
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case m.ch <- msg:
		return nil
	default:
		return ErrBufferFull
	}
}

// Consume delivers messages to handler until ctx is cancelled or the client is closed.
// Failed messages are not redelivered.
func (m *MemoryClient) Consume(ctx context.Context, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-m.ch:
			if !ok {
				return nil
			}
			_ = handler(ctx, msg)
		}
	}
}

func (m *MemoryClient) Topic() string { return m.topic }

// Close stops delivery; pending messages are drained by running consumers first.
func (m *MemoryClient) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.ch)
}
