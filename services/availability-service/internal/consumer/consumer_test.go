package consumer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memInbox struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (m *memInbox) Record(_ context.Context, eventID, _ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[eventID] {
		return false, nil
	}
	m.seen[eventID] = true
	return true, nil
}

func (m *memInbox) Forget(_ context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, eventID)
	return nil
}

type sliceReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	closed    bool
}

func (r *sliceReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) == 0 {
		r.mu.Unlock()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	r.mu.Unlock()
	return msg, nil
}

func (r *sliceReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *sliceReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func (r *sliceReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func event(id string, offset int64) kafka.Message {
	return kafka.Message{
		Offset: offset,
		Topic: "commerce.order.created.v1",
		Key:   []byte("order-1"),
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(id)},
			{Key: "event_type", Value: []byte("order.created")},
		},
	}
}

func TestRun_DeduplicatesAndStops(t *testing.T) {
	reader := &sliceReader{msgs: []kafka.Message{event("e1", 1), event("e1", 2), event("e2", 3)}}

	var mu sync.Mutex
	var handled []string
	done := make(chan struct{})
	handler := func(_ context.Context, msg kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, string(msg.Headers[0].Value))
		if len(handled) == 2 {
			close(done)
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := NewWithReader(discard(), &memInbox{}, reader, "commerce.order.created.v1", handler)
	stopped := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(stopped)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("events were not handled")
	}
	cancel()
	<-stopped

	assert.Equal(t, []string{"e1", "e2"}, handled)
	assert.Equal(t, []int64{1, 2, 3}, reader.commits())
	assert.True(t, reader.closed)
}

func TestProcess_Errors(t *testing.T) {
	handlerErr := errors.New("bad payload")
	c := NewWithReader(discard(), &memInbox{}, &sliceReader{}, "t", func(context.Context, kafka.Message) error {
		return handlerErr
	})
	require.ErrorIs(t, c.process(context.Background(), event("e1", 1)), handlerErr)
	assert.False(t, c.inbox.(*memInbox).seen["e1"], "failed events are not kept in the inbox")

	inboxErr := errors.New("db down")
	c = NewWithReader(discard(), &memInbox{err: inboxErr}, &sliceReader{}, "t", func(context.Context, kafka.Message) error {
		t.Fatal("handler must not run when the inbox fails")
		return nil
	})
	require.ErrorIs(t, c.process(context.Background(), event("e1", 1)), inboxErr)
}

func TestProcess_FallsBackToLogPosition(t *testing.T) {
	inbox := &memInbox{}
	c := NewWithReader(discard(), inbox, &sliceReader{}, "t", func(context.Context, kafka.Message) error { return nil })

	require.NoError(t, c.process(context.Background(), kafka.Message{Topic: "t", Partition: 2, Offset: 41, Key: []byte("order-9")}))
	assert.True(t, inbox.seen["t/2/41"])
}

func TestProcess_RedeliveryAfterFailureIsApplied(t *testing.T) {
	inbox := &memInbox{}
	calls := 0
	c := NewWithReader(discard(), inbox, &sliceReader{}, "t", func(context.Context, kafka.Message) error {
		calls++
		if calls == 1 {
			return errors.New("connection reset")
		}
		return nil
	})

	require.Error(t, c.process(context.Background(), event("e1", 1)))
	require.NoError(t, c.process(context.Background(), event("e1", 1)))
	require.NoError(t, c.process(context.Background(), event("e1", 1)))

	assert.Equal(t, 2, calls)
	assert.True(t, inbox.seen["e1"])
}

func runUntil(t *testing.T, c *Consumer, done <-chan struct{}) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(stopped)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not settle the events")
	}
	cancel()
	<-stopped
}

func TestRun_RetriesTransientFailuresBeforeCommitting(t *testing.T) {
	reader := &sliceReader{msgs: []kafka.Message{event("e1", 7), event("e2", 8)}}

	var mu sync.Mutex
	var handled []string
	done := make(chan struct{})
	handler := func(_ context.Context, msg kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		id := string(msg.Headers[0].Value)
		handled = append(handled, id)
		if len(handled) < 3 && id == "e1" {
			return errors.New("db down")
		}
		if id == "e2" {
			close(done)
		}
		return nil
	}

	c := NewWithReader(discard(), &memInbox{}, reader, "t", handler)
	c.retryBackoff = time.Millisecond
	runUntil(t, c, done)

	assert.Equal(t, []string{"e1", "e1", "e1", "e2"}, handled)
	assert.Equal(t, []int64{7, 8}, reader.commits())
}

func TestRun_SkipsPermanentFailures(t *testing.T) {
	reader := &sliceReader{msgs: []kafka.Message{event("bad", 3), event("good", 4)}}

	calls := map[string]int{}
	var mu sync.Mutex
	done := make(chan struct{})
	handler := func(_ context.Context, msg kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		id := string(msg.Headers[0].Value)
		calls[id]++
		if id == "bad" {
			return Permanent(errors.New("decode order: unexpected end of JSON input"))
		}
		close(done)
		return nil
	}

	c := NewWithReader(discard(), &memInbox{}, reader, "t", handler)
	c.retryBackoff = time.Millisecond
	runUntil(t, c, done)

	assert.Equal(t, map[string]int{"bad": 1, "good": 1}, calls)
	assert.Equal(t, []int64{3, 4}, reader.commits())
}

func TestRun_ShutdownLeavesFailedEventUncommitted(t *testing.T) {
	reader := &sliceReader{msgs: []kafka.Message{event("e1", 5)}}
	failed := make(chan struct{})
	var once sync.Once
	handler := func(context.Context, kafka.Message) error {
		once.Do(func() { close(failed) })
		return errors.New("db down")
	}

	c := NewWithReader(discard(), &memInbox{}, reader, "t", handler)
	c.retryBackoff = time.Hour
	runUntil(t, c, failed)

	assert.Empty(t, reader.commits())
}

func TestIsPermanent(t *testing.T) {
	base := errors.New("bad payload")
	err := fmt.Errorf("order 1: %w", Permanent(base))

	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsPermanent(base))
	assert.NoError(t, Permanent(nil))
}
