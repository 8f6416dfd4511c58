package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remindflow/internal/domain"
)

func TestDeliverCallsEveryHandler(t *testing.T) {
	var calls atomic.Int32
	h := HandlerFunc(func(ctx context.Context, n domain.Notification) error {
		calls.Add(1)
		assert.Equal(t, "rem_1", n.ReminderID)
		return nil
	})
	p := NewPool(map[string]Handler{"a": h, "b": h, "c": h}, 2, time.Second)

	require.NoError(t, p.Deliver(context.Background(), domain.Notification{ReminderID: "rem_1"}))
	assert.EqualValues(t, 3, calls.Load())
}

func TestDeliverReportsFailedHandlers(t *testing.T) {
	ok := HandlerFunc(func(ctx context.Context, n domain.Notification) error { return nil })
	bad := HandlerFunc(func(ctx context.Context, n domain.Notification) error { return errors.New("boom") })
	p := NewPool(map[string]Handler{"log": ok, "webhook": bad}, 4, time.Second)

	err := p.Deliver(context.Background(), domain.Notification{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDelivery)
	assert.Contains(t, err.Error(), "webhook: boom")
}

func TestDeliverAppliesTimeout(t *testing.T) {
	slow := HandlerFunc(func(ctx context.Context, n domain.Notification) error {
		<-ctx.Done()
		return ctx.Err()
	})
	p := NewPool(map[string]Handler{"slow": slow}, 1, 20*time.Millisecond)

	err := p.Deliver(context.Background(), domain.Notification{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDeliverBoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	h := HandlerFunc(func(ctx context.Context, n domain.Notification) error {
		cur := running.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return nil
	})
	handlers := map[string]Handler{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		handlers[name] = h
	}
	p := NewPool(handlers, 2, time.Second)

	require.NoError(t, p.Deliver(context.Background(), domain.Notification{}))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestDeliverWithoutHandlers(t *testing.T) {
	err := NewPool(nil, 1, 0).Deliver(context.Background(), domain.Notification{})
	assert.ErrorIs(t, err, domain.ErrDelivery)
}
