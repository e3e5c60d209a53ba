package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progresskit/core"
)

func TestEventBus_SyncDispatch(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	defer bus.Close()

	var got []core.Event
	unsub := bus.Subscribe(core.EventXPAwarded, func(_ context.Context, ev core.Event) {
		got = append(got, ev)
	})
	defer unsub()

	bus.Publish(context.Background(), core.NewXPAwarded("u1", 25, 25, time.Now()))
	bus.Publish(context.Background(), core.NewLevelUp("u1", 2, 120, time.Now())) // different type, ignored

	require.Len(t, got, 1)
	assert.Equal(t, int64(25), got[0].Amount)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	defer bus.Close()

	var calls int
	unsub := bus.Subscribe(core.EventLevelUp, func(context.Context, core.Event) { calls++ })
	bus.Publish(context.Background(), core.NewLevelUp("u1", 2, 120, time.Now()))
	unsub()
	bus.Publish(context.Background(), core.NewLevelUp("u1", 3, 300, time.Now()))

	assert.Equal(t, 1, calls)
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	defer bus.Close()

	var calls int
	unsub := bus.SubscribeAll(func(context.Context, core.Event) { calls++ })

	now := time.Now()
	bus.Publish(context.Background(), core.NewXPAwarded("u1", 25, 25, now))
	bus.Publish(context.Background(), core.NewStreakAdvanced("u1", 3, now))
	bus.Publish(context.Background(), core.NewLessonCompleted("u1", "c1", "l1", now))
	assert.Equal(t, 3, calls)

	unsub()
	bus.Publish(context.Background(), core.NewXPAwarded("u1", 25, 50, now))
	assert.Equal(t, 3, calls)
}

func TestEventBus_AsyncDispatch(t *testing.T) {
	bus := NewEventBus(DispatchAsync)
	defer bus.Close()

	var count atomic.Int64
	var wg sync.WaitGroup
	wg.Add(10)
	bus.Subscribe(core.EventXPAwarded, func(context.Context, core.Event) {
		count.Add(1)
		wg.Done()
	})

	for i := 0; i < 10; i++ {
		bus.Publish(context.Background(), core.NewXPAwarded("u1", 10, int64(i*10), time.Now()))
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async handlers did not run")
	}
	assert.Equal(t, int64(10), count.Load())
}

func TestEventBus_ConcurrentPublish(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	defer bus.Close()

	var count atomic.Int64
	bus.Subscribe(core.EventXPAwarded, func(context.Context, core.Event) { count.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				bus.Publish(context.Background(), core.NewXPAwarded("u1", 1, 1, time.Now()))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(400), count.Load())
}
