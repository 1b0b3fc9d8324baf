package tick

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_StepCadence(t *testing.T) {
	t.Parallel()

	m := NewManager(time.Millisecond)
	var every, fifth []int64
	m.Register("every", func(_ context.Context, now int64) error {
		every = append(every, now)
		return nil
	})
	m.Every(5, "fifth", func(_ context.Context, now int64) error {
		fifth = append(fifth, now)
		return nil
	})
	assert.Equal(t, 2, m.Count())

	for range 12 {
		require.NoError(t, m.Step(context.Background()))
	}

	assert.Equal(t, int64(12), m.Now())
	assert.Len(t, every, 12)
	assert.Equal(t, int64(1), every[0])
	assert.Equal(t, []int64{5, 10}, fifth)
}

func TestManager_TaskOrder(t *testing.T) {
	t.Parallel()

	m := NewManager(0)
	assert.Equal(t, DefaultInterval, m.Interval())

	var order []string
	for _, name := range []string{"a", "b", "c"} {
		m.Register(name, func(context.Context, int64) error {
			order = append(order, name)
			return nil
		})
	}
	require.NoError(t, m.Step(context.Background()))
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestManager_TaskErrorContinues(t *testing.T) {
	t.Parallel()

	m := NewManager(time.Millisecond)
	ran := false
	m.Register("broken", func(context.Context, int64) error { return errors.New("boom") })
	m.Register("next", func(context.Context, int64) error {
		ran = true
		return nil
	})

	require.NoError(t, m.Step(context.Background()))
	assert.True(t, ran)
}

func TestManager_CanceledTask(t *testing.T) {
	t.Parallel()

	m := NewManager(time.Millisecond)
	m.Register("ctx", func(ctx context.Context, _ int64) error { return ctx.Err() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Step(ctx), context.Canceled)
}

func TestManager_Start(t *testing.T) {
	t.Parallel()

	m := NewManager(time.Millisecond)
	var ticks atomic.Int64
	m.Register("count", func(context.Context, int64) error {
		ticks.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()

	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, 2*time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}
}

func TestManager_Stop(t *testing.T) {
	t.Parallel()

	m := NewManager(time.Millisecond)
	done := make(chan error, 1)
	go func() { done <- m.Start(context.Background()) }()

	m.Stop()
	m.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after Stop")
	}
}
