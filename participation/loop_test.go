package participation

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runLoop(t *testing.T) *Loop {
	t.Helper()
	loop := NewLoop(16)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(cancel)
	return loop
}

func TestLoop_DoWaitsForCompletion(t *testing.T) {
	loop := runLoop(t)

	ran := false
	err := loop.Do(context.Background(), func(ctx context.Context) { ran = true })

	require.NoError(t, err)
	assert.True(t, ran)
}

func TestLoop_AfterFuncRunsOnLoop(t *testing.T) {
	loop := runLoop(t)

	var fired atomic.Int32
	require.NoError(t, loop.Do(context.Background(), func(ctx context.Context) {
		loop.AfterFunc(10*time.Millisecond, func(ctx context.Context) { fired.Add(1) })
	}))

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestLoop_StoppedTimerNeverFires(t *testing.T) {
	loop := runLoop(t)

	var fired atomic.Int32
	var timer Timer
	require.NoError(t, loop.Do(context.Background(), func(ctx context.Context) {
		timer = loop.AfterFunc(20*time.Millisecond, func(ctx context.Context) { fired.Add(1) })
	}))

	var stopped bool
	require.NoError(t, loop.Do(context.Background(), func(ctx context.Context) { stopped = timer.Stop() }))
	assert.True(t, stopped)

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, fired.Load())
}

func TestLoop_StopWinsOverQueuedCallback(t *testing.T) {
	loop := runLoop(t)

	var fired atomic.Int32
	require.NoError(t, loop.Do(context.Background(), func(ctx context.Context) {
		timer := loop.AfterFunc(0, func(ctx context.Context) { fired.Add(1) })
		// Give the timer time to fire and queue its callback behind this task
		time.Sleep(20 * time.Millisecond)
		timer.Stop()
	}))

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, fired.Load())
}

func TestLoop_PanicDoesNotKillLoop(t *testing.T) {
	loop := runLoop(t)

	_ = loop.Do(context.Background(), func(ctx context.Context) { panic("boom") })

	ran := false
	require.NoError(t, loop.Do(context.Background(), func(ctx context.Context) { ran = true }))
	assert.True(t, ran)
}

func TestLoop_DoAfterStop(t *testing.T) {
	loop := NewLoop(1)
	loop.Stop()

	err := loop.Do(context.Background(), func(ctx context.Context) {})
	assert.ErrorIs(t, err, ErrLoopStopped)
}
