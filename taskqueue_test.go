package oioproxy

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTaskQueueFireRunsImmediately(t *testing.T) {
	q := NewTaskQueue("test")
	var n int32
	q.Register("t", time.Hour, func(now time.Time) { atomic.AddInt32(&n, 1) })

	require.True(t, q.Fire("t"))
	require.Equal(t, int32(1), atomic.LoadInt32(&n))
	require.False(t, q.Fire("unknown"))
}

func TestTaskQueueRunTicksRegisteredTasks(t *testing.T) {
	q := NewTaskQueue("test")
	var n int32
	q.Register("t", 10*time.Millisecond, func(now time.Time) { atomic.AddInt32(&n, 1) })

	go q.Run()
	defer q.Stop()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&n) > 0 }, 2*time.Second, 10*time.Millisecond)
	require.True(t, q.Running())
}

func TestTaskQueueStopIsIdempotentOnUnstarted(t *testing.T) {
	q := NewTaskQueue("test")
	q.Stop()
	require.False(t, q.Running())
}

func TestTaskQueueZeroPeriodTaskStaysDormantUntilFire(t *testing.T) {
	q := NewTaskQueue("test")
	var n int32
	q.Register("t", 0, func(now time.Time) { atomic.AddInt32(&n, 1) })

	go q.Run()
	defer q.Stop()

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(0), atomic.LoadInt32(&n))

	require.True(t, q.Fire("t"))
	require.Equal(t, int32(1), atomic.LoadInt32(&n))

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(1), atomic.LoadInt32(&n))
}

func TestTaskQueueDestroyClearsTasks(t *testing.T) {
	q := NewTaskQueue("test")
	q.Register("t", time.Hour, func(now time.Time) {})
	q.Destroy()
	require.False(t, q.Fire("t"))
}
