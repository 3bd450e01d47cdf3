package async

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShardedExecutorRunsEveryShard(t *testing.T) {
	e := NewShardedExecutor(4)
	var seen [4]int32
	err := e.Execute(func(shardIndex, numShards int) error {
		require.Equal(t, 4, numShards)
		atomic.AddInt32(&seen[shardIndex], 1)
		return nil
	})
	require.NoError(t, err)
	for _, v := range seen {
		assert.Equal(t, int32(1), v)
	}
}

func TestShardedExecutorPropagatesError(t *testing.T) {
	e := NewShardedExecutor(3)
	boom := assert.AnError
	err := e.Execute(func(shardIndex, numShards int) error {
		if shardIndex == 1 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestThreadSafeQueuePushPop(t *testing.T) {
	q := NewThreadSafeQueue[int]()
	q.Push(1)
	q.Push(2)
	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestThreadSafeQueuePopBlocksUntilPush(t *testing.T) {
	q := NewThreadSafeQueue[int]()
	done := make(chan int, 1)
	go func() {
		v, ok := q.Pop()
		if ok {
			done <- v
		} else {
			done <- -1
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push(42)

	select {
	case v := <-done:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("Pop never returned after Push")
	}
}

func TestThreadSafeQueuePopWithTimeout(t *testing.T) {
	q := NewThreadSafeQueue[int]()
	start := time.Now()
	_, ok := q.PopWithTimeout(20 * time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestThreadSafeQueueCloseWakesWaiters(t *testing.T) {
	q := NewThreadSafeQueue[int]()
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()
	time.Sleep(10 * time.Millisecond)
	q.Close()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Close did not wake blocked Pop")
	}
}

func TestPollThreadFiresAndJoinStops(t *testing.T) {
	var count int32
	p := NewPollThread(5*time.Millisecond, func() {
		atomic.AddInt32(&count, 1)
	})
	time.Sleep(30 * time.Millisecond)
	p.Join()
	after := atomic.LoadInt32(&count)
	assert.Greater(t, after, int32(0))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&count))
}

func TestDirectoryWatcherFiresOnCreate(t *testing.T) {
	dir := t.TempDir()
	fired := make(chan struct{}, 8)
	dw, err := NewDirectoryWatcher(dir, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer dw.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "model-1.pb"), []byte("x"), 0o644))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("directory watcher did not fire on file creation")
	}
}
