package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerSerializesSameKey(t *testing.T) {
	l := NewLocalLocker(time.Second)

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "student:1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, l.locks)
}

func TestLocalLockerIndependentKeys(t *testing.T) {
	l := NewLocalLocker(time.Second)

	r1, err := l.Acquire(context.Background(), "student:1")
	require.NoError(t, err)
	defer r1()

	r2, err := l.Acquire(context.Background(), "student:2")
	require.NoError(t, err)
	r2()
}

func TestLocalLockerTimeout(t *testing.T) {
	l := NewLocalLocker(20 * time.Millisecond)

	release, err := l.Acquire(context.Background(), "student:1")
	require.NoError(t, err)

	_, err = l.Acquire(context.Background(), "student:1")
	assert.ErrorIs(t, err, ErrLockTimeout)

	release()
	release()

	again, err := l.Acquire(context.Background(), "student:1")
	require.NoError(t, err)
	again()
}
