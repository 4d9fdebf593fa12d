package deletion_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/lifetime/deletion"
)

func TestFlushRunsInReverseOrder(t *testing.T) {
	queue := deletion.New(deletion.CreateOptions{})

	var order []string
	for _, name := range []string{"A", "B", "C"} {
		name := name
		queue.Push(func() {
			order = append(order, name)
		})
	}
	require.Equal(t, 3, queue.Len())

	queue.Flush()

	require.Equal(t, []string{"C", "B", "A"}, order)
	require.Equal(t, 0, queue.Len())
}

func TestFlushReverseOrderLargeSequence(t *testing.T) {
	queue := deletion.New(deletion.CreateOptions{Flags: deletion.CreateExternallySynchronized})

	const count = 100
	var order []int
	for i := 0; i < count; i++ {
		i := i
		queue.Push(func() { order = append(order, i) })
	}

	queue.Flush()

	require.Len(t, order, count)
	for i := 0; i < count; i++ {
		require.Equal(t, count-1-i, order[i])
	}
}

func TestQueueReusableAfterFlush(t *testing.T) {
	queue := deletion.New(deletion.CreateOptions{Name: "frame 0"})
	require.Equal(t, "frame 0", queue.Name())

	calls := 0
	queue.Push(func() { calls++ })
	queue.Flush()
	require.Equal(t, 1, calls)

	// Flushing an empty queue is a no-op
	queue.Flush()
	require.Equal(t, 1, calls)

	queue.Push(func() { calls += 10 })
	queue.Flush()
	require.Equal(t, 11, calls)
}

func TestNilActionIgnored(t *testing.T) {
	var queue deletion.Queue
	queue.Push(nil)
	require.Equal(t, 0, queue.Len())
	queue.Flush()
}

func TestPushDuringFlushDefersToNextFlush(t *testing.T) {
	queue := deletion.New(deletion.CreateOptions{})

	var order []string
	queue.Push(func() { order = append(order, "first") })
	queue.Push(func() {
		order = append(order, "second")
		queue.Push(func() { order = append(order, "late") })
	})

	queue.Flush()
	require.Equal(t, []string{"second", "first"}, order)
	require.Equal(t, 1, queue.Len())

	queue.Flush()
	require.Equal(t, []string{"second", "first", "late"}, order)
	require.Equal(t, 0, queue.Len())
}

func TestConcurrentPush(t *testing.T) {
	queue := deletion.New(deletion.CreateOptions{})

	var counterLock sync.Mutex
	counter := 0

	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				queue.Push(func() {
					counterLock.Lock()
					counter++
					counterLock.Unlock()
				})
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 400, queue.Len())
	queue.Flush()
	require.Equal(t, 400, counter)
}
