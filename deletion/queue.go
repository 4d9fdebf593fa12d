// Package deletion provides the deferred-destruction queue used to release GPU resources
// once the work that reads them is known to have completed.
//
// A Queue is a last-in-first-out list of release actions. Resources registered later may
// depend on resources registered earlier (an image view on its image, a pipeline on its
// layout), so Flush tears them down in the reverse of the order they were pushed.
//
// The queue does not know anything about the device: a caller must only Flush a queue
// once every piece of GPU work that could touch the captured handles has finished. The
// frames package does this for per-frame queues by flushing right after the frame's
// fence has been observed signaled.
package deletion

import (
	"github.com/vkngwrapper/arsenal/lifetime/internal/utils"
)

// CreateFlags indicate specific queue behaviors to activate or deactivate
type CreateFlags int32

const (
	// CreateExternallySynchronized ensures that the queue will not be synchronized internally.
	// The consumer must guarantee that Push and Flush are called from one goroutine at a time.
	CreateExternallySynchronized CreateFlags = 1 << iota
)

// CreateOptions contains optional settings when creating a queue
type CreateOptions struct {
	// Flags indicates specific queue behaviors to activate or deactivate
	Flags CreateFlags
	// Name is reported in diagnostics only
	Name string
}

// Queue is a LIFO list of deferred release actions. The zero value is an empty,
// unsynchronized queue ready for use.
type Queue struct {
	mutex    utils.OptionalMutex
	name     string
	deletors []func()
}

// New creates an empty Queue
func New(options CreateOptions) *Queue {
	return &Queue{
		name: options.Name,
		mutex: utils.OptionalMutex{
			UseMutex: options.Flags&CreateExternallySynchronized == 0,
		},
	}
}

// Name returns the name the queue was created with
func (q *Queue) Name() string {
	return q.name
}

// Push registers an action to run on the next Flush. Nil actions are ignored.
func (q *Queue) Push(action func()) {
	if action == nil {
		return
	}

	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.deletors = append(q.deletors, action)
}

// Len returns the number of actions waiting for the next Flush
func (q *Queue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	return len(q.deletors)
}

// Flush runs every pending action, most recently pushed first, and leaves the queue empty.
//
// Actions that push into the queue while it is flushing are kept for the next Flush.
func (q *Queue) Flush() {
	var pending []func()
	q.mutex.Locked(func() {
		pending = q.deletors
		q.deletors = nil
	})

	for i := len(pending) - 1; i >= 0; i-- {
		pending[i]()
		pending[i] = nil
	}

	// Hand the backing array back unless an action repopulated the queue
	q.mutex.Locked(func() {
		if len(q.deletors) == 0 {
			q.deletors = pending[:0]
		}
	})
}
