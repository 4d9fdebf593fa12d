package descriptors

import "github.com/cockroachdb/errors"

// ErrPoolExhausted must be returned (or wrapped) by Pool.AllocateSet when the pool has run out of
// capacity or is too fragmented to satisfy the request. The allocator treats it as a request to
// move on to another pool, never as a failure.
var ErrPoolExhausted = errors.New("descriptor pool exhausted")

// ErrAllocatorExhausted is returned from GrowableAllocator.Allocate when a freshly created pool could
// not satisfy an allocation. The device or the layout is in a state the allocator cannot recover from.
var ErrAllocatorExhausted = errors.New("descriptor allocator could not satisfy allocation from a fresh pool")

// ErrInvalidRatios is returned from Init when the ratio table is empty or contains a non-positive ratio
var ErrInvalidRatios = errors.New("descriptor pool ratios must be non-empty and positive")

// ErrInvalidSetCount is returned from Init when the initial set count is below 1
var ErrInvalidSetCount = errors.New("descriptor pool set count must be at least 1")

// ErrNotInitialized is returned when the allocator is used before Init or after DestroyPools
var ErrNotInitialized = errors.New("descriptor allocator is not initialized")
