// Package descriptors implements a growable pooled descriptor set allocator.
//
// The allocator keeps every pool it has ever created in one of two lists: ready pools, which
// are believed to have free capacity, and full pools, whose last allocation attempt failed.
// Allocation only ever probes ready pools. When none can serve a request a new pool is created,
// sized from a baseline that grows geometrically (bounded by a cap) so that sustained demand
// creates O(log n) pools rather than O(n).
//
// Growing never touches existing pools, so sets already handed out stay valid until
// ClearPools or DestroyPools is called.
package descriptors

import (
	"log/slog"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/google/uuid"
	"github.com/vkngwrapper/arsenal/lifetime/internal/utils"
	"github.com/vkngwrapper/core/v3/common"
)

// GrowableAllocator hands out descriptor sets of any layout from a growing set of pools.
//
// L is the device's layout handle type and S its descriptor set handle type.
type GrowableAllocator[L, S any] struct {
	logger  *slog.Logger
	factory PoolFactory[L, S]
	id      uuid.UUID
	name    string
	mutex   utils.OptionalRWMutex

	initialized    bool
	ratios         []PoolSizeRatio
	setsPerPool    int
	maxSetsPerPool int
	growthCount    int

	nextPoolID int
	pools      *swiss.Map[int, *descriptorPool[L, S]]
	ready      []*descriptorPool[L, S]
	full       []*descriptorPool[L, S]

	totalAllocations int
}

// Init stores the ratio table and creates the first pool, sized for initialSets sets. initialSets
// is clamped to the allocator's MaxSetsPerPool.
//
// It is valid to call Init again after DestroyPools.
func (a *GrowableAllocator[L, S]) Init(initialSets int, ratios []PoolSizeRatio) error {
	a.logger.Debug("GrowableAllocator::Init")

	if initialSets < 1 {
		return errors.Wrapf(ErrInvalidSetCount, "initial set count %d", initialSets)
	}

	err := validateRatios(ratios)
	if err != nil {
		return err
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.initialized {
		return errors.New("attempted to init a descriptor allocator that is already initialized")
	}

	if initialSets > a.maxSetsPerPool {
		a.logger.Warn("GrowableAllocator::Init initial set count exceeds the pool cap", slog.Int("initialSets", initialSets), slog.Int("maxSetsPerPool", a.maxSetsPerPool))
		initialSets = a.maxSetsPerPool
	}

	a.ratios = append([]PoolSizeRatio(nil), ratios...)
	a.setsPerPool = initialSets
	a.growthCount = 0

	pool, err := a.createPool(initialSets)
	if err != nil {
		return err
	}

	a.ready = append(a.ready, pool)
	a.initialized = true

	DebugValidate(validateFunc(a.validate))
	return nil
}

// Allocate returns a descriptor set of the given layout. next is chained onto the allocation
// request and may be nil.
//
// When the pool that was tried is exhausted it is retired to the full list and the request is
// retried once against a freshly grown pool. A failure on that fresh pool, or an error that does
// not indicate exhaustion, is returned to the caller: both are fatal.
func (a *GrowableAllocator[L, S]) Allocate(layout L, next common.Options) (S, error) {
	a.logger.Debug("GrowableAllocator::Allocate")

	a.mutex.Lock()
	defer a.mutex.Unlock()

	var set S
	if !a.initialized {
		return set, ErrNotInitialized
	}

	pool, err := a.getPool()
	if err != nil {
		return set, err
	}

	set, err = pool.handle.AllocateSet(layout, next)
	if err == nil {
		a.recordAllocation(pool)
		return set, nil
	}

	if !errors.Is(err, ErrPoolExhausted) {
		a.ready = append(a.ready, pool)
		return set, errors.Wrap(err, "failed to allocate descriptor set")
	}

	a.logger.Debug("GrowableAllocator::Allocate retiring exhausted pool", slog.Int("pool", pool.id))
	pool.state = poolFull
	a.full = append(a.full, pool)

	pool, err = a.grow()
	if err != nil {
		return set, err
	}

	set, err = pool.handle.AllocateSet(layout, next)
	if err != nil {
		if errors.Is(err, ErrPoolExhausted) {
			pool.state = poolFull
			a.full = append(a.full, pool)
		} else {
			a.ready = append(a.ready, pool)
		}

		DebugValidate(validateFunc(a.validate))
		return set, errors.Mark(errors.Wrapf(err, "descriptor pool %d was created for %d sets", pool.id, pool.maxSets), ErrAllocatorExhausted)
	}

	a.recordAllocation(pool)
	return set, nil
}

func (a *GrowableAllocator[L, S]) recordAllocation(pool *descriptorPool[L, S]) {
	pool.allocations++
	a.totalAllocations++
	a.ready = append(a.ready, pool)

	DebugValidate(validateFunc(a.validate))
}

// ClearPools resets every pool and returns all of them to the ready list. Every set previously
// allocated from this allocator becomes invalid and must not be used afterwards.
func (a *GrowableAllocator[L, S]) ClearPools() error {
	a.logger.Debug("GrowableAllocator::ClearPools")

	a.mutex.Lock()
	defer a.mutex.Unlock()

	var resetErr error
	reset := func(pool *descriptorPool[L, S]) {
		err := pool.handle.Reset()
		if err != nil {
			resetErr = errors.CombineErrors(resetErr, errors.Wrapf(err, "failed to reset descriptor pool %d", pool.id))
		}

		pool.allocations = 0
		pool.resets++
		pool.state = poolReady
	}

	for _, pool := range a.ready {
		reset(pool)
	}

	for _, pool := range a.full {
		reset(pool)
		a.ready = append(a.ready, pool)
	}

	clear(a.full)
	a.full = a.full[:0]

	DebugValidate(validateFunc(a.validate))
	return resetErr
}

// DestroyPools destroys every pool. The allocator is unusable until Init is called again.
func (a *GrowableAllocator[L, S]) DestroyPools() {
	a.logger.Debug("GrowableAllocator::DestroyPools")

	a.mutex.Lock()
	defer a.mutex.Unlock()

	for _, pool := range a.ready {
		pool.handle.Destroy()
	}

	for _, pool := range a.full {
		pool.handle.Destroy()
	}

	a.ready = nil
	a.full = nil
	a.pools.Clear()
	a.initialized = false
}

// SetsPerPool returns the baseline capacity of the most recently created pool
func (a *GrowableAllocator[L, S]) SetsPerPool() int {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	return a.setsPerPool
}

// ReadyCount returns the number of pools believed to have free capacity
func (a *GrowableAllocator[L, S]) ReadyCount() int {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	return len(a.ready)
}

// FullCount returns the number of pools retired since the last ClearPools
func (a *GrowableAllocator[L, S]) FullCount() int {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	return len(a.full)
}

// MaxSetsPerPool returns the cap on pool capacity
func (a *GrowableAllocator[L, S]) MaxSetsPerPool() int {
	return a.maxSetsPerPool
}

// ID returns the identifier reported in statistics
func (a *GrowableAllocator[L, S]) ID() uuid.UUID {
	return a.id
}

func (a *GrowableAllocator[L, S]) Name() string {
	return a.name
}

// getPool pops the most recently used ready pool, or grows a new one if no pools are ready
func (a *GrowableAllocator[L, S]) getPool() (*descriptorPool[L, S], error) {
	if len(a.ready) > 0 {
		last := len(a.ready) - 1
		pool := a.ready[last]
		a.ready[last] = nil
		a.ready = a.ready[:last]
		return pool, nil
	}

	return a.grow()
}

// grow creates a pool at the next sets-per-pool baseline. The baseline only advances once the
// pool exists. The pool is not placed in either list.
func (a *GrowableAllocator[L, S]) grow() (*descriptorPool[L, S], error) {
	setCount := nextSetsPerPool(a.setsPerPool, a.maxSetsPerPool)

	pool, err := a.createPool(setCount)
	if err != nil {
		return nil, errors.Mark(err, ErrAllocatorExhausted)
	}

	a.setsPerPool = setCount
	a.growthCount++
	return pool, nil
}

func (a *GrowableAllocator[L, S]) createPool(setCount int) (*descriptorPool[L, S], error) {
	handle, err := a.factory.CreatePool(setCount, poolSizes(a.ratios, setCount))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create descriptor pool for %d sets", setCount)
	}

	a.nextPoolID++
	pool := &descriptorPool[L, S]{
		id:      a.nextPoolID,
		handle:  handle,
		maxSets: setCount,
		state:   poolReady,
	}
	a.pools.Put(pool.id, pool)

	a.logger.Debug("GrowableAllocator::createPool", slog.Int("pool", pool.id), slog.Int("sets", setCount))
	return pool, nil
}

// nextSetsPerPool applies the growth policy: the baseline grows by GrowthFactor, rounded down,
// never below 1 and never above maxSets
func nextSetsPerPool(current, maxSets int) int {
	grown := int(math.Floor(float64(current) * GrowthFactor))
	if grown > maxSets {
		grown = maxSets
	}
	if grown < 1 {
		grown = 1
	}

	return grown
}
