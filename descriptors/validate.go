package descriptors

import (
	"github.com/cockroachdb/errors"
)

// Validatable is used by the DebugValidate method to allow it to act upon
// all types with a Validate method
type Validatable interface {
	Validate() error
}

type validateFunc func() error

func (f validateFunc) Validate() error {
	return f()
}

// Validate checks that every live pool is tracked by exactly one of the ready and full lists,
// and that each pool's recorded state agrees with the list holding it
func (a *GrowableAllocator[L, S]) Validate() error {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	return a.validate()
}

// validate is Validate for callers already holding the mutex
func (a *GrowableAllocator[L, S]) validate() error {
	seen := make(map[int]poolState, len(a.ready)+len(a.full))

	check := func(pool *descriptorPool[L, S], expected poolState) error {
		if pool == nil {
			return errors.Newf("nil pool in %s list", expected)
		}

		if previous, duplicate := seen[pool.id]; duplicate {
			return errors.Newf("pool %d is present in the %s list and the %s list", pool.id, previous, expected)
		}
		seen[pool.id] = expected

		if pool.state != expected {
			return errors.Newf("pool %d is in the %s list but has state %s", pool.id, expected, pool.state)
		}

		if pool.maxSets < 1 || pool.maxSets > a.maxSetsPerPool {
			return errors.Newf("pool %d has capacity %d outside of [1, %d]", pool.id, pool.maxSets, a.maxSetsPerPool)
		}

		registered, ok := a.pools.Get(pool.id)
		if !ok || registered != pool {
			return errors.Newf("pool %d is not registered with the allocator", pool.id)
		}

		return nil
	}

	for _, pool := range a.ready {
		if err := check(pool, poolReady); err != nil {
			return err
		}
	}

	for _, pool := range a.full {
		if err := check(pool, poolFull); err != nil {
			return err
		}
	}

	if len(seen) != a.pools.Count() {
		return errors.Newf("allocator has %d pools but only %d are in the ready or full lists", a.pools.Count(), len(seen))
	}

	if a.setsPerPool > a.maxSetsPerPool {
		return errors.Newf("sets per pool %d exceeds the cap of %d", a.setsPerPool, a.maxSetsPerPool)
	}

	return nil
}
