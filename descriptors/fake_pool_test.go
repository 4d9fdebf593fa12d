package descriptors

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
)

type fakeSet struct {
	Pool   int
	Serial int
}

// fakePoolFactory hands out pools that enforce only their set capacity. Set serials are unique
// across every pool the factory ever creates, so stale handles can be detected after a reset.
type fakePoolFactory struct {
	serial  int
	created []*fakePool

	capacityOverride *int
	createErr        error
	allocateErr      error
}

func (f *fakePoolFactory) CreatePool(maxSets int, sizes []PoolSize) (Pool[int, fakeSet], error) {
	if f.createErr != nil {
		return nil, f.createErr
	}

	capacity := maxSets
	if f.capacityOverride != nil {
		capacity = *f.capacityOverride
	}

	pool := &fakePool{
		factory:  f,
		index:    len(f.created),
		maxSets:  maxSets,
		capacity: capacity,
		sizes:    sizes,
	}
	f.created = append(f.created, pool)
	return pool, nil
}

type fakePool struct {
	factory  *fakePoolFactory
	index    int
	maxSets  int
	capacity int
	sizes    []PoolSize

	used      int
	resets    int
	destroyed bool
}

func (p *fakePool) AllocateSet(layout int, next common.Options) (fakeSet, error) {
	if p.destroyed {
		panic("allocated from a destroyed pool")
	}

	if p.factory.allocateErr != nil {
		return fakeSet{}, p.factory.allocateErr
	}

	if p.used >= p.capacity {
		return fakeSet{}, errors.Wrap(ErrPoolExhausted, "fake pool out of sets")
	}

	p.used++
	p.factory.serial++
	return fakeSet{Pool: p.index, Serial: p.factory.serial}, nil
}

func (p *fakePool) Reset() error {
	p.used = 0
	p.resets++
	return nil
}

func (p *fakePool) Destroy() {
	p.destroyed = true
}
