package descriptors

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/core/v3/common"
)

// Pool is a single capacity-bounded descriptor pool. L is the layout handle type and S the
// descriptor set handle type of the device the pool lives on.
type Pool[L, S any] interface {
	// AllocateSet allocates one set of the given layout. When the pool is out of capacity or
	// too fragmented it must return an error satisfying errors.Is(err, ErrPoolExhausted).
	AllocateSet(layout L, next common.Options) (S, error)
	// Reset returns every set allocated from the pool to it. The sets become invalid.
	Reset() error
	Destroy()
}

// PoolFactory creates pools able to hold maxSets sets with the provided descriptor budget
type PoolFactory[L, S any] interface {
	CreatePool(maxSets int, sizes []PoolSize) (Pool[L, S], error)
}

type poolState int

const (
	poolReady poolState = iota
	poolFull
)

var poolStateMapping = map[poolState]string{
	poolReady: "Ready",
	poolFull:  "Full",
}

func (s poolState) String() string {
	return poolStateMapping[s]
}

// descriptorPool is the allocator's record of one pool
type descriptorPool[L, S any] struct {
	id      int
	handle  Pool[L, S]
	maxSets int
	state   poolState

	// allocations counts sets handed out since the last reset
	allocations int
	resets      int
}

func (p *descriptorPool[L, S]) printParameters(json *jwriter.ObjectState) {
	json.Name("State").String(p.state.String())
	json.Name("MaxSets").Int(p.maxSets)
	json.Name("Allocations").Int(p.allocations)
	json.Name("Resets").Int(p.resets)
}
