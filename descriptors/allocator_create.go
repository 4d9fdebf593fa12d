package descriptors

import (
	"log/slog"

	"github.com/dolthub/swiss"
	"github.com/google/uuid"
	"github.com/vkngwrapper/arsenal/lifetime/internal/utils"
)

// CreateFlags indicate specific allocator behaviors to activate or deactivate
type CreateFlags int32

const (
	// CreateExternallySynchronized ensures that the allocator will not be synchronized internally.
	// The consumer must guarantee it is used from only one goroutine at a time, which is the case
	// for an allocator owned by a single frame slot.
	CreateExternallySynchronized CreateFlags = 1 << iota
)

const (
	// DefaultMaxSetsPerPool is the cap applied to pool growth when CreateOptions.MaxSetsPerPool is 0
	DefaultMaxSetsPerPool int = 4092
	// GrowthFactor is the multiplier applied to the sets-per-pool baseline each time a new pool
	// has to be created
	GrowthFactor float64 = 1.5
)

// CreateOptions contains optional settings when creating an allocator
type CreateOptions struct {
	// Flags indicates specific allocator behaviors to activate or deactivate
	Flags CreateFlags
	// MaxSetsPerPool bounds the geometric growth of new pools. Leave 0 for DefaultMaxSetsPerPool.
	MaxSetsPerPool int
	// Name is reported in statistics only
	Name string
}

// New creates a GrowableAllocator that builds its pools with factory. The allocator holds no
// pools until Init is called.
func New[L, S any](logger *slog.Logger, factory PoolFactory[L, S], options CreateOptions) *GrowableAllocator[L, S] {
	allocator := &GrowableAllocator[L, S]{
		logger:  logger,
		factory: factory,
		id:      uuid.New(),
		name:    options.Name,
		mutex: utils.OptionalRWMutex{
			UseMutex: options.Flags&CreateExternallySynchronized == 0,
		},
		pools: swiss.NewMap[int, *descriptorPool[L, S]](8),
	}

	if options.MaxSetsPerPool <= 0 {
		allocator.maxSetsPerPool = DefaultMaxSetsPerPool
	} else {
		allocator.maxSetsPerPool = options.MaxSetsPerPool
	}

	return allocator
}
