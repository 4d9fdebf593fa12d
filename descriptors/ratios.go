package descriptors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// PoolSizeRatio describes how many descriptors of a single type each pool provisions, relative
// to the number of sets the pool is created for. A ratio of 3 with a 10-set pool provisions
// 30 descriptors of Type.
type PoolSizeRatio struct {
	Type  core1_0.DescriptorType
	Ratio float32
}

func (r PoolSizeRatio) String() string {
	return fmt.Sprintf("%v x%g", r.Type, r.Ratio)
}

// PoolSize is a concrete descriptor budget for one pool
type PoolSize struct {
	Type            core1_0.DescriptorType
	DescriptorCount int
}

func validateRatios(ratios []PoolSizeRatio) error {
	if len(ratios) == 0 {
		return ErrInvalidRatios
	}

	for _, ratio := range ratios {
		if !(ratio.Ratio > 0) {
			return errors.Wrapf(ErrInvalidRatios, "ratio %s", ratio)
		}
	}

	return nil
}

// poolSizes converts a ratio table to the descriptor budget of a pool holding setCount sets.
// Every type gets at least one descriptor.
func poolSizes(ratios []PoolSizeRatio, setCount int) []PoolSize {
	sizes := make([]PoolSize, 0, len(ratios))
	for _, ratio := range ratios {
		count := int(ratio.Ratio * float32(setCount))
		if count < 1 {
			count = 1
		}

		sizes = append(sizes, PoolSize{
			Type:            ratio.Type,
			DescriptorCount: count,
		})
	}

	return sizes
}
