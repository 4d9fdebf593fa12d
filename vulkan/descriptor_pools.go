package vulkan

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/lifetime/descriptors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// DescriptorAllocator is a growable descriptor allocator for vkngwrapper layouts and sets
type DescriptorAllocator = descriptors.GrowableAllocator[core1_0.DescriptorSetLayout, core1_0.DescriptorSet]

// DescriptorPools creates core1_0.DescriptorPool objects for a descriptors.GrowableAllocator
type DescriptorPools struct {
	driver core1_0.DeviceDriver
	flags  core1_0.DescriptorPoolCreateFlags
}

var _ descriptors.PoolFactory[core1_0.DescriptorSetLayout, core1_0.DescriptorSet] = &DescriptorPools{}

// NewDescriptorPools creates a pool factory. flags are applied to every pool it creates.
func NewDescriptorPools(driver core1_0.DeviceDriver, flags core1_0.DescriptorPoolCreateFlags) *DescriptorPools {
	return &DescriptorPools{
		driver: driver,
		flags:  flags,
	}
}

// NewDescriptorAllocator creates a descriptor allocator whose pools are created on driver
func NewDescriptorAllocator(logger *slog.Logger, driver core1_0.DeviceDriver, options descriptors.CreateOptions) *DescriptorAllocator {
	return descriptors.New[core1_0.DescriptorSetLayout, core1_0.DescriptorSet](logger, NewDescriptorPools(driver, 0), options)
}

func (p *DescriptorPools) CreatePool(maxSets int, sizes []descriptors.PoolSize) (descriptors.Pool[core1_0.DescriptorSetLayout, core1_0.DescriptorSet], error) {
	poolSizes := make([]core1_0.DescriptorPoolSize, 0, len(sizes))
	for _, size := range sizes {
		poolSizes = append(poolSizes, core1_0.DescriptorPoolSize{
			Type:            size.Type,
			DescriptorCount: size.DescriptorCount,
		})
	}

	pool, res, err := p.driver.CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		Flags:     p.flags,
		MaxSets:   maxSets,
		PoolSizes: poolSizes,
	})
	if err != nil {
		return nil, resultError(res, err, "vkCreateDescriptorPool")
	}

	return &descriptorPool{driver: p.driver, handle: pool}, nil
}

type descriptorPool struct {
	driver core1_0.DeviceDriver
	handle core1_0.DescriptorPool
}

func (p *descriptorPool) AllocateSet(layout core1_0.DescriptorSetLayout, next common.Options) (core1_0.DescriptorSet, error) {
	sets, res, err := p.driver.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: p.handle,
		SetLayouts:     []core1_0.DescriptorSetLayout{layout},
		NextOptions:    common.NextOptions{Next: next},
	})
	if err != nil {
		return core1_0.DescriptorSet{}, resultError(res, err, "vkAllocateDescriptorSets")
	}

	if len(sets) != 1 {
		return core1_0.DescriptorSet{}, errors.Newf("expected 1 descriptor set, got %d", len(sets))
	}

	return sets[0], nil
}

func (p *descriptorPool) Reset() error {
	res, err := p.driver.ResetDescriptorPool(p.handle, 0)
	if err != nil {
		return resultError(res, err, "vkResetDescriptorPool")
	}

	return nil
}

func (p *descriptorPool) Destroy() {
	p.driver.DestroyDescriptorPool(p.handle, nil)
}

// FrameDescriptors is a per-frame descriptor allocator. It implements frames.SlotResource, so the
// frame ring clears its pools each time the slot that owns it is reused.
type FrameDescriptors struct {
	*DescriptorAllocator
}

func (d FrameDescriptors) Reset() error {
	return d.ClearPools()
}

func (d FrameDescriptors) Destroy() {
	d.DestroyPools()
}
