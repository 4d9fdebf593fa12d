package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/lifetime/config"
	"github.com/vkngwrapper/arsenal/lifetime/deletion"
	"github.com/vkngwrapper/arsenal/lifetime/descriptors"
	"github.com/vkngwrapper/arsenal/lifetime/frames"
	"github.com/vkngwrapper/arsenal/lifetime/vulkan"
	"github.com/vkngwrapper/core/v3/core1_0"
)

func run(ctx context.Context, logger *slog.Logger, options config.Config, validation bool) (err error) {
	ratios, err := options.Descriptors.PoolSizeRatios()
	if err != nil {
		return err
	}

	// Everything the frame driver depends on is torn down through this queue, after the driver
	// has shut down
	teardown := deletion.New(deletion.CreateOptions{Name: "teardown"})
	defer teardown.Flush()

	vk, err := newVulkanContext(logger, teardown, validation)
	if err != nil {
		return err
	}

	target, err := newSwapchainTarget(logger, vk)
	if err != nil {
		return err
	}
	teardown.Push(target.destroy)

	var layouts vulkan.LayoutBuilder
	layouts.AddBinding(0, core1_0.DescriptorTypeUniformBuffer).
		AddBinding(1, core1_0.DescriptorTypeSampler)
	layout, err := layouts.Build(vk.device, core1_0.StageVertex|core1_0.StageFragment, nil)
	if err != nil {
		return err
	}

	device := vulkan.NewDevice(logger, vk.device, vk.graphicsQueue, vk.graphicsFamily)
	ring, err := frames.NewRing(logger, device, frames.RingOptions{
		FrameOverlap: options.Frames.Overlap,
		SlotResources: func(index int) (frames.SlotResource, error) {
			allocator := vulkan.NewDescriptorAllocator(logger, vk.device,
				options.Descriptors.AllocatorOptions(frameAllocatorName(index), descriptors.CreateExternallySynchronized))

			err := allocator.Init(options.Descriptors.InitialSets, ratios)
			if err != nil {
				return nil, err
			}

			return vulkan.FrameDescriptors{DescriptorAllocator: allocator}, nil
		},
	})
	if err != nil {
		vk.device.DestroyDescriptorSetLayout(layout, nil)
		return err
	}

	driver := frames.NewDriver(logger, ring, device, target.Surface(), target, options.Frames.DriverOptions())
	driver.Global().Push(func() {
		vk.device.DestroyDescriptorSetLayout(layout, nil)
	})
	defer func() {
		logStatistics(logger, ring)
		err = errors.CombineErrors(err, driver.Shutdown())
	}()

	uniforms, err := newUniforms(vk, ring.Len())
	if err != nil {
		return err
	}
	driver.Global().Push(uniforms.destroy)

	r := &renderer{
		logger:   logger,
		device:   vk.device,
		target:   target,
		layout:   layout,
		uniforms: uniforms,
	}
	err = r.allocateSetupSet(options.Descriptors, ratios, driver.Global())
	if err != nil {
		return err
	}

	return driver.Run(ctx, r.record)
}

const globalInitialSets = 16

func frameAllocatorName(index int) string {
	return fmt.Sprintf("frame %d", index)
}

func logStatistics(logger *slog.Logger, ring *frames.Ring) {
	for i := 0; i < ring.Len(); i++ {
		resources, ok := ring.SlotAt(i).Resources().(vulkan.FrameDescriptors)
		if !ok {
			continue
		}

		logger.Debug("frame descriptor statistics", slog.Int("slot", i), slog.String("stats", resources.BuildStatsString(true)))
	}
}

type renderer struct {
	logger   *slog.Logger
	device   core1_0.DeviceDriver
	target   *swapchainTarget
	layout   core1_0.DescriptorSetLayout
	uniforms *uniforms
	setupSet core1_0.DescriptorSet
	writer   vulkan.DescriptorWriter
}

// writeSet points the set's uniform binding at the given region and its sampler binding at the
// shared sampler.
func (r *renderer) writeSet(set core1_0.DescriptorSet, region int) error {
	r.writer.Clear()
	r.writer.WriteBuffer(0, r.uniforms.buffer, r.uniforms.size, r.uniforms.offset(region), core1_0.DescriptorTypeUniformBuffer)
	r.writer.WriteImage(1, core1_0.ImageView{}, r.uniforms.sampler, core1_0.ImageLayoutUndefined, core1_0.DescriptorTypeSampler)
	return r.writer.UpdateSet(r.device, set)
}

// allocateSetupSet creates the process-lifetime descriptor allocator and allocates a set from it
// pointing at the first uniform region. The allocator's pools are released when global is flushed.
func (r *renderer) allocateSetupSet(options config.DescriptorsConfig, ratios []descriptors.PoolSizeRatio, global *deletion.Queue) error {
	allocator := vulkan.NewDescriptorAllocator(r.logger, r.device, options.AllocatorOptions("global", 0))
	err := allocator.Init(globalInitialSets, ratios)
	if err != nil {
		return err
	}
	global.Push(allocator.DestroyPools)

	r.setupSet, err = allocator.Allocate(r.layout, nil)
	if err != nil {
		return err
	}

	return r.writeSet(r.setupSet, 0)
}

// record clears the acquired image to a color that cycles with the frame number. The color is
// also written to the slot's uniform region, and a descriptor set pointing at that region is
// allocated from the slot's allocator so its pools are exercised and reset with the slot.
func (r *renderer) record(frame *frames.FrameContext) error {
	phase := float64(frame.FrameNumber%360) * math.Pi / 180
	color := [4]float32{
		float32(0.5 + 0.5*math.Sin(phase)),
		float32(0.5 + 0.5*math.Sin(phase+2*math.Pi/3)),
		float32(0.5 + 0.5*math.Sin(phase+4*math.Pi/3)),
		1,
	}

	region := frame.Slot.Index()
	err := r.uniforms.write(region, frameUniforms{Color: color})
	if err != nil {
		return err
	}

	resources := frame.Resources().(vulkan.FrameDescriptors)
	set, err := resources.Allocate(r.layout, nil)
	if err != nil {
		return err
	}
	err = r.writeSet(set, region)
	if err != nil {
		return err
	}

	frameNumber := frame.FrameNumber
	frame.Deletion().Push(func() {
		r.logger.Debug("frame retired", slog.Uint64("frame", frameNumber))
	})

	buffer := frame.Commands().(*vulkan.CommandContext).Buffer()

	err = r.device.CmdBeginRenderPass(buffer, core1_0.SubpassContentsInline, core1_0.RenderPassBeginInfo{
		RenderPass:  r.target.renderPass,
		Framebuffer: r.target.framebuffers[frame.ImageIndex],
		RenderArea: core1_0.Rect2D{
			Offset: core1_0.Offset2D{X: 0, Y: 0},
			Extent: r.target.extent,
		},
		ClearValues: []core1_0.ClearValue{
			core1_0.ClearValueFloat(color),
		},
	})
	if err != nil {
		return err
	}

	r.device.CmdEndRenderPass(buffer)
	return nil
}
