package main

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

type frameUniforms struct {
	Color [4]float32
}

// uniforms is a host-visible uniform buffer with one aligned region per frame slot, plus the
// sampler bound next to it.
type uniforms struct {
	device  core1_0.CoreDeviceDriver
	buffer  core1_0.Buffer
	memory  core1_0.DeviceMemory
	sampler core1_0.Sampler
	stride  int
	size    int
}

func newUniforms(vk *vulkanContext, regions int) (*uniforms, error) {
	properties, err := vk.instance.GetPhysicalDeviceProperties(vk.physicalDevice)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read physical device properties")
	}

	u := &uniforms{
		device: vk.device,
		size:   binary.Size(frameUniforms{}),
	}
	u.stride = alignUp(u.size, properties.Limits.MinUniformBufferOffsetAlignment)

	u.buffer, _, err = vk.device.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        u.stride * regions,
		Usage:       core1_0.BufferUsageUniformBuffer,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create uniform buffer")
	}

	requirements := vk.device.GetBufferMemoryRequirements(u.buffer)
	memoryType, err := vk.findMemoryType(requirements.MemoryTypeBits, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		u.destroy()
		return nil, err
	}

	u.memory, _, err = vk.device.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryType,
	})
	if err != nil {
		u.destroy()
		return nil, errors.Wrap(err, "failed to allocate uniform memory")
	}

	_, err = vk.device.BindBufferMemory(u.buffer, u.memory, 0)
	if err != nil {
		u.destroy()
		return nil, errors.Wrap(err, "failed to bind uniform memory")
	}

	u.sampler, _, err = vk.device.CreateSampler(nil, core1_0.SamplerCreateInfo{
		MagFilter:    core1_0.FilterLinear,
		MinFilter:    core1_0.FilterLinear,
		AddressModeU: core1_0.SamplerAddressModeClampToEdge,
		AddressModeV: core1_0.SamplerAddressModeClampToEdge,
		AddressModeW: core1_0.SamplerAddressModeClampToEdge,
		BorderColor:  core1_0.BorderColorIntOpaqueBlack,
		MipmapMode:   core1_0.SamplerMipmapModeLinear,
	})
	if err != nil {
		u.destroy()
		return nil, errors.Wrap(err, "failed to create sampler")
	}

	return u, nil
}

func alignUp(size, alignment int) int {
	if alignment <= 1 {
		return size
	}
	return (size + alignment - 1) / alignment * alignment
}

func (u *uniforms) offset(region int) int {
	return region * u.stride
}

// write copies data into the region's slice of the buffer. The region must belong to a slot whose
// fence has been waited on.
func (u *uniforms) write(region int, data frameUniforms) error {
	pointer, _, err := u.device.MapMemory(u.memory, u.offset(region), u.size, 0)
	if err != nil {
		return errors.Wrap(err, "failed to map uniform memory")
	}
	defer u.device.UnmapMemory(u.memory)

	var buf bytes.Buffer
	err = binary.Write(&buf, common.ByteOrder, data)
	if err != nil {
		return err
	}

	copy(unsafe.Slice((*byte)(pointer), u.size), buf.Bytes())
	return nil
}

func (u *uniforms) destroy() {
	if u.sampler.Initialized() {
		u.device.DestroySampler(u.sampler, nil)
	}
	if u.buffer.Initialized() {
		u.device.DestroyBuffer(u.buffer, nil)
	}
	if u.memory.Initialized() {
		u.device.FreeMemory(u.memory, nil)
	}
}
