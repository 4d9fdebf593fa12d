// Package vulkan implements the device-side collaborators of the frame loop and descriptor
// allocator on top of vkngwrapper.
package vulkan

import (
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/lifetime/frames"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// Device implements frames.Device for a single graphics queue
type Device struct {
	logger           *slog.Logger
	driver           core1_0.DeviceDriver
	queue            core1_0.Queue
	queueFamilyIndex int
}

var _ frames.Device = &Device{}

// NewDevice creates a Device that submits to queue. Command pools are created for
// queueFamilyIndex, which must be the family queue belongs to.
func NewDevice(logger *slog.Logger, driver core1_0.DeviceDriver, queue core1_0.Queue, queueFamilyIndex int) *Device {
	return &Device{
		logger:           logger,
		driver:           driver,
		queue:            queue,
		queueFamilyIndex: queueFamilyIndex,
	}
}

func (d *Device) Driver() core1_0.DeviceDriver {
	return d.driver
}

func (d *Device) Queue() core1_0.Queue {
	return d.queue
}

func (d *Device) CreateFence(signaled bool) (frames.Fence, error) {
	var info core1_0.FenceCreateInfo
	if signaled {
		info.Flags = core1_0.FenceCreateSignaled
	}

	fence, res, err := d.driver.CreateFence(nil, info)
	if err != nil {
		return nil, resultError(res, err, "vkCreateFence")
	}

	return &Fence{driver: d.driver, handle: fence}, nil
}

func (d *Device) CreateSemaphore() (frames.Semaphore, error) {
	semaphore, res, err := d.driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return nil, resultError(res, err, "vkCreateSemaphore")
	}

	return &Semaphore{driver: d.driver, handle: semaphore}, nil
}

func (d *Device) CreateCommandContext() (frames.CommandContext, error) {
	pool, res, err := d.driver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: d.queueFamilyIndex,
	})
	if err != nil {
		return nil, resultError(res, err, "vkCreateCommandPool")
	}

	commands := &CommandContext{driver: d.driver, pool: pool}
	err = commands.allocate()
	if err != nil {
		d.driver.DestroyCommandPool(pool, nil)
		return nil, err
	}

	return commands, nil
}

// Submit submits a single batch to the device's queue. The batch waits for submission.Wait at the
// color attachment output stage.
func (d *Device) Submit(submission frames.Submission) error {
	var info core1_0.SubmitInfo

	if submission.Wait != nil {
		info.WaitSemaphores = []core1_0.Semaphore{submission.Wait.(*Semaphore).handle}
		info.WaitDstStageMask = []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput}
	}

	if submission.Commands != nil {
		info.CommandBuffers = []core1_0.CommandBuffer{submission.Commands.(*CommandContext).buffer}
	}

	if submission.Signal != nil {
		info.SignalSemaphores = []core1_0.Semaphore{submission.Signal.(*Semaphore).handle}
	}

	var fence *core1_0.Fence
	if submission.Fence != nil {
		fence = &submission.Fence.(*Fence).handle
	}

	res, err := d.driver.QueueSubmit(d.queue, fence, info)
	if err != nil {
		return resultError(res, err, "vkQueueSubmit")
	}

	return nil
}

func (d *Device) WaitIdle() error {
	d.logger.Debug("Device::WaitIdle")

	res, err := d.driver.DeviceWaitIdle()
	if err != nil {
		return resultError(res, err, "vkDeviceWaitIdle")
	}

	return nil
}

// Fence implements frames.Fence on a core1_0.Fence
type Fence struct {
	driver core1_0.DeviceDriver
	handle core1_0.Fence
}

func (f *Fence) Handle() core1_0.Fence {
	return f.handle
}

func (f *Fence) Wait(timeout time.Duration) error {
	res, err := f.driver.WaitForFences(true, timeout, f.handle)
	return resultError(res, err, "vkWaitForFences")
}

func (f *Fence) Reset() error {
	res, err := f.driver.ResetFences(f.handle)
	if err != nil {
		return resultError(res, err, "vkResetFences")
	}

	return nil
}

func (f *Fence) Destroy() {
	f.driver.DestroyFence(f.handle, nil)
}

// Semaphore implements frames.Semaphore on a core1_0.Semaphore
type Semaphore struct {
	driver core1_0.DeviceDriver
	handle core1_0.Semaphore
}

func (s *Semaphore) Handle() core1_0.Semaphore {
	return s.handle
}

func (s *Semaphore) Destroy() {
	s.driver.DestroySemaphore(s.handle, nil)
}

// CommandContext implements frames.CommandContext with one primary command buffer allocated from
// a command pool of its own
type CommandContext struct {
	driver core1_0.DeviceDriver
	pool   core1_0.CommandPool
	buffer core1_0.CommandBuffer
	// allocated is true while buffer needs to be freed
	allocated bool
}

// Buffer returns the command buffer currently being recorded. It is replaced every time the
// context is reset, so it must not be retained across frames.
func (c *CommandContext) Buffer() core1_0.CommandBuffer {
	return c.buffer
}

func (c *CommandContext) allocate() error {
	buffers, res, err := c.driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        c.pool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return resultError(res, err, "vkAllocateCommandBuffers")
	}

	if len(buffers) != 1 {
		return errors.Newf("expected 1 command buffer, got %d", len(buffers))
	}

	c.buffer = buffers[0]
	c.allocated = true
	return nil
}

// Reset frees the previous command buffer and allocates a new one in its place
func (c *CommandContext) Reset() error {
	if c.allocated {
		c.driver.FreeCommandBuffers(c.buffer)
		c.buffer = core1_0.CommandBuffer{}
		c.allocated = false
	}

	return c.allocate()
}

func (c *CommandContext) Begin() error {
	res, err := c.driver.BeginCommandBuffer(c.buffer, core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		return resultError(res, err, "vkBeginCommandBuffer")
	}

	return nil
}

func (c *CommandContext) End() error {
	res, err := c.driver.EndCommandBuffer(c.buffer)
	if err != nil {
		return resultError(res, err, "vkEndCommandBuffer")
	}

	return nil
}

func (c *CommandContext) Destroy() {
	if c.allocated {
		c.driver.FreeCommandBuffers(c.buffer)
		c.buffer = core1_0.CommandBuffer{}
		c.allocated = false
	}

	c.driver.DestroyCommandPool(c.pool, nil)
}
