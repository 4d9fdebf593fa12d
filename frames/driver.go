// Package frames implements the double-buffered frame loop: a ring of frame slots, each with its
// own synchronization objects and deletion queue, and a driver that takes each slot through
// acquire, record, submit and present.
//
// The fence wait at the start of a cycle is the only point at which a slot's previous work is
// known to be complete, so it is the only point at which the slot's deletion queue is flushed
// and its command context and resources are reset.
package frames

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/lifetime/deletion"
)

// DriverOptions contains optional settings when creating a Driver
type DriverOptions struct {
	// FenceTimeout bounds the wait on a slot's fence. Leave 0 for DefaultFenceTimeout.
	FenceTimeout time.Duration
	// PausePollInterval is the sleep between event polls while minimized. Leave 0 for
	// DefaultPausePollInterval.
	PausePollInterval time.Duration
}

// Driver runs frame cycles against a Ring. It must be driven from a single goroutine, except for
// the EventSink methods, which may be called from anywhere.
type Driver struct {
	logger  *slog.Logger
	ring    *Ring
	device  Device
	surface Surface
	window  Window
	global  *deletion.Queue

	fenceTimeout      time.Duration
	pausePollInterval time.Duration

	frameNumber      atomic.Uint64
	paused           atomic.Bool
	needsRebuild     atomic.Bool
	resizeGeneration atomic.Uint64
	failed           atomic.Bool
	deviceLost       atomic.Bool
	stopped          atomic.Bool
}

var _ EventSink = &Driver{}

// NewDriver creates a Driver. window may be nil if Run will not be used.
func NewDriver(logger *slog.Logger, ring *Ring, device Device, surface Surface, window Window, options DriverOptions) *Driver {
	driver := &Driver{
		logger:  logger,
		ring:    ring,
		device:  device,
		surface: surface,
		window:  window,
		global: deletion.New(deletion.CreateOptions{
			Name: "global",
		}),
		fenceTimeout:      options.FenceTimeout,
		pausePollInterval: options.PausePollInterval,
	}

	if driver.fenceTimeout <= 0 {
		driver.fenceTimeout = DefaultFenceTimeout
	}

	if driver.pausePollInterval <= 0 {
		driver.pausePollInterval = DefaultPausePollInterval
	}

	return driver
}

// Global returns the queue of actions that are deferred until Shutdown
func (d *Driver) Global() *deletion.Queue {
	return d.global
}

func (d *Driver) Ring() *Ring {
	return d.ring
}

// FrameNumber returns the number of the next frame to be run. It only advances once a frame has
// been submitted for presentation.
func (d *Driver) FrameNumber() uint64 {
	return d.frameNumber.Load()
}

// Paused returns true while the window is minimized
func (d *Driver) Paused() bool {
	return d.paused.Load()
}

// NeedsRebuild returns true when the presentation surface must be rebuilt before the next frame
func (d *Driver) NeedsRebuild() bool {
	return d.needsRebuild.Load()
}

// Failed returns true once a fatal error has been observed. The device can no longer be trusted.
func (d *Driver) Failed() bool {
	return d.failed.Load()
}

// Resized notifies the driver that the window size changed. A frame being recorded when this is
// called is discarded rather than presented.
func (d *Driver) Resized() {
	d.resizeGeneration.Add(1)
	d.needsRebuild.Store(true)
}

// Minimized pauses the loop
func (d *Driver) Minimized() {
	d.paused.Store(true)
}

// Restored resumes the loop
func (d *Driver) Restored() {
	d.paused.Store(false)
}

// RunFrameCycle runs one acquire, record, submit, present pass on the next slot of the ring.
//
// Errors for which IsRecoverable returns true mean that the surface must be rebuilt before the
// next cycle. Any other error is fatal: the driver stops and later calls return ErrDriverStopped.
func (d *Driver) RunFrameCycle(ctx context.Context, record RecordFunc) error {
	if d.stopped.Load() || d.failed.Load() {
		return ErrDriverStopped
	}

	err := ctx.Err()
	if err != nil {
		return err
	}

	err = d.runFrameCycle(record)
	if err != nil && !IsRecoverable(err) {
		d.fail(err)
	}

	return err
}

func (d *Driver) runFrameCycle(record RecordFunc) error {
	frameNumber := d.frameNumber.Load()
	slot := d.ring.Slot(frameNumber)

	d.logger.Debug("Driver::RunFrameCycle", slog.Uint64("frame", frameNumber), slog.Int("slot", slot.index))

	err := slot.reclaim(d.fenceTimeout)
	if err != nil {
		return err
	}

	resizeGeneration := d.resizeGeneration.Load()
	imageIndex, err := d.surface.AcquireNextImage(slot.imageAvailable)
	suboptimal := errors.Is(err, ErrSurfaceSuboptimal)
	if errors.Is(err, ErrSurfaceOutOfDate) {
		// Nothing was submitted, so the fence is still signaled for the retry
		d.needsRebuild.Store(true)
		return errors.Wrapf(err, "failed to acquire image for frame %d", frameNumber)
	} else if err != nil && !suboptimal {
		return errors.Wrapf(err, "failed to acquire image for frame %d", frameNumber)
	}

	err = slot.fence.Reset()
	if err != nil {
		return errors.Wrapf(err, "failed to reset fence for frame slot %d", slot.index)
	}

	slot.transition(SlotRecording)
	slot.used = true
	slot.lastFrame = frameNumber

	recordErr := d.record(&FrameContext{
		FrameNumber: frameNumber,
		ImageIndex:  imageIndex,
		Slot:        slot,
	}, record)

	resized := d.resizeGeneration.Load() != resizeGeneration
	if recordErr != nil || resized {
		// The image-available semaphore has a pending signal and the fence was reset, so
		// something has to be submitted before the slot can be reused
		err = d.discard(slot)
		if err != nil {
			return errors.CombineErrors(err, recordErr)
		}

		if recordErr != nil {
			return errors.Wrapf(recordErr, "failed to record frame %d", frameNumber)
		}

		d.logger.Debug("Driver::RunFrameCycle discarded frame after resize", slog.Uint64("frame", frameNumber))
		d.needsRebuild.Store(true)
		return errors.Wrapf(ErrSurfaceOutOfDate, "window resized while recording frame %d", frameNumber)
	}

	err = d.device.Submit(Submission{
		Wait:     slot.imageAvailable,
		Commands: slot.commands,
		Signal:   slot.renderComplete,
		Fence:    slot.fence,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to submit frame %d", frameNumber)
	}
	slot.transition(SlotSubmitted)

	err = d.surface.Present(imageIndex, slot.renderComplete)
	d.frameNumber.Add(1)

	if IsRecoverable(err) {
		d.needsRebuild.Store(true)
		return errors.Wrapf(err, "failed to present frame %d", frameNumber)
	} else if err != nil {
		return errors.Wrapf(err, "failed to present frame %d", frameNumber)
	}

	if suboptimal {
		d.needsRebuild.Store(true)
	}

	return nil
}

func (d *Driver) record(frame *FrameContext, record RecordFunc) error {
	commands := frame.Slot.commands

	err := commands.Begin()
	if err != nil {
		return err
	}

	err = record(frame)
	endErr := commands.End()
	if err != nil {
		return err
	}

	return endErr
}

// discard submits a batch that only consumes the slot's image-available semaphore and signals its
// fence. The recorded commands are dropped and nothing is presented.
func (d *Driver) discard(slot *Slot) error {
	err := d.device.Submit(Submission{
		Wait:  slot.imageAvailable,
		Fence: slot.fence,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to submit discard batch for frame slot %d", slot.index)
	}

	slot.transition(SlotSubmitted)
	return nil
}

func (d *Driver) fail(err error) {
	if errors.Is(err, ErrDeviceLost) {
		d.deviceLost.Store(true)
	}

	if d.failed.Swap(true) {
		return
	}

	d.logger.Error("frame loop stopped after fatal error", slog.Any("error", err))
}

// Run polls window events and runs frame cycles until the window closes, ctx is cancelled, or a
// fatal error occurs. While minimized it sleeps PausePollInterval between polls instead of
// rendering. A pending surface rebuild is carried out, with the device idle, before the next
// cycle begins.
func (d *Driver) Run(ctx context.Context, record RecordFunc) error {
	d.logger.Debug("Driver::Run")

	for {
		err := ctx.Err()
		if err != nil {
			return err
		}

		if !d.window.PollEvents(d) {
			return nil
		}

		if d.paused.Load() {
			err = d.sleep(ctx)
			if err != nil {
				return err
			}
			continue
		}

		if d.needsRebuild.Load() {
			err = d.rebuildSurface()
			if err != nil {
				d.fail(err)
				return err
			}
		}

		err = d.RunFrameCycle(ctx, record)
		if IsRecoverable(err) {
			d.logger.Debug("Driver::Run recoverable frame error", slog.Any("error", err))
		} else if err != nil {
			return err
		}
	}
}

func (d *Driver) sleep(ctx context.Context) error {
	timer := time.NewTimer(d.pausePollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (d *Driver) rebuildSurface() error {
	d.logger.Debug("Driver::rebuildSurface")

	err := d.device.WaitIdle()
	if err != nil {
		return errors.Wrap(err, "failed to wait for device idle before rebuilding surface")
	}

	err = d.window.RebuildSurface()
	if err != nil {
		return errors.Wrap(err, "failed to rebuild surface")
	}

	d.needsRebuild.Store(false)
	return nil
}

// Shutdown waits for the device to go idle, destroys the ring and flushes the global deletion
// queue. If a fatal error has been observed the device is not waited on, the global queue is left
// unflushed, and only the slots whose work can be observed complete are destroyed. After
// ErrDeviceLost every slot is destroyed.
func (d *Driver) Shutdown() error {
	d.logger.Debug("Driver::Shutdown")

	if d.stopped.Swap(true) {
		return nil
	}

	var err error
	if !d.failed.Load() {
		err = d.device.WaitIdle()
		if err != nil {
			err = errors.Wrap(err, "failed to wait for device idle during shutdown")
			d.fail(err)
		}
	}

	if d.failed.Load() {
		d.ring.abandon(d.deviceLost.Load())
		d.logger.Warn("skipping global deletion queue after fatal error", slog.Int("pending", d.global.Len()))
		return err
	}

	d.ring.Destroy()
	d.global.Flush()
	return nil
}
