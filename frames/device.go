package frames

import "time"

//go:generate mockgen -destination ./mocks/frames.go -package mock_frames github.com/vkngwrapper/arsenal/lifetime/frames Surface,Window

// Fence is a CPU-observable completion signal
type Fence interface {
	// Wait blocks until the fence is signaled. It returns an error satisfying errors.Is(err, ErrFenceTimeout)
	// if timeout elapses first, or errors.Is(err, ErrDeviceLost) if the device has been lost.
	Wait(timeout time.Duration) error
	// Reset returns the fence to the unsignaled state
	Reset() error
	Destroy()
}

// Semaphore is a device-side ordering signal
type Semaphore interface {
	Destroy()
}

// CommandContext is a recording context owned by one frame slot
type CommandContext interface {
	// Reset discards everything previously recorded. It is only called once the slot's fence has
	// been observed signaled.
	Reset() error
	Begin() error
	End() error
	Destroy()
}

// Submission is a single batch submitted to the device queue
type Submission struct {
	// Wait is waited on at the color attachment output stage
	Wait Semaphore
	// Commands is the recorded work. It is nil for a batch that only consumes Wait and signals Fence.
	Commands CommandContext
	// Signal is signaled when the batch completes. It may be nil.
	Signal Semaphore
	// Fence is signaled when the batch completes
	Fence Fence
}

// Device is the device-side collaborator used by the frame ring and driver
type Device interface {
	CreateFence(signaled bool) (Fence, error)
	CreateSemaphore() (Semaphore, error)
	CreateCommandContext() (CommandContext, error)
	Submit(submission Submission) error
	// WaitIdle blocks until every submission has completed
	WaitIdle() error
}

// Surface is the presentable surface: a swapchain or equivalent
type Surface interface {
	// AcquireNextImage requests the next presentable image, which becomes usable once signal is
	// signaled. It returns ErrSurfaceOutOfDate if no image could be acquired because the surface
	// must be rebuilt. It returns a valid image index along with ErrSurfaceSuboptimal if the image
	// was acquired but the surface should be rebuilt.
	AcquireNextImage(signal Semaphore) (int, error)
	// Present queues imageIndex for presentation once wait is signaled. It returns
	// ErrSurfaceOutOfDate or ErrSurfaceSuboptimal when the surface should be rebuilt.
	Present(imageIndex int, wait Semaphore) error
}

// EventSink receives window notifications. Its methods may be called from any goroutine.
type EventSink interface {
	Resized()
	Minimized()
	Restored()
}

// Window is the window system collaborator
type Window interface {
	// PollEvents delivers pending window notifications to sink. It returns false once the window
	// has been asked to close.
	PollEvents(sink EventSink) bool
	// RebuildSurface rebuilds the presentation surface to match the window. The device is idle
	// when it is called.
	RebuildSurface() error
}

// SlotResource is per-slot state that is reset each time its slot is reused, such as a per-frame
// descriptor allocator
type SlotResource interface {
	Reset() error
	Destroy()
}
