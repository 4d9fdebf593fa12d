package vulkan

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/lifetime/frames"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// Swapchain implements frames.Surface on a khr_swapchain.Swapchain. The swapchain it presents to
// can be swapped out with Replace when the window's surface is rebuilt.
type Swapchain struct {
	logger       *slog.Logger
	extension    khr_swapchain.ExtensionDriver
	presentQueue core1_0.Queue
	handle       khr_swapchain.Swapchain
}

var _ frames.Surface = &Swapchain{}

func NewSwapchain(logger *slog.Logger, extension khr_swapchain.ExtensionDriver, presentQueue core1_0.Queue, handle khr_swapchain.Swapchain) *Swapchain {
	return &Swapchain{
		logger:       logger,
		extension:    extension,
		presentQueue: presentQueue,
		handle:       handle,
	}
}

func (s *Swapchain) Handle() khr_swapchain.Swapchain {
	return s.handle
}

// Replace begins presenting to handle and returns the swapchain previously in use, which the
// caller is responsible for destroying
func (s *Swapchain) Replace(handle khr_swapchain.Swapchain) khr_swapchain.Swapchain {
	s.logger.Debug("Swapchain::Replace")

	old := s.handle
	s.handle = handle
	return old
}

func (s *Swapchain) AcquireNextImage(signal frames.Semaphore) (int, error) {
	semaphore := signal.(*Semaphore).handle

	index, res, err := s.extension.AcquireNextImage(s.handle, common.NoTimeout, &semaphore, nil)
	err = resultError(res, err, "vkAcquireNextImageKHR")
	if errors.Is(err, frames.ErrSurfaceSuboptimal) {
		return index, err
	} else if err != nil {
		return 0, err
	}

	return index, nil
}

func (s *Swapchain) Present(imageIndex int, wait frames.Semaphore) error {
	res, err := s.extension.QueuePresent(s.presentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{wait.(*Semaphore).handle},
		Swapchains:     []khr_swapchain.Swapchain{s.handle},
		ImageIndices:   []int{imageIndex},
	})
	return resultError(res, err, "vkQueuePresentKHR")
}
