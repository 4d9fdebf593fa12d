package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/lifetime/descriptors"
	"github.com/vkngwrapper/arsenal/lifetime/frames"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/core/v3/core1_1"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

var resultSentinels = map[common.VkResult]error{
	core1_0.VKTimeout:              frames.ErrFenceTimeout,
	core1_0.VKErrorDeviceLost:      frames.ErrDeviceLost,
	khr_swapchain.VKErrorOutOfDate: frames.ErrSurfaceOutOfDate,
	khr_swapchain.VKSuboptimal:     frames.ErrSurfaceSuboptimal,
	core1_1.VkErrorOutOfPoolMemory: descriptors.ErrPoolExhausted,
	core1_0.VKErrorFragmentedPool:  descriptors.ErrPoolExhausted,
}

// resultError converts the result of a vkngwrapper call into an error the frame loop and
// descriptor allocator can classify. Results with no special meaning pass err through.
func resultError(res common.VkResult, err error, operation string) error {
	sentinel, ok := resultSentinels[res]
	if ok {
		return errors.Wrapf(sentinel, "%s returned %v", operation, res)
	}

	if err != nil {
		return errors.Wrap(err, operation)
	}

	return nil
}
