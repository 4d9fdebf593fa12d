package main

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/arsenal/lifetime/frames"
	"github.com/vkngwrapper/arsenal/lifetime/vulkan"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// swapchainTarget owns the swapchain and everything sized to it. It implements frames.Window, so
// the frame driver rebuilds it when the window changes.
type swapchainTarget struct {
	logger     *slog.Logger
	vk         *vulkanContext
	extension  khr_swapchain.ExtensionDriver
	swapchain  *vulkan.Swapchain
	format     core1_0.Format
	extent     core1_0.Extent2D
	renderPass core1_0.RenderPass

	views        []core1_0.ImageView
	framebuffers []core1_0.Framebuffer
}

var _ frames.Window = &swapchainTarget{}

func newSwapchainTarget(logger *slog.Logger, vk *vulkanContext) (*swapchainTarget, error) {
	t := &swapchainTarget{
		logger:    logger,
		vk:        vk,
		extension: khr_swapchain.CreateExtensionDriverFromCoreDriver(vk.device),
	}

	handle, err := t.createSwapchain()
	if err != nil {
		return nil, err
	}
	t.swapchain = vulkan.NewSwapchain(logger, t.extension, vk.presentQueue, handle)

	err = t.createRenderPass()
	if err != nil {
		t.extension.DestroySwapchain(handle, nil)
		return nil, err
	}

	err = t.createFramebuffers()
	if err != nil {
		t.destroy()
		return nil, err
	}

	return t, nil
}

func (t *swapchainTarget) PollEvents(sink frames.EventSink) bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			return false
		case *sdl.WindowEvent:
			switch e.Event {
			case sdl.WINDOWEVENT_MINIMIZED:
				sink.Minimized()
			case sdl.WINDOWEVENT_RESTORED:
				sink.Restored()
			case sdl.WINDOWEVENT_RESIZED:
				sink.Resized()
			}
		}
	}

	return true
}

// RebuildSurface recreates the swapchain at the window's current drawable size. A window with no
// drawable area is left alone until it has one.
func (t *swapchainTarget) RebuildSurface() error {
	width, height := t.vk.window.VulkanGetDrawableSize()
	if width == 0 || height == 0 {
		return nil
	}

	t.logger.Info("rebuilding swapchain", slog.Int("width", int(width)), slog.Int("height", int(height)))

	t.destroyFramebuffers()

	handle, err := t.createSwapchain()
	if err != nil {
		return err
	}

	old := t.swapchain.Replace(handle)
	t.extension.DestroySwapchain(old, nil)

	return t.createFramebuffers()
}

func (t *swapchainTarget) Surface() frames.Surface {
	return t.swapchain
}

func (t *swapchainTarget) createSwapchain() (khr_swapchain.Swapchain, error) {
	surfaces := t.vk.surfaces
	surface := t.vk.surface
	physicalDevice := t.vk.physicalDevice

	capabilities, _, err := surfaces.GetPhysicalDeviceSurfaceCapabilities(surface, physicalDevice)
	if err != nil {
		return khr_swapchain.Swapchain{}, errors.Wrap(err, "failed to query surface capabilities")
	}

	formats, _, err := surfaces.GetPhysicalDeviceSurfaceFormats(surface, physicalDevice)
	if err != nil {
		return khr_swapchain.Swapchain{}, errors.Wrap(err, "failed to query surface formats")
	}
	if len(formats) == 0 {
		return khr_swapchain.Swapchain{}, errors.New("surface reports no formats")
	}

	presentModes, _, err := surfaces.GetPhysicalDeviceSurfacePresentModes(surface, physicalDevice)
	if err != nil {
		return khr_swapchain.Swapchain{}, errors.Wrap(err, "failed to query present modes")
	}

	surfaceFormat := formats[0]
	for _, format := range formats {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			surfaceFormat = format
			break
		}
	}

	presentMode := khr_surface.PresentModeFIFO
	for _, mode := range presentModes {
		if mode == khr_surface.PresentModeMailbox {
			presentMode = mode
			break
		}
	}

	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilies []int
	if t.vk.graphicsFamily != t.vk.presentFamily {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilies = []int{t.vk.graphicsFamily, t.vk.presentFamily}
	}

	extent := t.chooseExtent(capabilities)
	handle, _, err := t.extension.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface:            surface,
		MinImageCount:      imageCount,
		ImageFormat:        surfaceFormat.Format,
		ImageColorSpace:    surfaceFormat.ColorSpace,
		ImageExtent:        extent,
		ImageArrayLayers:   1,
		ImageUsage:         core1_0.ImageUsageColorAttachment,
		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilies,
		PreTransform:       capabilities.CurrentTransform,
		CompositeAlpha:     khr_surface.CompositeAlphaOpaque,
		PresentMode:        presentMode,
		Clipped:            true,
	})
	if err != nil {
		return khr_swapchain.Swapchain{}, errors.Wrap(err, "failed to create swapchain")
	}

	if t.renderPass.Initialized() && surfaceFormat.Format != t.format {
		t.extension.DestroySwapchain(handle, nil)
		return khr_swapchain.Swapchain{}, errors.Newf("surface format changed from %v to %v", t.format, surfaceFormat.Format)
	}

	t.format = surfaceFormat.Format
	t.extent = extent
	return handle, nil
}

func (t *swapchainTarget) chooseExtent(capabilities *khr_surface.SurfaceCapabilities) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != -1 {
		return capabilities.CurrentExtent
	}

	w, h := t.vk.window.VulkanGetDrawableSize()
	width := min(max(int(w), capabilities.MinImageExtent.Width), capabilities.MaxImageExtent.Width)
	height := min(max(int(h), capabilities.MinImageExtent.Height), capabilities.MaxImageExtent.Height)

	return core1_0.Extent2D{Width: width, Height: height}
}

func (t *swapchainTarget) createRenderPass() error {
	renderPass, _, err := t.vk.device.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         t.format,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass:    core1_0.SubpassExternal,
				DstSubpass:    0,
				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "failed to create render pass")
	}

	t.renderPass = renderPass
	return nil
}

func (t *swapchainTarget) createFramebuffers() error {
	images, _, err := t.extension.GetSwapchainImages(t.swapchain.Handle())
	if err != nil {
		return errors.Wrap(err, "failed to get swapchain images")
	}

	for _, image := range images {
		view, _, err := t.vk.device.CreateImageView(nil, core1_0.ImageViewCreateInfo{
			Image:    image,
			ViewType: core1_0.ImageViewType2D,
			Format:   t.format,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask: core1_0.ImageAspectColor,
				LevelCount: 1,
				LayerCount: 1,
			},
		})
		if err != nil {
			return errors.Wrap(err, "failed to create swapchain image view")
		}
		t.views = append(t.views, view)

		framebuffer, _, err := t.vk.device.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
			RenderPass:  t.renderPass,
			Layers:      1,
			Attachments: []core1_0.ImageView{view},
			Width:       t.extent.Width,
			Height:      t.extent.Height,
		})
		if err != nil {
			return errors.Wrap(err, "failed to create framebuffer")
		}
		t.framebuffers = append(t.framebuffers, framebuffer)
	}

	return nil
}

func (t *swapchainTarget) destroyFramebuffers() {
	for _, framebuffer := range t.framebuffers {
		t.vk.device.DestroyFramebuffer(framebuffer, nil)
	}
	t.framebuffers = t.framebuffers[:0]

	for _, view := range t.views {
		t.vk.device.DestroyImageView(view, nil)
	}
	t.views = t.views[:0]
}

func (t *swapchainTarget) destroy() {
	t.destroyFramebuffers()

	if t.renderPass.Initialized() {
		t.vk.device.DestroyRenderPass(t.renderPass, nil)
		t.renderPass = core1_0.RenderPass{}
	}

	t.extension.DestroySwapchain(t.swapchain.Handle(), nil)
}
