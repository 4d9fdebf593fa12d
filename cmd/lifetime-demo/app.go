package main

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/arsenal/lifetime/deletion"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"
)

const validationLayer = "VK_LAYER_KHRONOS_validation"

// vulkanContext holds everything created before the frame loop starts. Teardown of each object is
// pushed onto teardown as it is created.
type vulkanContext struct {
	logger   *slog.Logger
	teardown *deletion.Queue

	window         *sdl.Window
	instance       core1_0.CoreInstanceDriver
	surfaces       khr_surface.ExtensionDriver
	surface        khr_surface.Surface
	physicalDevice core1_0.PhysicalDevice
	device         core1_0.CoreDeviceDriver
	graphicsFamily int
	presentFamily  int
	graphicsQueue  core1_0.Queue
	presentQueue   core1_0.Queue
}

func newVulkanContext(logger *slog.Logger, teardown *deletion.Queue, validation bool) (*vulkanContext, error) {
	v := &vulkanContext{
		logger:   logger,
		teardown: teardown,
	}

	err := sdl.Init(sdl.INIT_VIDEO)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize SDL")
	}
	teardown.Push(sdl.Quit)

	v.window, err = sdl.CreateWindow("lifetime", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, 800, 600, sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create window")
	}
	teardown.Push(func() {
		_ = v.window.Destroy()
	})

	err = v.createInstance(validation)
	if err != nil {
		return nil, err
	}

	v.surfaces = khr_surface.CreateExtensionDriverFromCoreDriver(v.instance)
	v.surface, err = vkng_sdl2.CreateSurface(v.instance.Instance(), v.surfaces, v.window)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create surface")
	}
	teardown.Push(func() {
		v.surfaces.DestroySurface(v.surface, nil)
	})

	err = v.pickPhysicalDevice()
	if err != nil {
		return nil, err
	}

	err = v.createDevice()
	if err != nil {
		return nil, err
	}

	return v, nil
}

func (v *vulkanContext) createInstance(validation bool) error {
	globalDriver, err := core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return errors.Wrap(err, "failed to load vulkan")
	}

	info := core1_0.InstanceCreateInfo{
		ApplicationName:    "lifetime",
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "arsenal",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	extensions, _, err := globalDriver.AvailableExtensions()
	if err != nil {
		return errors.Wrap(err, "failed to enumerate instance extensions")
	}

	for _, extension := range v.window.VulkanGetInstanceExtensions() {
		_, ok := extensions[extension]
		if !ok {
			return errors.Newf("window requires missing instance extension %s", extension)
		}
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, extension)
	}

	_, ok := extensions[khr_portability_enumeration.ExtensionName]
	if ok {
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		info.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if validation {
		layers, _, err := globalDriver.AvailableLayers()
		if err != nil {
			return errors.Wrap(err, "failed to enumerate instance layers")
		}

		_, ok = layers[validationLayer]
		if !ok {
			return errors.Newf("layer %s is not available", validationLayer)
		}

		info.EnabledLayerNames = append(info.EnabledLayerNames, validationLayer)
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, ext_debug_utils.ExtensionName)
		info.Next = v.debugMessengerInfo()
	}

	v.instance, _, err = globalDriver.CreateInstance(nil, info)
	if err != nil {
		return errors.Wrap(err, "failed to create instance")
	}
	v.teardown.Push(func() {
		v.instance.DestroyInstance(nil)
	})

	if validation {
		debug := ext_debug_utils.CreateExtensionDriverFromCoreDriver(v.instance)
		messenger, _, err := debug.CreateDebugUtilsMessenger(nil, v.debugMessengerInfo())
		if err != nil {
			return errors.Wrap(err, "failed to create debug messenger")
		}
		v.teardown.Push(func() {
			debug.DestroyDebugUtilsMessenger(messenger, nil)
		})
	}

	return nil
}

func (v *vulkanContext) debugMessengerInfo() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback: func(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
			v.logger.Warn(data.Message, slog.Any("severity", severity), slog.Any("type", msgType))
			return false
		},
	}
}

func (v *vulkanContext) pickPhysicalDevice() error {
	physicalDevices, _, err := v.instance.EnumeratePhysicalDevices()
	if err != nil {
		return errors.Wrap(err, "failed to enumerate physical devices")
	}

	for _, physicalDevice := range physicalDevices {
		graphics, present, ok, err := v.queueFamilies(physicalDevice)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		extensions, _, err := v.instance.EnumerateDeviceExtensionProperties(physicalDevice)
		if err != nil {
			return errors.Wrap(err, "failed to enumerate device extensions")
		}

		_, ok = extensions[khr_swapchain.ExtensionName]
		if !ok {
			continue
		}

		v.physicalDevice = physicalDevice
		v.graphicsFamily = graphics
		v.presentFamily = present
		return nil
	}

	return errors.New("no device can render to the window surface")
}

func (v *vulkanContext) queueFamilies(physicalDevice core1_0.PhysicalDevice) (graphics int, present int, ok bool, err error) {
	graphics, present = -1, -1

	for index, family := range v.instance.GetPhysicalDeviceQueueFamilyProperties(physicalDevice) {
		if graphics < 0 && family.QueueFlags&core1_0.QueueGraphics != 0 {
			graphics = index
		}

		supported, _, err := v.surfaces.GetPhysicalDeviceSurfaceSupport(v.surface, physicalDevice, index)
		if err != nil {
			return 0, 0, false, errors.Wrap(err, "failed to query surface support")
		}

		if present < 0 && supported {
			present = index
		}
	}

	return graphics, present, graphics >= 0 && present >= 0, nil
}

func (v *vulkanContext) findMemoryType(typeFilter uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	memoryProperties := v.instance.GetPhysicalDeviceMemoryProperties(v.physicalDevice)
	for i, memoryType := range memoryProperties.MemoryTypes {
		if typeFilter&(1<<i) != 0 && memoryType.PropertyFlags&properties == properties {
			return i, nil
		}
	}

	return 0, errors.Newf("no memory type matches %v", properties)
}

func (v *vulkanContext) createDevice() error {
	families := []int{v.graphicsFamily}
	if v.presentFamily != v.graphicsFamily {
		families = append(families, v.presentFamily)
	}

	var queues []core1_0.DeviceQueueCreateInfo
	for _, family := range families {
		queues = append(queues, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: family,
			QueuePriorities:  []float32{1.0},
		})
	}

	extensionNames := []string{khr_swapchain.ExtensionName}
	extensions, _, err := v.instance.EnumerateDeviceExtensionProperties(v.physicalDevice)
	if err != nil {
		return errors.Wrap(err, "failed to enumerate device extensions")
	}

	_, ok := extensions[khr_portability_subset.ExtensionName]
	if ok {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	v.device, _, err = v.instance.CreateDevice(v.physicalDevice, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queues,
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create device")
	}
	v.teardown.Push(func() {
		v.device.DestroyDevice(nil)
	})

	v.graphicsQueue = v.device.GetQueue(v.graphicsFamily, 0)
	v.presentQueue = v.device.GetQueue(v.presentFamily, 0)
	return nil
}
