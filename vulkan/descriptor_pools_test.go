package vulkan

import (
	"io"
	"log/slog"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/lifetime/descriptors"
	"github.com/vkngwrapper/arsenal/lifetime/frames"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/core/v3/core1_1"
	"go.uber.org/mock/gomock"
)

var testRatios = []descriptors.PoolSizeRatio{
	{Type: core1_0.DescriptorTypeUniformBuffer, Ratio: 2},
	{Type: core1_0.DescriptorTypeCombinedImageSampler, Ratio: 0.5},
}

func TestDescriptorPoolsCreatePool(t *testing.T) {
	ctrl := gomock.NewController(t)
	driver, _ := readyDevice(t, ctrl)

	driver.EXPECT().CreateDescriptorPool(gomock.Any(), core1_0.DescriptorPoolCreateInfo{
		MaxSets: 10,
		PoolSizes: []core1_0.DescriptorPoolSize{
			{Type: core1_0.DescriptorTypeUniformBuffer, DescriptorCount: 20},
			{Type: core1_0.DescriptorTypeCombinedImageSampler, DescriptorCount: 5},
		},
	}).Return(core1_0.DescriptorPool{}, core1_0.VKSuccess, nil)

	pools := NewDescriptorPools(driver, 0)
	_, err := pools.CreatePool(10, []descriptors.PoolSize{
		{Type: core1_0.DescriptorTypeUniformBuffer, DescriptorCount: 20},
		{Type: core1_0.DescriptorTypeCombinedImageSampler, DescriptorCount: 5},
	})
	require.NoError(t, err)
}

func TestDescriptorPoolExhaustionIsClassified(t *testing.T) {
	ctrl := gomock.NewController(t)
	driver, _ := readyDevice(t, ctrl)

	driver.EXPECT().CreateDescriptorPool(gomock.Any(), gomock.Any()).Return(core1_0.DescriptorPool{}, core1_0.VKSuccess, nil)
	driver.EXPECT().AllocateDescriptorSets(gomock.Any()).Return(nil, core1_1.VkErrorOutOfPoolMemory, errors.New("out of pool memory"))
	driver.EXPECT().ResetDescriptorPool(core1_0.DescriptorPool{}, gomock.Any()).Return(core1_0.VKSuccess, nil)

	pools := NewDescriptorPools(driver, 0)
	pool, err := pools.CreatePool(1, []descriptors.PoolSize{{Type: core1_0.DescriptorTypeStorageBuffer, DescriptorCount: 1}})
	require.NoError(t, err)

	_, err = pool.AllocateSet(core1_0.DescriptorSetLayout{}, nil)
	require.True(t, errors.Is(err, descriptors.ErrPoolExhausted))

	require.NoError(t, pool.Reset())
}

func TestDescriptorAllocatorGrowsOnDevice(t *testing.T) {
	ctrl := gomock.NewController(t)
	driver, _ := readyDevice(t, ctrl)

	first := driver.EXPECT().CreateDescriptorPool(gomock.Any(), core1_0.DescriptorPoolCreateInfo{
		MaxSets: 10,
		PoolSizes: []core1_0.DescriptorPoolSize{
			{Type: core1_0.DescriptorTypeUniformBuffer, DescriptorCount: 20},
			{Type: core1_0.DescriptorTypeCombinedImageSampler, DescriptorCount: 5},
		},
	}).Return(core1_0.DescriptorPool{}, core1_0.VKSuccess, nil)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	allocator := NewDescriptorAllocator(logger, driver, descriptors.CreateOptions{})
	require.NoError(t, allocator.Init(10, testRatios))

	exhausted := driver.EXPECT().AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: core1_0.DescriptorPool{},
		SetLayouts:     []core1_0.DescriptorSetLayout{{}},
	}).Return(nil, core1_0.VKErrorFragmentedPool, errors.New("fragmented")).After(first)
	grown := driver.EXPECT().CreateDescriptorPool(gomock.Any(), core1_0.DescriptorPoolCreateInfo{
		MaxSets: 15,
		PoolSizes: []core1_0.DescriptorPoolSize{
			{Type: core1_0.DescriptorTypeUniformBuffer, DescriptorCount: 30},
			{Type: core1_0.DescriptorTypeCombinedImageSampler, DescriptorCount: 7},
		},
	}).Return(core1_0.DescriptorPool{}, core1_0.VKSuccess, nil).After(exhausted)
	driver.EXPECT().AllocateDescriptorSets(gomock.Any()).Return([]core1_0.DescriptorSet{{}}, core1_0.VKSuccess, nil).After(grown)

	_, err := allocator.Allocate(core1_0.DescriptorSetLayout{}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, allocator.FullCount())
	require.Equal(t, 1, allocator.ReadyCount())
	require.Equal(t, 15, allocator.SetsPerPool())

	driver.EXPECT().ResetDescriptorPool(core1_0.DescriptorPool{}, gomock.Any()).Return(core1_0.VKSuccess, nil).Times(2)
	descriptorsForFrame := FrameDescriptors{DescriptorAllocator: allocator}

	var resource frames.SlotResource = descriptorsForFrame
	require.NoError(t, resource.Reset())
	require.Equal(t, 0, allocator.FullCount())
	require.Equal(t, 2, allocator.ReadyCount())

	driver.EXPECT().DestroyDescriptorPool(core1_0.DescriptorPool{}, nil).Times(2)
	resource.Destroy()
	require.Equal(t, 0, allocator.ReadyCount())
}

func TestLayoutBuilder(t *testing.T) {
	ctrl := gomock.NewController(t)
	driver, _ := readyDevice(t, ctrl)

	var builder LayoutBuilder
	builder.AddBinding(0, core1_0.DescriptorTypeUniformBuffer).
		AddBinding(1, core1_0.DescriptorTypeCombinedImageSampler)

	driver.EXPECT().CreateDescriptorSetLayout(gomock.Any(), core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: []core1_0.DescriptorSetLayoutBinding{
			{
				Binding:         0,
				DescriptorType:  core1_0.DescriptorTypeUniformBuffer,
				DescriptorCount: 1,
				StageFlags:      core1_0.StageVertex | core1_0.StageFragment,
			},
			{
				Binding:         1,
				DescriptorType:  core1_0.DescriptorTypeCombinedImageSampler,
				DescriptorCount: 1,
				StageFlags:      core1_0.StageVertex | core1_0.StageFragment,
			},
		},
	}).Return(core1_0.DescriptorSetLayout{}, core1_0.VKSuccess, nil)

	_, err := builder.Build(driver, core1_0.StageVertex|core1_0.StageFragment, nil)
	require.NoError(t, err)

	// Building does not bake stages into the builder
	require.Equal(t, core1_0.ShaderStageFlags(0), builder.Bindings[0].StageFlags)

	builder.Clear()
	require.Len(t, builder.Bindings, 0)
}

func TestDescriptorWriter(t *testing.T) {
	ctrl := gomock.NewController(t)
	driver, _ := readyDevice(t, ctrl)

	var writer DescriptorWriter
	writer.WriteBuffer(0, core1_0.Buffer{}, 64, 128, core1_0.DescriptorTypeUniformBuffer)
	writer.WriteImage(1, core1_0.ImageView{}, core1_0.Sampler{}, core1_0.ImageLayoutShaderReadOnlyOptimal, core1_0.DescriptorTypeCombinedImageSampler)
	require.Equal(t, 2, writer.Len())

	driver.EXPECT().UpdateDescriptorSets([]core1_0.WriteDescriptorSet{
		{
			DstSet:         core1_0.DescriptorSet{},
			DstBinding:     0,
			DescriptorType: core1_0.DescriptorTypeUniformBuffer,
			BufferInfo: []core1_0.DescriptorBufferInfo{
				{Buffer: core1_0.Buffer{}, Offset: 128, Range: 64},
			},
		},
		{
			DstSet:         core1_0.DescriptorSet{},
			DstBinding:     1,
			DescriptorType: core1_0.DescriptorTypeCombinedImageSampler,
			ImageInfo: []core1_0.DescriptorImageInfo{
				{ImageLayout: core1_0.ImageLayoutShaderReadOnlyOptimal},
			},
		},
	}, gomock.Nil()).Return(nil)

	require.NoError(t, writer.UpdateSet(driver, core1_0.DescriptorSet{}))

	writer.Clear()
	require.Equal(t, 0, writer.Len())
}
