package vulkan

import (
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// LayoutBuilder accumulates single-descriptor bindings and builds a descriptor set layout from them
type LayoutBuilder struct {
	Bindings []core1_0.DescriptorSetLayoutBinding
}

// AddBinding adds a binding holding one descriptor of descriptorType. Shader stages are assigned
// when the layout is built.
func (b *LayoutBuilder) AddBinding(binding int, descriptorType core1_0.DescriptorType) *LayoutBuilder {
	b.Bindings = append(b.Bindings, core1_0.DescriptorSetLayoutBinding{
		Binding:         binding,
		DescriptorType:  descriptorType,
		DescriptorCount: 1,
	})

	return b
}

func (b *LayoutBuilder) Clear() {
	b.Bindings = b.Bindings[:0]
}

// Build creates a layout from the accumulated bindings, making each of them visible to stages.
// next is chained onto the create info and may be nil.
func (b *LayoutBuilder) Build(driver core1_0.DeviceDriver, stages core1_0.ShaderStageFlags, next common.Options) (core1_0.DescriptorSetLayout, error) {
	bindings := make([]core1_0.DescriptorSetLayoutBinding, len(b.Bindings))
	for i, binding := range b.Bindings {
		binding.StageFlags |= stages
		bindings[i] = binding
	}

	layout, res, err := driver.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Bindings:    bindings,
		NextOptions: common.NextOptions{Next: next},
	})
	if err != nil {
		return core1_0.DescriptorSetLayout{}, resultError(res, err, "vkCreateDescriptorSetLayout")
	}

	return layout, nil
}
