package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// Duration is a time.Duration written in TOML as a duration string such as "1s" or "250ms"
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(ErrInvalidConfig, "bad duration %q", string(text))
	}

	*d = Duration(duration)
	return nil
}

var descriptorTypeNames = map[string]core1_0.DescriptorType{
	"sampler":                core1_0.DescriptorTypeSampler,
	"combined_image_sampler": core1_0.DescriptorTypeCombinedImageSampler,
	"sampled_image":          core1_0.DescriptorTypeSampledImage,
	"storage_image":          core1_0.DescriptorTypeStorageImage,
	"uniform_texel_buffer":   core1_0.DescriptorTypeUniformTexelBuffer,
	"storage_texel_buffer":   core1_0.DescriptorTypeStorageTexelBuffer,
	"uniform_buffer":         core1_0.DescriptorTypeUniformBuffer,
	"storage_buffer":         core1_0.DescriptorTypeStorageBuffer,
	"uniform_buffer_dynamic": core1_0.DescriptorTypeUniformBufferDynamic,
	"storage_buffer_dynamic": core1_0.DescriptorTypeStorageBufferDynamic,
	"input_attachment":       core1_0.DescriptorTypeInputAttachment,
}

// ParseDescriptorType maps a snake_case descriptor type name, such as "uniform_buffer", to its
// core1_0.DescriptorType. Names are case-insensitive.
func ParseDescriptorType(name string) (core1_0.DescriptorType, error) {
	descriptorType, ok := descriptorTypeNames[strings.ToLower(name)]
	if !ok {
		return 0, errors.Wrapf(ErrInvalidConfig, "unknown descriptor type %q", name)
	}

	return descriptorType, nil
}
