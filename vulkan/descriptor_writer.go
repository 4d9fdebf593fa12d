package vulkan

import (
	"github.com/vkngwrapper/core/v3/core1_0"
)

// DescriptorWriter batches descriptor writes and applies them to a set in one call
type DescriptorWriter struct {
	writes []core1_0.WriteDescriptorSet
}

// WriteImage queues a write of a single image descriptor to binding. view or sampler may be the zero
// handle for descriptor types that do not use them.
func (w *DescriptorWriter) WriteImage(binding int, view core1_0.ImageView, sampler core1_0.Sampler, layout core1_0.ImageLayout, descriptorType core1_0.DescriptorType) {
	w.writes = append(w.writes, core1_0.WriteDescriptorSet{
		DstBinding:     binding,
		DescriptorType: descriptorType,
		ImageInfo: []core1_0.DescriptorImageInfo{
			{
				Sampler:     sampler,
				ImageView:   view,
				ImageLayout: layout,
			},
		},
	})
}

// WriteBuffer queues a write of a single buffer descriptor covering size bytes at offset
func (w *DescriptorWriter) WriteBuffer(binding int, buffer core1_0.Buffer, size int, offset int, descriptorType core1_0.DescriptorType) {
	w.writes = append(w.writes, core1_0.WriteDescriptorSet{
		DstBinding:     binding,
		DescriptorType: descriptorType,
		BufferInfo: []core1_0.DescriptorBufferInfo{
			{
				Buffer: buffer,
				Offset: offset,
				Range:  size,
			},
		},
	})
}

// Len returns the number of queued writes
func (w *DescriptorWriter) Len() int {
	return len(w.writes)
}

func (w *DescriptorWriter) Clear() {
	w.writes = w.writes[:0]
}

// UpdateSet applies every queued write to set. The queued writes are kept, so the same writer can
// update several sets.
func (w *DescriptorWriter) UpdateSet(driver core1_0.DeviceDriver, set core1_0.DescriptorSet) error {
	writes := make([]core1_0.WriteDescriptorSet, len(w.writes))
	for i, write := range w.writes {
		write.DstSet = set
		writes[i] = write
	}

	return driver.UpdateDescriptorSets(writes, nil)
}
