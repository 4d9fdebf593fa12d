package frames

import "github.com/vkngwrapper/arsenal/lifetime/deletion"

// FrameContext is passed to a RecordFunc while its frame's slot is recording
type FrameContext struct {
	FrameNumber uint64
	// ImageIndex is the index of the acquired presentable image
	ImageIndex int
	Slot       *Slot
}

// Commands returns the slot's command context. It has already been begun and will be ended once
// the RecordFunc returns.
func (f *FrameContext) Commands() CommandContext {
	return f.Slot.commands
}

// Deletion returns the queue of actions that will run once this frame's GPU work has completed
func (f *FrameContext) Deletion() *deletion.Queue {
	return f.Slot.deletion
}

// Resources returns the slot's resettable resources. They were reset before this frame began.
func (f *FrameContext) Resources() SlotResource {
	return f.Slot.resources
}

// RecordFunc records a frame's commands
type RecordFunc func(frame *FrameContext) error
