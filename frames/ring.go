package frames

import (
	"fmt"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/lifetime/deletion"
)

// RingOptions contains optional settings when creating a Ring
type RingOptions struct {
	// FrameOverlap is the number of slots in the ring. Leave 0 for DefaultFrameOverlap.
	FrameOverlap int
	// SlotResources, if not nil, is called once per slot during NewRing. The resource it returns is
	// reset each time the slot is reused and destroyed with the ring.
	SlotResources func(index int) (SlotResource, error)
}

// Ring is the fixed-size array of frame slots. Frame N always uses slot N mod FrameOverlap.
type Ring struct {
	logger *slog.Logger
	slots  []*Slot
}

// NewRing creates every slot of the ring. Each slot's fence is created signaled so that the
// first wait on it returns immediately.
func NewRing(logger *slog.Logger, device Device, options RingOptions) (*Ring, error) {
	overlap := options.FrameOverlap
	if overlap == 0 {
		overlap = DefaultFrameOverlap
	}
	if overlap < 0 {
		return nil, errors.Newf("invalid frame overlap %d", overlap)
	}

	ring := &Ring{
		logger: logger,
		slots:  make([]*Slot, 0, overlap),
	}

	for i := 0; i < overlap; i++ {
		slot, err := ring.createSlot(device, i, options)
		if err != nil {
			ring.Destroy()
			return nil, errors.Wrapf(err, "failed to create frame slot %d", i)
		}

		ring.slots = append(ring.slots, slot)
	}

	return ring, nil
}

func (r *Ring) createSlot(device Device, index int, options RingOptions) (*Slot, error) {
	r.logger.Debug("Ring::createSlot", slog.Int("slot", index))

	slot := &Slot{
		index: index,
		state: SlotIdle,
		deletion: deletion.New(deletion.CreateOptions{
			Name: fmt.Sprintf("frame slot %d", index),
		}),
	}

	var err error
	slot.commands, err = device.CreateCommandContext()
	if err != nil {
		slot.destroy()
		return nil, err
	}

	slot.imageAvailable, err = device.CreateSemaphore()
	if err != nil {
		slot.destroy()
		return nil, err
	}

	slot.renderComplete, err = device.CreateSemaphore()
	if err != nil {
		slot.destroy()
		return nil, err
	}

	slot.fence, err = device.CreateFence(true)
	if err != nil {
		slot.destroy()
		return nil, err
	}

	if options.SlotResources != nil {
		slot.resources, err = options.SlotResources(index)
		if err != nil {
			slot.destroy()
			return nil, err
		}
	}

	return slot, nil
}

// Len returns the number of slots in the ring
func (r *Ring) Len() int {
	return len(r.slots)
}

// Slot returns the slot used by frameNumber
func (r *Ring) Slot(frameNumber uint64) *Slot {
	return r.slots[frameNumber%uint64(len(r.slots))]
}

// SlotAt returns the slot at index
func (r *Ring) SlotAt(index int) *Slot {
	return r.slots[index]
}

// Destroy flushes every slot's deletion queue and destroys the slot's synchronization objects,
// command context and resources. The device must be idle.
func (r *Ring) Destroy() {
	r.logger.Debug("Ring::Destroy")

	for _, slot := range r.slots {
		slot.destroy()
	}
	r.slots = nil
}

// abandon tears the ring down after a fatal error without waiting for the device. A slot is only
// destroyed if its fence is signaled or the device is lost. Anything else, including its deletion
// queue, is left in place since pending work may still reference it.
func (r *Ring) abandon(deviceLost bool) {
	r.logger.Debug("Ring::abandon")

	for _, slot := range r.slots {
		if !deviceLost && !slot.complete() {
			r.logger.Warn("leaking frame slot with incomplete work",
				slog.Int("slot", slot.index),
				slog.Int("pending", slot.deletion.Len()))
			continue
		}

		slot.destroy()
	}
	r.slots = nil
}
