package frames

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/lifetime/deletion"
)

// Slot is one element of the frame ring. Everything it owns is reused every FrameOverlap frames,
// once the fence from its previous occupancy has been observed signaled.
type Slot struct {
	index int
	state SlotState

	commands       CommandContext
	imageAvailable Semaphore
	renderComplete Semaphore
	fence          Fence

	deletion  *deletion.Queue
	resources SlotResource

	used      bool
	lastFrame uint64
}

func (s *Slot) Index() int {
	return s.index
}

func (s *Slot) State() SlotState {
	return s.state
}

// Deletion returns the queue of actions deferred until this slot's current work has completed
func (s *Slot) Deletion() *deletion.Queue {
	return s.deletion
}

// Resources returns the slot's resettable resources, or nil if the ring was created without any
func (s *Slot) Resources() SlotResource {
	return s.resources
}

func (s *Slot) Commands() CommandContext {
	return s.commands
}

// LastFrame returns the frame number of the most recent cycle to use this slot. The bool is false
// if the slot has never been used.
func (s *Slot) LastFrame() (uint64, bool) {
	return s.lastFrame, s.used
}

func (s *Slot) transition(next SlotState) {
	if !s.state.CanTransition(next) {
		panic(fmt.Sprintf("frame slot %d cannot move from %s to %s", s.index, s.state, next))
	}

	s.state = next
}

// reclaim blocks until the slot's previous work has completed, then releases everything that
// work was holding onto
func (s *Slot) reclaim(timeout time.Duration) error {
	err := s.fence.Wait(timeout)
	if err != nil {
		return errors.Wrapf(err, "frame slot %d", s.index)
	}

	if s.state == SlotSubmitted {
		s.transition(SlotComplete)
		s.transition(SlotIdle)
	}

	s.deletion.Flush()

	if s.resources != nil {
		err = s.resources.Reset()
		if err != nil {
			return errors.Wrapf(err, "failed to reset resources for frame slot %d", s.index)
		}
	}

	err = s.commands.Reset()
	if err != nil {
		return errors.Wrapf(err, "failed to reset command context for frame slot %d", s.index)
	}

	return nil
}

// complete polls the fence without blocking
func (s *Slot) complete() bool {
	return s.fence == nil || s.fence.Wait(0) == nil
}

func (s *Slot) destroy() {
	s.deletion.Flush()

	if s.resources != nil {
		s.resources.Destroy()
		s.resources = nil
	}

	if s.commands != nil {
		s.commands.Destroy()
		s.commands = nil
	}

	if s.imageAvailable != nil {
		s.imageAvailable.Destroy()
		s.imageAvailable = nil
	}

	if s.renderComplete != nil {
		s.renderComplete.Destroy()
		s.renderComplete = nil
	}

	if s.fence != nil {
		s.fence.Destroy()
		s.fence = nil
	}
}
