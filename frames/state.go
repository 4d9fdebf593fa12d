package frames

import "fmt"

// SlotState is the position of a frame slot in its acquire, record, submit, present cycle
type SlotState int32

const (
	// SlotIdle indicates that the slot's previous work, if any, is known to be complete and the
	// slot is not being recorded
	SlotIdle SlotState = iota
	// SlotRecording indicates that an image has been acquired and commands are being recorded
	SlotRecording
	// SlotSubmitted indicates that the slot's work has been submitted and may still be executing
	SlotSubmitted
	// SlotComplete indicates that the slot's fence has been observed signaled
	SlotComplete
)

var slotStateMapping = map[SlotState]string{
	SlotIdle:      "SlotIdle",
	SlotRecording: "SlotRecording",
	SlotSubmitted: "SlotSubmitted",
	SlotComplete:  "SlotComplete",
}

func (s SlotState) String() string {
	str, ok := slotStateMapping[s]
	if !ok {
		return fmt.Sprintf("SlotState(%d)", int32(s))
	}

	return str
}

var slotTransitions = map[SlotState]SlotState{
	SlotIdle:      SlotRecording,
	SlotRecording: SlotSubmitted,
	SlotSubmitted: SlotComplete,
	SlotComplete:  SlotIdle,
}

// CanTransition returns true if a slot in this state may move to next
func (s SlotState) CanTransition(next SlotState) bool {
	allowed, ok := slotTransitions[s]
	return ok && allowed == next
}
