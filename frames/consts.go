package frames

import "time"

const (
	// DefaultFrameOverlap is the number of frames whose GPU work may be in flight at once
	DefaultFrameOverlap int = 2
	// DefaultFenceTimeout bounds the wait on a slot's render fence. Exceeding it is treated as a device hang.
	DefaultFenceTimeout time.Duration = time.Second
	// DefaultPausePollInterval is how long the loop sleeps between event polls while the window is minimized
	DefaultPausePollInterval time.Duration = 100 * time.Millisecond
)
