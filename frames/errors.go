package frames

import "github.com/cockroachdb/errors"

var (
	// ErrFenceTimeout is returned when a slot's render fence is not signaled within the fence timeout.
	// It is fatal.
	ErrFenceTimeout = errors.New("timed out waiting for frame fence")
	// ErrDeviceLost is returned when the device reports that it has been lost. It is fatal.
	ErrDeviceLost = errors.New("device lost")
	// ErrSurfaceOutOfDate is returned when the presentation surface no longer matches the window. The
	// surface must be rebuilt before the next frame.
	ErrSurfaceOutOfDate = errors.New("presentation surface is out of date")
	// ErrSurfaceSuboptimal is returned when the presentation surface can still be used but no longer
	// matches the window exactly. The surface should be rebuilt before the next frame.
	ErrSurfaceSuboptimal = errors.New("presentation surface is suboptimal")
	// ErrDriverStopped is returned by RunFrameCycle after a fatal error or after Shutdown
	ErrDriverStopped = errors.New("frame driver has stopped")
)

// IsRecoverable returns true for errors that only require the presentation surface to be rebuilt.
// Every other error returned by the frame loop leaves the device in an unknown state.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrSurfaceOutOfDate) || errors.Is(err, ErrSurfaceSuboptimal)
}
