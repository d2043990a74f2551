package ports

import "errors"

var (
	// ErrInvalidParams is returned when CreateParams has a nil device or a non-positive size.
	ErrInvalidParams = errors.New("codec: invalid parameters")

	// ErrDeviceMismatch is returned when the device type or handle does not match the variant.
	ErrDeviceMismatch = errors.New("codec: device type mismatch")

	// ErrAlreadyInitialized is returned by a second Initialize on the same instance.
	ErrAlreadyInitialized = errors.New("codec: already initialized")

	// ErrNotInitialized is returned when a session method is called before Initialize.
	ErrNotInitialized = errors.New("codec: not initialized")

	// ErrInvalidFrame is returned when the frame handle has the wrong type.
	ErrInvalidFrame = errors.New("codec: invalid frame handle")

	// ErrUnsupportedFormat is returned when a pixel format has no SDK buffer format.
	ErrUnsupportedFormat = errors.New("codec: unsupported pixel format")

	// ErrNoInputBuffer is returned when the SDK input buffer pool is exhausted.
	// The call can be retried later.
	ErrNoInputBuffer = errors.New("codec: no internal input buffer available")

	// ErrNoOutput is returned when a call succeeded but produced no output yet.
	ErrNoOutput = errors.New("codec: no output available")

	// ErrNothingToFlush is returned by Flush once all buffered output is drained.
	ErrNothingToFlush = errors.New("codec: nothing to flush")

	// ErrDeviceFailure is returned when a GPU resource creation or submission fails.
	ErrDeviceFailure = errors.New("codec: device failure")

	// ErrFenceTimeout is returned when a bounded fence wait expires.
	ErrFenceTimeout = errors.New("codec: fence wait timed out")

	// ErrSDKFailure is returned when the hardware codec SDK fails or panics.
	ErrSDKFailure = errors.New("codec: sdk failure")

	// ErrNotImplemented is returned by backend variants that are not implemented.
	ErrNotImplemented = errors.New("codec: not implemented")
)
