package device

import (
	"errors"
	"fmt"
)

// Error kinds this package returns. Callers use errors.Is against these
// sentinels; ioctl-level errno detail, when present, is wrapped with %w
// underneath.
var (
	// ErrPrecondition signals an operation invoked against the device or
	// session in the wrong lifecycle state (closed, buffers not
	// created, still streaming, ...).
	ErrPrecondition = errors.New("device: precondition failed")

	// ErrOutOfMemory signals REQBUFS returned a buffer count of 0.
	ErrOutOfMemory = errors.New("device: kernel could not allocate buffers")

	// ErrTypeError signals a control value the target control's type
	// cannot coerce.
	ErrTypeError = errors.New("device: value has the wrong type for control")

	// ErrOutOfRange signals a numeric control write outside [min, max]
	// with clipping disabled.
	ErrOutOfRange = errors.New("device: value out of range")

	// ErrNotFound signals an unknown control id or name.
	ErrNotFound = errors.New("device: control not found")

	// ErrConfiguration signals a malformed configuration file.
	ErrConfiguration = errors.New("device: invalid configuration")

	// ErrCompatibility signals a configuration that does not match the
	// device it is being validated or applied against.
	ErrCompatibility = errors.New("device: configuration incompatible with device")

	// ErrDeviceState signals apply/verify divergence: a control did not
	// read back the value that was written.
	ErrDeviceState = errors.New("device: control did not settle to requested value")
)

// KindError wraps a sentinel Kind with a descriptive message and,
// optionally, the underlying cause.
type KindError struct {
	Kind    error
	Message string
	Cause   error
}

func (e *KindError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *KindError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, device.ErrPrecondition) match a *KindError whose
// Kind is that sentinel, in addition to the normal Unwrap chain.
func (e *KindError) Is(target error) bool {
	return e.Kind == target
}

func kindErr(kind error, cause error, format string, args ...any) error {
	return &KindError{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}
