package v4l2

import (
	"errors"
	sys "golang.org/x/sys/unix"
)

// Error kinds returned by this package. Callers use errors.Is against
// these sentinels; the underlying errno (when one exists) is always
// wrapped with %w so it remains inspectable.
var (
	// ErrorSystem indicates a structural, typically unrecoverable kernel
	// error: EBADF, ENOMEM, ENODEV, EIO, ENXIO, EFAULT.
	ErrorSystem = errors.New("v4l2: system error")

	// ErrorBadArgument corresponds to EINVAL: the ioctl argument didn't
	// meet the kernel's requirements for the request or current device
	// state.
	ErrorBadArgument = errors.New("v4l2: bad argument")

	// ErrorUnsupported corresponds to ENOTTY: the device doesn't
	// implement the requested ioctl at all.
	ErrorUnsupported = errors.New("v4l2: unsupported request")

	// ErrorUnsupportedFeature indicates the device lacks a capability
	// (e.g. streaming, video capture) a higher-level operation requires.
	ErrorUnsupportedFeature = errors.New("v4l2: unsupported feature")

	// ErrorInterrupted corresponds to EINTR; callers may retry.
	ErrorInterrupted = errors.New("v4l2: interrupted")

	// ErrorTemporary indicates a transient condition (EAGAIN and
	// similar) that may succeed if retried.
	ErrorTemporary = errors.New("v4l2: temporary error")

	// ErrorTimeout indicates a readiness wait expired before the device
	// became ready.
	ErrorTimeout = errors.New("v4l2: timeout")
)

// classifyErrno maps a raw errno from an ioctl/syscall into one of the
// error kinds above.
func classifyErrno(errno sys.Errno) error {
	switch errno {
	case sys.EBADF, sys.ENOMEM, sys.ENODEV, sys.EIO, sys.ENXIO, sys.EFAULT:
		return ErrorSystem
	case sys.EINTR:
		return ErrorInterrupted
	case sys.EINVAL:
		return ErrorBadArgument
	case sys.ENOTTY:
		return ErrorUnsupported
	case sys.EAGAIN:
		return ErrorTemporary
	default:
		if errno.Timeout() {
			return ErrorTimeout
		}
		if errno.Temporary() {
			return ErrorTemporary
		}
		return errno
	}
}

// IsInvalidIndex reports whether err is the EINVAL-class error kernel
// enumeration loops (ENUM_FMT, ENUM_FRAMESIZES, ENUMINPUT, QUERY_EXT_CTRL
// with NEXT_CTRL, …) use to signal "no more entries".
func IsInvalidIndex(err error) bool {
	return errors.Is(err, ErrorBadArgument)
}
