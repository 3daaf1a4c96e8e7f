package v4l2

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/kestrelcam/v4lcap/internal/logging"
	sys "golang.org/x/sys/unix"
	"go.uber.org/zap"
)

// OpenDevice validates that path is a character device and opens it with
// the given flags/mode. It exists instead of os.OpenFile because some
// drivers return EBUSY when opened through the Go runtime's poller
// registration; a raw openat avoids that.
func OpenDevice(path string, flags int, mode uint32) (uintptr, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("v4l2: open device: %w", err)
	}
	if info.Mode()&fs.ModeCharDevice == 0 {
		return 0, fmt.Errorf("v4l2: open device: %s: not a character device", path)
	}

	for {
		fd, err := sys.Openat(sys.AT_FDCWD, path, flags, mode)
		if err == nil {
			return uintptr(fd), nil
		}
		if err == sys.EINTR {
			continue
		}
		return 0, &os.PathError{Op: "open", Path: path, Err: err}
	}
}

// closeFunc is indirected the same way ioctlFunc is, so tests can close a
// fake fd without issuing a real close(2) against whatever that integer
// happens to name in the test process.
var closeFunc = rawClose

func rawClose(fd uintptr) error {
	return sys.Close(int(fd))
}

// CloseDevice closes a device file descriptor opened with OpenDevice.
func CloseDevice(fd uintptr) error {
	return closeFunc(fd)
}

// SetCloseFunc overrides the function backing CloseDevice, returning a
// reset function.
func SetCloseFunc(fn func(fd uintptr) error) (reset func()) {
	prev := closeFunc
	closeFunc = fn
	return func() { closeFunc = prev }
}

// ioctlFunc performs the raw ioctl syscall. Tests in package device
// substitute this with a fake kernel backend so the rest of the stack
// (buffer accounting, control registry, config round trips) can be
// exercised without a real /dev/videoN node.
var ioctlFunc = rawIoctl

func rawIoctl(fd, req, arg uintptr) sys.Errno {
	_, _, errno := sys.Syscall(sys.SYS_IOCTL, fd, req, arg)
	return errno
}

// ioctl issues the raw syscall, retrying transparently on EINTR.
func ioctl(fd, req, arg uintptr) sys.Errno {
	for {
		errno := ioctlFunc(fd, req, arg)
		if errno == sys.EINTR {
			continue
		}
		return errno
	}
}

// SetIoctlFunc overrides the function used to issue every ioctl in this
// package, returning a reset function that restores the previous one. It
// exists for tests that need to drive the v4l2/device stack against a
// fake kernel rather than a real character device.
func SetIoctlFunc(fn func(fd, req, arg uintptr) sys.Errno) (reset func()) {
	prev := ioctlFunc
	ioctlFunc = fn
	return func() { ioctlFunc = prev }
}

// send issues an ioctl and classifies any failure into this package's
// error kinds. name is the symbolic request name used only for the debug
// trace (e.g. "VIDIOC_QUERYCAP").
func send(fd uintptr, name string, req, arg uintptr) error {
	errno := ioctl(fd, req, arg)
	logging.Logger.Debug("v4l2 ioctl",
		zap.String("request", name),
		zap.Uintptr("fd", fd),
		zap.Uint32("errno", uint32(errno)),
	)
	if errno == 0 {
		return nil
	}
	return classifyErrno(errno)
}

// mmapFunc/munmapFunc are indirected the same way ioctlFunc is, so tests
// can back buffers with plain Go memory instead of a real mapped device.
var mmapFunc = rawMmap
var munmapFunc = rawMunmap

func rawMmap(fd uintptr, offset int64, length int) ([]byte, error) {
	return sys.Mmap(int(fd), offset, length, sys.PROT_READ|sys.PROT_WRITE, sys.MAP_SHARED)
}

func rawMunmap(b []byte) error {
	return sys.Munmap(b)
}

// Mmap maps length bytes of the device's buffer at offset into the
// caller's address space for MMAP-type streaming I/O.
func Mmap(fd uintptr, offset int64, length int) ([]byte, error) {
	data, err := mmapFunc(fd, offset, length)
	if err != nil {
		return nil, fmt.Errorf("v4l2: mmap: %w", err)
	}
	return data, nil
}

// Munmap releases a mapping previously created by Mmap.
func Munmap(b []byte) error {
	if err := munmapFunc(b); err != nil {
		return fmt.Errorf("v4l2: munmap: %w", err)
	}
	return nil
}

// SetMmapFunc overrides the function backing Mmap, returning a reset
// function. Tests use this to back buffers with plain Go memory.
func SetMmapFunc(fn func(fd uintptr, offset int64, length int) ([]byte, error)) (reset func()) {
	prev := mmapFunc
	mmapFunc = fn
	return func() { mmapFunc = prev }
}

// SetMunmapFunc overrides the function backing Munmap, returning a reset
// function.
func SetMunmapFunc(fn func(b []byte) error) (reset func()) {
	prev := munmapFunc
	munmapFunc = fn
	return func() { munmapFunc = prev }
}

// Select blocks until fd becomes ready for reading or timeout elapses. A
// nil timeout blocks indefinitely. It is the default implementation behind
// the readiness-gated and async frame-reader policies in package device.
func Select(fd uintptr, timeout *sys.Timeval) (ready bool, err error) {
	var set sys.FdSet
	set.Set(int(fd))
	for {
		n, serr := sys.Select(int(fd)+1, &set, nil, nil, timeout)
		if serr == sys.EINTR {
			continue
		}
		if serr != nil {
			return false, fmt.Errorf("v4l2: select: %w", serr)
		}
		return n > 0, nil
	}
}

// SelectExcept blocks until fd reports an exception condition (the urgent
// data V4L2 drivers use to signal VIDIOC_DQEVENT readiness via EPOLLPRI)
// or timeout elapses. A nil timeout blocks indefinitely. It is the default
// implementation behind the event-reader policy in package device, which
// must not share the ordinary readable-fds wait Select performs for frame
// buffers.
func SelectExcept(fd uintptr, timeout *sys.Timeval) (ready bool, err error) {
	var set sys.FdSet
	set.Set(int(fd))
	for {
		n, serr := sys.Select(int(fd)+1, nil, nil, &set, timeout)
		if serr == sys.EINTR {
			continue
		}
		if serr != nil {
			return false, fmt.Errorf("v4l2: select except: %w", serr)
		}
		return n > 0, nil
	}
}
