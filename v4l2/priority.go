package v4l2

/*
#include <linux/videodev2.h>
*/
import "C"

import "unsafe"

// Priority (v4l2_priority) is the cooperative scheduling handshake
// multiple file handles on the same device use to arbitrate control.
type Priority = uint32

const (
	PriorityUnset       Priority = C.V4L2_PRIORITY_UNSET
	PriorityBackground  Priority = C.V4L2_PRIORITY_BACKGROUND
	PriorityInteractive Priority = C.V4L2_PRIORITY_INTERACTIVE
	PriorityRecord      Priority = C.V4L2_PRIORITY_RECORD
)

// GetPriority issues VIDIOC_G_PRIORITY.
func GetPriority(fd uintptr) (Priority, error) {
	var p C.uint
	if err := send(fd, "VIDIOC_G_PRIORITY", uintptr(C.VIDIOC_G_PRIORITY), uintptr(unsafe.Pointer(&p))); err != nil {
		return 0, err
	}
	return Priority(p), nil
}

// SetPriority issues VIDIOC_S_PRIORITY.
func SetPriority(fd uintptr, p Priority) error {
	v := C.uint(p)
	return send(fd, "VIDIOC_S_PRIORITY", uintptr(C.VIDIOC_S_PRIORITY), uintptr(unsafe.Pointer(&v)))
}
