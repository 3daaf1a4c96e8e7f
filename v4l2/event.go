package v4l2

/*
#include <linux/videodev2.h>
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// EventKind (v4l2_event_type) identifies the kind of event a device can
// report over the event channel.
type EventKind = uint32

const (
	EventAll          EventKind = C.V4L2_EVENT_ALL
	EventVSync        EventKind = C.V4L2_EVENT_VSYNC
	EventEOS          EventKind = C.V4L2_EVENT_EOS
	EventCtrl         EventKind = C.V4L2_EVENT_CTRL
	EventFrameSync    EventKind = C.V4L2_EVENT_FRAME_SYNC
	EventSourceChange EventKind = C.V4L2_EVENT_SOURCE_CHANGE
)

// Event (v4l2_event) is a dequeued device event.
type Event struct {
	Kind     EventKind
	ID       uint32
	Sequence uint32
	Pending  uint32
}

// SubscribeEvent issues VIDIOC_SUBSCRIBE_EVENT for kind/id.
func SubscribeEvent(fd uintptr, kind EventKind, id uint32) error {
	var raw C.struct_v4l2_event_subscription
	raw._type = C.uint(kind)
	raw.id = C.uint(id)

	if err := send(fd, "VIDIOC_SUBSCRIBE_EVENT", uintptr(C.VIDIOC_SUBSCRIBE_EVENT), uintptr(unsafe.Pointer(&raw))); err != nil {
		return fmt.Errorf("v4l2: subscribe event: %w", err)
	}
	return nil
}

// UnsubscribeEvent issues VIDIOC_UNSUBSCRIBE_EVENT for kind/id.
func UnsubscribeEvent(fd uintptr, kind EventKind, id uint32) error {
	var raw C.struct_v4l2_event_subscription
	raw._type = C.uint(kind)
	raw.id = C.uint(id)

	if err := send(fd, "VIDIOC_UNSUBSCRIBE_EVENT", uintptr(C.VIDIOC_UNSUBSCRIBE_EVENT), uintptr(unsafe.Pointer(&raw))); err != nil {
		return fmt.Errorf("v4l2: unsubscribe event: %w", err)
	}
	return nil
}

// DequeueEvent issues VIDIOC_DQEVENT.
func DequeueEvent(fd uintptr) (Event, error) {
	var raw C.struct_v4l2_event
	if err := send(fd, "VIDIOC_DQEVENT", uintptr(C.VIDIOC_DQEVENT), uintptr(unsafe.Pointer(&raw))); err != nil {
		return Event{}, fmt.Errorf("v4l2: dequeue event: %w", err)
	}
	return Event{
		Kind:     EventKind(raw._type),
		ID:       uint32(raw.id),
		Sequence: uint32(raw.sequence),
		Pending:  uint32(raw.pending),
	}, nil
}
