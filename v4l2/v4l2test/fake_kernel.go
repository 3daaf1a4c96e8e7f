// Package v4l2test provides an in-process fake of the V4L2 ioctl surface,
// so package device's tests can drive the full v4l2/device stack without
// a real character device node. It is wired in through v4l2.SetIoctlFunc/
// SetMmapFunc/SetMunmapFunc rather than a real kernel.
package v4l2test

/*
#include <linux/videodev2.h>
*/
import "C"

import (
	"sync"
	"unsafe"

	sys "golang.org/x/sys/unix"
)

// ControlFixture describes one control the fake kernel answers
// QUERY_EXT_CTRL/G_CTRL/S_CTRL/QUERYMENU for.
type ControlFixture struct {
	ID      uint32
	Name    string
	Class   uint32
	Type    uint32
	Minimum int64
	Maximum int64
	Step    int64
	Default int64
	Flags   uint32
	Value   int64

	// MenuNames/MenuValues index from Minimum; only one is set depending
	// on Type (CtrlTypeMenu vs CtrlTypeIntegerMenu).
	MenuNames  []string
	MenuValues []int64
}

// FormatFixture is one ENUM_FMT row.
type FormatFixture struct {
	PixelFormat uint32
	Description string
	Flags       uint32
}

// FrameSizeFixture is one ENUM_FRAMESIZES row, discrete only.
type FrameSizeFixture struct {
	Width, Height uint32
}

// InputFixture is one ENUMINPUT row.
type InputFixture struct {
	Name         string
	Type         uint32
	Status       uint32
	Capabilities uint32
}

// EventFixture is one pending event DQEVENT hands out.
type EventFixture struct {
	Kind     uint32
	ID       uint32
	Sequence uint32
}

// FakeKernel answers the ioctl/mmap surface package device depends on,
// backed by plain Go state rather than a real /dev/videoN node.
type FakeKernel struct {
	mu sync.Mutex

	Driver  string
	Card    string
	BusInfo string
	Version uint32
	Caps    uint32

	Formats    map[uint32][]FormatFixture
	FrameSizes map[uint32][]FrameSizeFixture
	Inputs     []InputFixture
	Controls   []*ControlFixture

	Width, Height uint32
	PixelFormat   uint32
	BytesPerLine  uint32
	SizeImage     uint32

	// Sequence seeds the frame counter DQBUF reports and increments on
	// every dequeue; fixtures that care about a specific first sequence
	// number (e.g. matching a capture trace) set it before streaming.
	Sequence uint32

	bufLength uint32
	buffers   [][]byte
	queued    []bool
	queue     []uint32
	streaming bool

	events []EventFixture
}

// PushEvent appends an event for DQEVENT to hand out.
func (k *FakeKernel) PushEvent(ev EventFixture) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.events = append(k.events, ev)
}

// NewFakeKernel returns a FakeKernel with empty fixtures; callers populate
// Formats/Controls/etc. directly before wiring it in through
// v4l2.SetIoctlFunc/SetMmapFunc/SetMunmapFunc/SetCloseFunc.
func NewFakeKernel() *FakeKernel {
	return &FakeKernel{
		Formats:    map[uint32][]FormatFixture{},
		FrameSizes: map[uint32][]FrameSizeFixture{},
	}
}

// cstrCopy NUL-fills a fixed C string field and copies s into it. It
// takes a raw pointer because the kernel headers mix char and __u8 for
// these fields, which cgo maps to distinct Go array types.
func cstrCopy(p unsafe.Pointer, size int, s string) {
	b := unsafe.Slice((*byte)(p), size)
	for i := range b {
		b[i] = 0
	}
	if len(s) > size-1 {
		s = s[:size-1]
	}
	copy(b, s)
}

// Ioctl implements the func(fd, req, arg uintptr) sys.Errno shape
// v4l2.SetIoctlFunc expects.
func (k *FakeKernel) Ioctl(fd, req, arg uintptr) sys.Errno {
	k.mu.Lock()
	defer k.mu.Unlock()

	switch req {
	case uintptr(C.VIDIOC_QUERYCAP):
		raw := (*C.struct_v4l2_capability)(unsafe.Pointer(arg))
		cstrCopy(unsafe.Pointer(&raw.driver[0]), len(raw.driver), k.Driver)
		cstrCopy(unsafe.Pointer(&raw.card[0]), len(raw.card), k.Card)
		cstrCopy(unsafe.Pointer(&raw.bus_info[0]), len(raw.bus_info), k.BusInfo)
		raw.version = C.uint(k.Version)
		raw.capabilities = C.uint(k.Caps)
		raw.device_caps = C.uint(k.Caps)
		return 0

	case uintptr(C.VIDIOC_ENUM_FMT):
		raw := (*C.struct_v4l2_fmtdesc)(unsafe.Pointer(arg))
		list := k.Formats[uint32(raw._type)]
		idx := uint32(raw.index)
		if idx >= uint32(len(list)) {
			return sys.EINVAL
		}
		f := list[idx]
		raw.flags = C.uint(f.Flags)
		raw.pixelformat = C.uint(f.PixelFormat)
		cstrCopy(unsafe.Pointer(&raw.description[0]), len(raw.description), f.Description)
		return 0

	case uintptr(C.VIDIOC_ENUM_FRAMESIZES):
		raw := (*C.struct_v4l2_frmsizeenum)(unsafe.Pointer(arg))
		list := k.FrameSizes[uint32(raw.pixel_format)]
		idx := uint32(raw.index)
		if idx >= uint32(len(list)) {
			return sys.EINVAL
		}
		raw._type = C.V4L2_FRMSIZE_TYPE_DISCRETE
		sz := (*struct{ W, H uint32 })(unsafe.Pointer(&raw.anon0[0]))
		sz.W, sz.H = list[idx].Width, list[idx].Height
		return 0

	case uintptr(C.VIDIOC_ENUM_FRAMEINTERVALS):
		return sys.EINVAL

	case uintptr(C.VIDIOC_CROPCAP):
		raw := (*C.struct_v4l2_cropcap)(unsafe.Pointer(arg))
		raw.bounds = C.struct_v4l2_rect{left: 0, top: 0, width: C.uint(k.Width), height: C.uint(k.Height)}
		raw.defrect = raw.bounds
		raw.pixelaspect = C.struct_v4l2_fract{numerator: 1, denominator: 1}
		return 0

	case uintptr(C.VIDIOC_ENUMINPUT):
		raw := (*C.struct_v4l2_input)(unsafe.Pointer(arg))
		idx := uint32(raw.index)
		if idx >= uint32(len(k.Inputs)) {
			return sys.EINVAL
		}
		in := k.Inputs[idx]
		cstrCopy(unsafe.Pointer(&raw.name[0]), len(raw.name), in.Name)
		raw._type = C.uint(in.Type)
		raw.status = C.uint(in.Status)
		raw.capabilities = C.uint(in.Capabilities)
		return 0

	case uintptr(C.VIDIOC_G_INPUT), uintptr(C.VIDIOC_S_INPUT):
		return 0

	case uintptr(C.VIDIOC_QUERY_EXT_CTRL):
		raw := (*C.struct_v4l2_query_ext_ctrl)(unsafe.Pointer(arg))
		reqID := uint32(raw.id)
		nextCtrl := reqID&0x80000000 != 0
		id := reqID &^ 0xC0000000
		ctrl := k.findNextControl(id, nextCtrl)
		if ctrl == nil {
			return sys.EINVAL
		}
		raw.id = C.uint(ctrl.ID)
		cstrCopy(unsafe.Pointer(&raw.name[0]), len(raw.name), ctrl.Name)
		raw._type = C.uint(ctrl.Type)
		raw.minimum = C.longlong(ctrl.Minimum)
		raw.maximum = C.longlong(ctrl.Maximum)
		raw.step = C.ulonglong(ctrl.Step)
		raw.default_value = C.longlong(ctrl.Default)
		raw.flags = C.uint(ctrl.Flags)
		return 0

	case uintptr(C.VIDIOC_QUERYMENU):
		raw := (*C.struct_v4l2_querymenu)(unsafe.Pointer(arg))
		ctrl := k.controlByID(uint32(raw.id))
		if ctrl == nil {
			return sys.EINVAL
		}
		idx := int64(raw.index)
		rel := idx - ctrl.Minimum
		if ctrl.Type == C.V4L2_CTRL_TYPE_MENU {
			if rel < 0 || rel >= int64(len(ctrl.MenuNames)) {
				return sys.EINVAL
			}
			cstrCopy(unsafe.Pointer(&raw.anon0[0]), 32, ctrl.MenuNames[rel])
		} else {
			if rel < 0 || rel >= int64(len(ctrl.MenuValues)) {
				return sys.EINVAL
			}
			*(*int64)(unsafe.Pointer(&raw.anon0[0])) = ctrl.MenuValues[rel]
		}
		return 0

	case uintptr(C.VIDIOC_G_CTRL):
		raw := (*C.struct_v4l2_control)(unsafe.Pointer(arg))
		ctrl := k.controlByID(uint32(raw.id))
		if ctrl == nil {
			return sys.EINVAL
		}
		raw.value = C.int(ctrl.Value)
		return 0

	case uintptr(C.VIDIOC_S_CTRL):
		raw := (*C.struct_v4l2_control)(unsafe.Pointer(arg))
		ctrl := k.controlByID(uint32(raw.id))
		if ctrl == nil {
			return sys.EINVAL
		}
		ctrl.Value = int64(raw.value)
		return 0

	case uintptr(C.VIDIOC_G_EXT_CTRLS):
		raw := (*C.struct_v4l2_ext_controls)(unsafe.Pointer(arg))
		one := (*C.struct_v4l2_ext_control)(unsafe.Pointer(raw.controls))
		ctrl := k.controlByID(uint32(one.id))
		if ctrl == nil {
			return sys.EINVAL
		}
		*(*int64)(unsafe.Pointer(&one.anon0[0])) = ctrl.Value
		return 0

	case uintptr(C.VIDIOC_S_EXT_CTRLS):
		raw := (*C.struct_v4l2_ext_controls)(unsafe.Pointer(arg))
		one := (*C.struct_v4l2_ext_control)(unsafe.Pointer(raw.controls))
		ctrl := k.controlByID(uint32(one.id))
		if ctrl == nil {
			return sys.EINVAL
		}
		ctrl.Value = *(*int64)(unsafe.Pointer(&one.anon0[0]))
		return 0

	case uintptr(C.VIDIOC_G_FMT):
		raw := (*C.struct_v4l2_format)(unsafe.Pointer(arg))
		pix := (*C.struct_v4l2_pix_format)(unsafe.Pointer(&raw.fmt[0]))
		pix.width = C.uint(k.Width)
		pix.height = C.uint(k.Height)
		pix.pixelformat = C.uint(k.PixelFormat)
		pix.bytesperline = C.uint(k.BytesPerLine)
		pix.sizeimage = C.uint(k.SizeImage)
		return 0

	case uintptr(C.VIDIOC_S_FMT):
		raw := (*C.struct_v4l2_format)(unsafe.Pointer(arg))
		pix := (*C.struct_v4l2_pix_format)(unsafe.Pointer(&raw.fmt[0]))
		k.Width = uint32(pix.width)
		k.Height = uint32(pix.height)
		k.PixelFormat = uint32(pix.pixelformat)
		if k.SizeImage == 0 {
			k.SizeImage = k.Width * k.Height * 2
		}
		pix.sizeimage = C.uint(k.SizeImage)
		pix.bytesperline = C.uint(k.BytesPerLine)
		return 0

	case uintptr(C.VIDIOC_REQBUFS):
		raw := (*C.struct_v4l2_requestbuffers)(unsafe.Pointer(arg))
		count := uint32(raw.count)
		if count == 0 {
			k.buffers = nil
			k.queued = nil
			k.queue = nil
			raw.count = 0
			return 0
		}
		k.bufLength = k.SizeImage
		if k.bufLength == 0 {
			k.bufLength = 1
		}
		k.buffers = make([][]byte, count)
		k.queued = make([]bool, count)
		raw.count = C.uint(count)
		return 0

	case uintptr(C.VIDIOC_QUERYBUF):
		raw := (*C.struct_v4l2_buffer)(unsafe.Pointer(arg))
		idx := uint32(raw.index)
		if idx >= uint32(len(k.buffers)) {
			return sys.EINVAL
		}
		raw.length = C.uint(k.bufLength)
		*(*uint32)(unsafe.Pointer(&raw.m[0])) = idx * k.bufLength
		return 0

	case uintptr(C.VIDIOC_QBUF):
		raw := (*C.struct_v4l2_buffer)(unsafe.Pointer(arg))
		idx := uint32(raw.index)
		if idx >= uint32(len(k.buffers)) {
			return sys.EINVAL
		}
		k.queued[idx] = true
		if k.streaming {
			k.queue = append(k.queue, idx)
		}
		return 0

	case uintptr(C.VIDIOC_DQBUF):
		raw := (*C.struct_v4l2_buffer)(unsafe.Pointer(arg))
		if len(k.queue) == 0 {
			return sys.EAGAIN
		}
		idx := k.queue[0]
		k.queue = k.queue[1:]
		k.queued[idx] = false
		raw.index = C.uint(idx)
		raw.bytesused = C.uint(k.bufLength)
		raw.flags = C.V4L2_BUF_FLAG_MAPPED
		raw.sequence = C.uint(k.Sequence)
		k.Sequence++
		raw.timestamp = C.struct_timeval{tv_sec: 123, tv_usec: 456789}
		if len(k.buffers[idx]) > 0 {
			for i := range k.buffers[idx] {
				k.buffers[idx][i] = 0x01
			}
		}
		return 0

	case uintptr(C.VIDIOC_STREAMON):
		k.streaming = true
		for i, q := range k.queued {
			if q {
				k.queue = append(k.queue, uint32(i))
			}
		}
		return 0

	case uintptr(C.VIDIOC_STREAMOFF):
		k.streaming = false
		k.queue = nil
		return 0

	case uintptr(C.VIDIOC_SUBSCRIBE_EVENT), uintptr(C.VIDIOC_UNSUBSCRIBE_EVENT):
		return 0

	case uintptr(C.VIDIOC_DQEVENT):
		raw := (*C.struct_v4l2_event)(unsafe.Pointer(arg))
		if len(k.events) == 0 {
			return sys.EAGAIN
		}
		ev := k.events[0]
		k.events = k.events[1:]
		raw._type = C.uint(ev.Kind)
		raw.id = C.uint(ev.ID)
		raw.sequence = C.uint(ev.Sequence)
		raw.pending = C.uint(len(k.events))
		return 0

	default:
		return sys.EINVAL
	}
}

func (k *FakeKernel) controlByID(id uint32) *ControlFixture {
	for _, c := range k.Controls {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// findNextControl implements the NEXT_CTRL|NEXT_COMPOUND walk: when
// nextCtrl is set it returns the first fixture with ID > id (fixtures are
// assumed sorted by ID); otherwise it returns the fixture with ID == id.
func (k *FakeKernel) findNextControl(id uint32, nextCtrl bool) *ControlFixture {
	if !nextCtrl {
		return k.controlByID(id)
	}
	var best *ControlFixture
	for _, c := range k.Controls {
		if c.ID > id && (best == nil || c.ID < best.ID) {
			best = c
		}
	}
	return best
}

// MmapFunc backs v4l2.SetMmapFunc: it returns the Go byte slice standing
// in for the mapped region at offset, allocating it lazily on first map.
func (k *FakeKernel) MmapFunc(fd uintptr, offset int64, length int) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	idx := uint32(offset) / k.bufLength
	if int(idx) >= len(k.buffers) {
		return nil, sys.EINVAL
	}
	if k.buffers[idx] == nil {
		k.buffers[idx] = make([]byte, length)
	}
	return k.buffers[idx], nil
}

// MunmapFunc backs v4l2.SetMunmapFunc; fake buffers are plain Go memory so
// there is nothing to release.
func (k *FakeKernel) MunmapFunc(b []byte) error {
	return nil
}

// CloseFunc backs v4l2.SetCloseFunc; there is no real fd to close.
func (k *FakeKernel) CloseFunc(fd uintptr) error {
	return nil
}

// BufferCount reports how many kernel-owned buffers REQBUFS currently has
// allocated, for tests asserting that buffer accounting nets to zero after
// a capture/free cycle.
func (k *FakeKernel) BufferCount() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buffers)
}
