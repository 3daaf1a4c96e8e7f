package v4l2

/*
#include <linux/videodev2.h>
*/
import "C"

import (
	"fmt"
	"unsafe"

	sys "golang.org/x/sys/unix"
)

// BufFlag (v4l2_buffer.flags) bits this module inspects.
const (
	BufFlagMapped   uint32 = C.V4L2_BUF_FLAG_MAPPED
	BufFlagQueued   uint32 = C.V4L2_BUF_FLAG_QUEUED
	BufFlagDone     uint32 = C.V4L2_BUF_FLAG_DONE
	BufFlagError    uint32 = C.V4L2_BUF_FLAG_ERROR
	BufFlagKeyFrame uint32 = C.V4L2_BUF_FLAG_KEYFRAME
	BufFlagPFrame   uint32 = C.V4L2_BUF_FLAG_PFRAME
	BufFlagBFrame   uint32 = C.V4L2_BUF_FLAG_BFRAME
)

// RequestBuffers (v4l2_requestbuffers) asks the driver to allocate (or
// free, when count is 0) a buffer queue for bufType/memory.
type RequestBuffers struct {
	Count   uint32
	BufType BufType
	Memory  MemoryType
}

// Buffer (v4l2_buffer) is the per-buffer record QUERYBUF/QBUF/DQBUF
// exchange: offset for a fresh MMAP buffer, bytesused/flags/timestamp
// once the kernel has filled it.
type Buffer struct {
	Index     uint32
	BufType   BufType
	Memory    MemoryType
	Flags     uint32
	Field     FieldOrder
	BytesUsed uint32
	Length    uint32
	Offset    uint32
	Sequence  uint32
	Timestamp sys.Timeval
	Timecode  Timecode
}

func makeBuffer(raw C.struct_v4l2_buffer) Buffer {
	return Buffer{
		Index:     uint32(raw.index),
		BufType:   uint32(raw._type),
		Memory:    uint32(raw.memory),
		Flags:     uint32(raw.flags),
		Field:     uint32(raw.field),
		BytesUsed: uint32(raw.bytesused),
		Length:    uint32(raw.length),
		Offset:    *(*uint32)(unsafe.Pointer(&raw.m[0])),
		Sequence:  uint32(raw.sequence),
		Timestamp: *(*sys.Timeval)(unsafe.Pointer(&raw.timestamp)),
		Timecode:  *(*Timecode)(unsafe.Pointer(&raw.timecode)),
	}
}

// RequestBuffersIO issues VIDIOC_REQBUFS. A returned count of 0 signals
// the driver could not allocate any buffers.
func RequestBuffersIO(fd uintptr, bufType BufType, memory MemoryType, count uint32) (RequestBuffers, error) {
	var raw C.struct_v4l2_requestbuffers
	raw.count = C.uint(count)
	raw._type = C.uint(bufType)
	raw.memory = C.uint(memory)

	if err := send(fd, "VIDIOC_REQBUFS", uintptr(C.VIDIOC_REQBUFS), uintptr(unsafe.Pointer(&raw))); err != nil {
		return RequestBuffers{}, fmt.Errorf("v4l2: request buffers: %w", err)
	}
	return RequestBuffers{Count: uint32(raw.count), BufType: bufType, Memory: memory}, nil
}

// QueryBuffer issues VIDIOC_QUERYBUF, returning the kernel's mmap offset
// and length for index.
func QueryBuffer(fd uintptr, bufType BufType, memory MemoryType, index uint32) (Buffer, error) {
	var raw C.struct_v4l2_buffer
	raw._type = C.uint(bufType)
	raw.memory = C.uint(memory)
	raw.index = C.uint(index)

	if err := send(fd, "VIDIOC_QUERYBUF", uintptr(C.VIDIOC_QUERYBUF), uintptr(unsafe.Pointer(&raw))); err != nil {
		return Buffer{}, fmt.Errorf("v4l2: query buffer: index %d: %w", index, err)
	}
	return makeBuffer(raw), nil
}

// QueueBuffer issues VIDIOC_QBUF, handing ownership of index to the
// kernel.
func QueueBuffer(fd uintptr, bufType BufType, memory MemoryType, index uint32) (Buffer, error) {
	var raw C.struct_v4l2_buffer
	raw._type = C.uint(bufType)
	raw.memory = C.uint(memory)
	raw.index = C.uint(index)

	if err := send(fd, "VIDIOC_QBUF", uintptr(C.VIDIOC_QBUF), uintptr(unsafe.Pointer(&raw))); err != nil {
		return Buffer{}, fmt.Errorf("v4l2: queue buffer: index %d: %w", index, err)
	}
	return makeBuffer(raw), nil
}

// DequeueBuffer issues VIDIOC_DQBUF, returning a buffer the kernel has
// finished with. Ownership of the returned buffer passes to the caller
// until it is re-queued.
func DequeueBuffer(fd uintptr, bufType BufType, memory MemoryType) (Buffer, error) {
	var raw C.struct_v4l2_buffer
	raw._type = C.uint(bufType)
	raw.memory = C.uint(memory)

	if err := send(fd, "VIDIOC_DQBUF", uintptr(C.VIDIOC_DQBUF), uintptr(unsafe.Pointer(&raw))); err != nil {
		return Buffer{}, fmt.Errorf("v4l2: dequeue buffer: %w", err)
	}
	return makeBuffer(raw), nil
}

// StreamOn issues VIDIOC_STREAMON for bufType.
func StreamOn(fd uintptr, bufType BufType) error {
	v := C.uint(bufType)
	if err := send(fd, "VIDIOC_STREAMON", uintptr(C.VIDIOC_STREAMON), uintptr(unsafe.Pointer(&v))); err != nil {
		return fmt.Errorf("v4l2: stream on: %w", err)
	}
	return nil
}

// StreamOff issues VIDIOC_STREAMOFF for bufType.
func StreamOff(fd uintptr, bufType BufType) error {
	v := C.uint(bufType)
	if err := send(fd, "VIDIOC_STREAMOFF", uintptr(C.VIDIOC_STREAMOFF), uintptr(unsafe.Pointer(&v))); err != nil {
		return fmt.Errorf("v4l2: stream off: %w", err)
	}
	return nil
}
