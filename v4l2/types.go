package v4l2

/*
#include <linux/videodev2.h>
*/
import "C"

// BufType (v4l2_buf_type) identifies the kind of stream a buffer or
// format operation applies to.
// https://www.kernel.org/doc/html/latest/userspace-api/media/v4l/buffer.html
type BufType = uint32

const (
	BufTypeVideoCapture       BufType = C.V4L2_BUF_TYPE_VIDEO_CAPTURE
	BufTypeVideoOutput        BufType = C.V4L2_BUF_TYPE_VIDEO_OUTPUT
	BufTypeVideoOverlay       BufType = C.V4L2_BUF_TYPE_VIDEO_OVERLAY
	BufTypeVideoCaptureMPlane BufType = C.V4L2_BUF_TYPE_VIDEO_CAPTURE_MPLANE
	BufTypeVideoOutputMPlane  BufType = C.V4L2_BUF_TYPE_VIDEO_OUTPUT_MPLANE
)

// BufTypes enumerates every buffer type this package understands, in a
// fixed order; capability discovery intersects this list with a device's
// advertised capabilities.
var BufTypes = []BufType{
	BufTypeVideoCapture,
	BufTypeVideoCaptureMPlane,
	BufTypeVideoOutput,
	BufTypeVideoOutputMPlane,
	BufTypeVideoOverlay,
}

// MemoryType (v4l2_memory) identifies how a buffer's storage is provided
// to the driver. Only MemoryTypeMMAP is implemented by this module; the
// others are named so Capability/Buffer records stay meaningful when a
// driver reports them.
type MemoryType = uint32

const (
	MemoryTypeMMAP    MemoryType = C.V4L2_MEMORY_MMAP
	MemoryTypeUserPtr MemoryType = C.V4L2_MEMORY_USERPTR
	MemoryTypeOverlay MemoryType = C.V4L2_MEMORY_OVERLAY
	MemoryTypeDMABuf  MemoryType = C.V4L2_MEMORY_DMABUF
)

// FieldOrder (v4l2_field) describes the interlacing of a format or
// buffer.
type FieldOrder = uint32

const (
	FieldAny          FieldOrder = C.V4L2_FIELD_ANY
	FieldNone         FieldOrder = C.V4L2_FIELD_NONE
	FieldTop          FieldOrder = C.V4L2_FIELD_TOP
	FieldBottom       FieldOrder = C.V4L2_FIELD_BOTTOM
	FieldInterlaced   FieldOrder = C.V4L2_FIELD_INTERLACED
	FieldSeqTB        FieldOrder = C.V4L2_FIELD_SEQ_TB
	FieldSeqBT        FieldOrder = C.V4L2_FIELD_SEQ_BT
	FieldAlternate    FieldOrder = C.V4L2_FIELD_ALTERNATE
	FieldInterlacedTB FieldOrder = C.V4L2_FIELD_INTERLACED_TB
	FieldInterlacedBT FieldOrder = C.V4L2_FIELD_INTERLACED_BT
)

// Fract (v4l2_fract) is a rational number used for frame intervals
// (timeperframe = numerator/denominator seconds per frame).
type Fract struct {
	Numerator   uint32
	Denominator uint32
}

// Normalize zeroes out a fraction whose numerator is zero, so a
// degenerate interval reads as a zero rate rather than a
// division-by-zero hazard downstream.
func (f Fract) Normalize() Fract {
	if f.Numerator == 0 {
		return Fract{}
	}
	return f
}

// FPS returns the frame rate implied by the fraction (frames per second),
// or 0 if the fraction is degenerate.
func (f Fract) FPS() float64 {
	if f.Numerator == 0 || f.Denominator == 0 {
		return 0
	}
	return float64(f.Denominator) / float64(f.Numerator)
}

// Rect (v4l2_rect) is an axis-aligned pixel rectangle used by crop and
// selection targets.
type Rect struct {
	Left   int32
	Top    int32
	Width  uint32
	Height uint32
}

// Timecode (v4l2_timecode) carries SMPTE-style frame timing metadata
// attached to a buffer, when the driver supports it.
type Timecode struct {
	Type     uint32
	Flags    uint32
	Frames   uint8
	Seconds  uint8
	Minutes  uint8
	Hours    uint8
	UserBits [4]uint8
}

// TimecodeKind (v4l2_timecode.type) values.
const (
	TimecodeType24FPS uint32 = C.V4L2_TC_TYPE_24FPS
	TimecodeType25FPS uint32 = C.V4L2_TC_TYPE_25FPS
	TimecodeType30FPS uint32 = C.V4L2_TC_TYPE_30FPS
	TimecodeType50FPS uint32 = C.V4L2_TC_TYPE_50FPS
	TimecodeType60FPS uint32 = C.V4L2_TC_TYPE_60FPS
)

// TimecodeFlag (v4l2_timecode.flags) bits.
const (
	TimecodeFlagDropFrame     uint32 = C.V4L2_TC_FLAG_DROPFRAME
	TimecodeFlagColorFrame    uint32 = C.V4L2_TC_FLAG_COLORFRAME
	TimecodeUserBitsField     uint32 = C.V4L2_TC_USERBITS_field
	TimecodeUserBits8BitChars uint32 = C.V4L2_TC_USERBITS_8BITCHARS
)
