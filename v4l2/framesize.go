package v4l2

/*
#include <linux/videodev2.h>
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// FrameSizeType (v4l2_frmsizetypes) tags which member of the frame-size
// union is populated.
type FrameSizeType = uint32

const (
	FrameSizeTypeDiscrete   FrameSizeType = C.V4L2_FRMSIZE_TYPE_DISCRETE
	FrameSizeTypeContinuous FrameSizeType = C.V4L2_FRMSIZE_TYPE_CONTINUOUS
	FrameSizeTypeStepwise   FrameSizeType = C.V4L2_FRMSIZE_TYPE_STEPWISE
)

// FrameSize is the decoded union from v4l2_frmsizeenum: for a discrete
// size, Min==Max and Step is zero; for stepwise/continuous, the triple
// describes the legal range.
type FrameSize struct {
	Type                             FrameSizeType
	MinWidth, MaxWidth, StepWidth    uint32
	MinHeight, MaxHeight, StepHeight uint32
}

// EnumFrameSizes walks VIDIOC_ENUM_FRAMESIZES for pixelFormat.
func EnumFrameSizes(fd uintptr, pixelFormat PixFmt) ([]FrameSize, error) {
	var result []FrameSize
	err := iterEnum(func(index uint32) (bool, error) {
		var raw C.struct_v4l2_frmsizeenum
		raw.index = C.uint(index)
		raw.pixel_format = C.uint(pixelFormat)
		if err := send(fd, "VIDIOC_ENUM_FRAMESIZES", uintptr(C.VIDIOC_ENUM_FRAMESIZES), uintptr(unsafe.Pointer(&raw))); err != nil {
			return false, err
		}
		fs := FrameSize{Type: FrameSizeType(raw._type)}
		switch fs.Type {
		case FrameSizeTypeDiscrete:
			d := (*struct{ Width, Height uint32 })(unsafe.Pointer(&raw.anon0[0]))
			fs.MinWidth, fs.MaxWidth = d.Width, d.Width
			fs.MinHeight, fs.MaxHeight = d.Height, d.Height
		default:
			sw := (*struct {
				MinWidth, MaxWidth, StepWidth    uint32
				MinHeight, MaxHeight, StepHeight uint32
			})(unsafe.Pointer(&raw.anon0[0]))
			fs.MinWidth, fs.MaxWidth, fs.StepWidth = sw.MinWidth, sw.MaxWidth, sw.StepWidth
			fs.MinHeight, fs.MaxHeight, fs.StepHeight = sw.MinHeight, sw.MaxHeight, sw.StepHeight
		}
		result = append(result, fs)
		return true, nil
	})
	return result, err
}

func (f FrameSize) String() string {
	if f.Type == FrameSizeTypeDiscrete {
		return fmt.Sprintf("%dx%d", f.MinWidth, f.MinHeight)
	}
	return fmt.Sprintf("%dx%d..%dx%d step %dx%d", f.MinWidth, f.MinHeight, f.MaxWidth, f.MaxHeight, f.StepWidth, f.StepHeight)
}
