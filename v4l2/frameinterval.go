package v4l2

/*
#include <linux/videodev2.h>
*/
import "C"

import "unsafe"

// FrameIntervalType (v4l2_frmivaltypes) tags which member of the frame
// interval union is populated.
type FrameIntervalType = uint32

const (
	FrameIntervalTypeDiscrete   FrameIntervalType = C.V4L2_FRMIVAL_TYPE_DISCRETE
	FrameIntervalTypeContinuous FrameIntervalType = C.V4L2_FRMIVAL_TYPE_CONTINUOUS
	FrameIntervalTypeStepwise   FrameIntervalType = C.V4L2_FRMIVAL_TYPE_STEPWISE
)

// FrameInterval is the decoded union from v4l2_frmivalenum: for a
// discrete interval Min==Max==Step; for stepwise/continuous the triple
// bounds the legal frame rate. A zero numerator is normalised to a zero
// rate rather than propagated as a division hazard.
type FrameInterval struct {
	Type           FrameIntervalType
	Min, Max, Step Fract
}

// EnumFrameIntervals walks VIDIOC_ENUM_FRAMEINTERVALS for a discrete
// frame size at (width, height) under pixelFormat.
func EnumFrameIntervals(fd uintptr, pixelFormat PixFmt, width, height uint32) ([]FrameInterval, error) {
	var result []FrameInterval
	err := iterEnum(func(index uint32) (bool, error) {
		var raw C.struct_v4l2_frmivalenum
		raw.index = C.uint(index)
		raw.pixel_format = C.uint(pixelFormat)
		raw.width = C.uint(width)
		raw.height = C.uint(height)
		if err := send(fd, "VIDIOC_ENUM_FRAMEINTERVALS", uintptr(C.VIDIOC_ENUM_FRAMEINTERVALS), uintptr(unsafe.Pointer(&raw))); err != nil {
			return false, err
		}
		fi := FrameInterval{Type: FrameIntervalType(raw._type)}
		switch fi.Type {
		case FrameIntervalTypeDiscrete:
			d := (*Fract)(unsafe.Pointer(&raw.anon0[0])).Normalize()
			fi.Min, fi.Max, fi.Step = d, d, d
		default:
			sw := (*struct{ Min, Max, Step Fract })(unsafe.Pointer(&raw.anon0[0]))
			fi.Min = sw.Min.Normalize()
			fi.Max = sw.Max.Normalize()
			fi.Step = sw.Step.Normalize()
		}
		result = append(result, fi)
		return true, nil
	})
	return result, err
}
