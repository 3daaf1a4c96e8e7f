package v4l2

/*
#include <linux/videodev2.h>
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// GetFPS reads the stream's timeperframe via VIDIOC_G_PARM and inverts it
// into frames per second. Only capture and output buffer types carry a
// timeperframe.
func GetFPS(fd uintptr, bufType BufType) (Fract, error) {
	if !isCaptureOrOutput(bufType) {
		return Fract{}, fmt.Errorf("v4l2: get fps: %w", ErrorUnsupportedFeature)
	}
	var raw C.struct_v4l2_streamparm
	raw._type = C.uint(bufType)

	if err := send(fd, "VIDIOC_G_PARM", uintptr(C.VIDIOC_G_PARM), uintptr(unsafe.Pointer(&raw))); err != nil {
		return Fract{}, fmt.Errorf("v4l2: get fps: %w", err)
	}
	tpf := timePerFrame(bufType, &raw)
	return Fract{Numerator: tpf.Denominator, Denominator: tpf.Numerator}.Normalize(), nil
}

// SetFPS writes timeperframe = 1/fps via VIDIOC_S_PARM.
func SetFPS(fd uintptr, bufType BufType, fps Fract) error {
	if !isCaptureOrOutput(bufType) {
		return fmt.Errorf("v4l2: set fps: %w", ErrorUnsupportedFeature)
	}
	var raw C.struct_v4l2_streamparm
	raw._type = C.uint(bufType)
	tpf := timePerFrame(bufType, &raw)
	tpf.Numerator = fps.Denominator
	tpf.Denominator = fps.Numerator

	if err := send(fd, "VIDIOC_S_PARM", uintptr(C.VIDIOC_S_PARM), uintptr(unsafe.Pointer(&raw))); err != nil {
		return fmt.Errorf("v4l2: set fps: %w", err)
	}
	return nil
}

func isCaptureOrOutput(bufType BufType) bool {
	switch bufType {
	case BufTypeVideoCapture, BufTypeVideoCaptureMPlane, BufTypeVideoOutput, BufTypeVideoOutputMPlane:
		return true
	default:
		return false
	}
}

// timePerFrame returns a pointer to the capture or output timeperframe
// fraction inside the v4l2_streamparm union, depending on bufType.
func timePerFrame(bufType BufType, raw *C.struct_v4l2_streamparm) *Fract {
	switch bufType {
	case BufTypeVideoCapture, BufTypeVideoCaptureMPlane:
		capture := (*C.struct_v4l2_captureparm)(unsafe.Pointer(&raw.parm[0]))
		return (*Fract)(unsafe.Pointer(&capture.timeperframe))
	default:
		output := (*C.struct_v4l2_outputparm)(unsafe.Pointer(&raw.parm[0]))
		return (*Fract)(unsafe.Pointer(&output.timeperframe))
	}
}
