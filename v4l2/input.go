package v4l2

/*
#include <linux/videodev2.h>
*/
import "C"

import "unsafe"

// InputType (v4l2_input.type) classifies a video input.
type InputType = uint32

const (
	InputTypeTuner  InputType = C.V4L2_INPUT_TYPE_TUNER
	InputTypeCamera InputType = C.V4L2_INPUT_TYPE_CAMERA
)

// InputStatus (v4l2_input.status) bits.
const (
	InputStatusNoPower  uint32 = C.V4L2_IN_ST_NO_POWER
	InputStatusNoSignal uint32 = C.V4L2_IN_ST_NO_SIGNAL
	InputStatusNoColor  uint32 = C.V4L2_IN_ST_NO_COLOR
)

// InputCapability (v4l2_input.capabilities) bits.
const (
	InputCapDV     uint32 = C.V4L2_IN_CAP_DV_TIMINGS
	InputCapStd    uint32 = C.V4L2_IN_CAP_STD
	InputCapNative uint32 = C.V4L2_IN_CAP_NATIVE_SIZE
)

// InputInfo (v4l2_input) describes one video input, as enumerated by
// VIDIOC_ENUMINPUT.
type InputInfo struct {
	Index        uint32
	Name         string
	Type         InputType
	Audioset     uint32
	Tuner        uint32
	Std          uint64
	Status       uint32
	Capabilities uint32
}

// EnumInputs walks VIDIOC_ENUMINPUT from index 0 until the kernel signals
// the end of the list.
func EnumInputs(fd uintptr) ([]InputInfo, error) {
	var result []InputInfo
	err := iterEnum(func(index uint32) (bool, error) {
		var raw C.struct_v4l2_input
		raw.index = C.uint(index)
		if err := send(fd, "VIDIOC_ENUMINPUT", uintptr(C.VIDIOC_ENUMINPUT), uintptr(unsafe.Pointer(&raw))); err != nil {
			return false, err
		}
		result = append(result, InputInfo{
			Index:        index,
			Name:         C.GoString((*C.char)(unsafe.Pointer(&raw.name[0]))),
			Type:         InputType(raw._type),
			Audioset:     uint32(raw.audioset),
			Tuner:        uint32(raw.tuner),
			Std:          uint64(raw.std),
			Status:       uint32(raw.status),
			Capabilities: uint32(raw.capabilities),
		})
		return true, nil
	})
	return result, err
}

// GetCurrentInput issues VIDIOC_G_INPUT.
func GetCurrentInput(fd uintptr) (int32, error) {
	var index C.int
	if err := send(fd, "VIDIOC_G_INPUT", uintptr(C.VIDIOC_G_INPUT), uintptr(unsafe.Pointer(&index))); err != nil {
		return 0, err
	}
	return int32(index), nil
}

// SetCurrentInput issues VIDIOC_S_INPUT.
func SetCurrentInput(fd uintptr, index int32) error {
	v := C.int(index)
	return send(fd, "VIDIOC_S_INPUT", uintptr(C.VIDIOC_S_INPUT), uintptr(unsafe.Pointer(&v)))
}
