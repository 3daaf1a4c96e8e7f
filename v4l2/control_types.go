package v4l2

/*
#include <linux/videodev2.h>
*/
import "C"

// CtrlID identifies a single V4L2 control.
type CtrlID = uint32

// CtrlClass is the V4L2 grouping (User, Codec, Camera, ...) used to
// organise related controls.
type CtrlClass = uint32

const (
	CtrlClassUser        CtrlClass = C.V4L2_CTRL_CLASS_USER
	CtrlClassCamera      CtrlClass = C.V4L2_CTRL_CLASS_CAMERA
	CtrlClassCodec       CtrlClass = C.V4L2_CTRL_CLASS_CODEC
	CtrlClassJPEG        CtrlClass = C.V4L2_CTRL_CLASS_JPEG
	CtrlClassImageSource CtrlClass = C.V4L2_CTRL_CLASS_IMAGE_SOURCE
	CtrlClassImageProc   CtrlClass = C.V4L2_CTRL_CLASS_IMAGE_PROC
)

// CtrlType (v4l2_ctrl_type) is the kernel's tag for a control's value
// representation.
type CtrlType = uint32

const (
	CtrlTypeInteger     CtrlType = C.V4L2_CTRL_TYPE_INTEGER
	CtrlTypeBoolean     CtrlType = C.V4L2_CTRL_TYPE_BOOLEAN
	CtrlTypeMenu        CtrlType = C.V4L2_CTRL_TYPE_MENU
	CtrlTypeButton      CtrlType = C.V4L2_CTRL_TYPE_BUTTON
	CtrlTypeInteger64   CtrlType = C.V4L2_CTRL_TYPE_INTEGER64
	CtrlTypeCtrlClass   CtrlType = C.V4L2_CTRL_TYPE_CTRL_CLASS
	CtrlTypeString      CtrlType = C.V4L2_CTRL_TYPE_STRING
	CtrlTypeBitmask     CtrlType = C.V4L2_CTRL_TYPE_BITMASK
	CtrlTypeIntegerMenu CtrlType = C.V4L2_CTRL_TYPE_INTEGER_MENU
	CtrlTypeU8          CtrlType = C.V4L2_CTRL_TYPE_U8
	CtrlTypeU16         CtrlType = C.V4L2_CTRL_TYPE_U16
	CtrlTypeU32         CtrlType = C.V4L2_CTRL_TYPE_U32
)

// CtrlFlag (v4l2_queryctrl.flags) bits.
const (
	CtrlFlagDisabled  uint32 = C.V4L2_CTRL_FLAG_DISABLED
	CtrlFlagGrabbed   uint32 = C.V4L2_CTRL_FLAG_GRABBED
	CtrlFlagReadOnly  uint32 = C.V4L2_CTRL_FLAG_READ_ONLY
	CtrlFlagInactive  uint32 = C.V4L2_CTRL_FLAG_INACTIVE
	CtrlFlagSlider    uint32 = C.V4L2_CTRL_FLAG_SLIDER
	CtrlFlagWriteOnly uint32 = C.V4L2_CTRL_FLAG_WRITE_ONLY
	CtrlFlagVolatile  uint32 = C.V4L2_CTRL_FLAG_VOLATILE

	ctrlFlagNextCtrl     uint32 = C.V4L2_CTRL_FLAG_NEXT_CTRL
	ctrlFlagNextCompound uint32 = C.V4L2_CTRL_FLAG_NEXT_COMPOUND
)

// NotWritable reports whether flags make a control non-writable: any of
// read-only, inactive, disabled, or grabbed.
func NotWritable(flags uint32) bool {
	return flags&(CtrlFlagReadOnly|CtrlFlagInactive|CtrlFlagDisabled|CtrlFlagGrabbed) != 0
}

// isClassHeader reports whether ctrlType marks a "class header"
// pseudo-control rather than an addressable control; EnumControls skips
// these.
func isClassHeader(ctrlType CtrlType) bool {
	return ctrlType == CtrlTypeCtrlClass
}
