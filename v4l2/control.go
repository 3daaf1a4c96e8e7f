package v4l2

/*
#include <linux/videodev2.h>
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// ControlDescriptor (v4l2_query_ext_ctrl) is the immutable description of
// a control returned by QUERY_EXT_CTRL, before any value has been read.
type ControlDescriptor struct {
	ID      CtrlID
	Name    string
	Class   CtrlClass
	Type    CtrlType
	Minimum int64
	Maximum int64
	Step    int64
	Default int64
	Flags   uint32
}

// QueryExtControl issues VIDIOC_QUERY_EXT_CTRL for id.
func QueryExtControl(fd uintptr, id CtrlID) (ControlDescriptor, error) {
	var raw C.struct_v4l2_query_ext_ctrl
	raw.id = C.uint(id)

	if err := send(fd, "VIDIOC_QUERY_EXT_CTRL", uintptr(C.VIDIOC_QUERY_EXT_CTRL), uintptr(unsafe.Pointer(&raw))); err != nil {
		return ControlDescriptor{}, fmt.Errorf("v4l2: query ext ctrl: id %#x: %w", id, err)
	}
	return ControlDescriptor{
		ID:      uint32(raw.id),
		Name:    C.GoString((*C.char)(unsafe.Pointer(&raw.name[0]))),
		Class:   uint32(raw.id) & 0xFFFF0000,
		Type:    CtrlType(raw._type),
		Minimum: int64(raw.minimum),
		Maximum: int64(raw.maximum),
		Step:    int64(raw.step),
		Default: int64(raw.default_value),
		Flags:   uint32(raw.flags),
	}, nil
}

// EnumControls walks VIDIOC_QUERY_EXT_CTRL with the
// NEXT_CTRL|NEXT_COMPOUND bits set; controls flagged DISABLED, or
// classified as a class header, are skipped rather than collected.
func EnumControls(fd uintptr) ([]ControlDescriptor, error) {
	var result []ControlDescriptor
	id := ctrlFlagNextCtrl | ctrlFlagNextCompound
	for {
		var raw C.struct_v4l2_query_ext_ctrl
		raw.id = C.uint(id)
		if err := send(fd, "VIDIOC_QUERY_EXT_CTRL", uintptr(C.VIDIOC_QUERY_EXT_CTRL), uintptr(unsafe.Pointer(&raw))); err != nil {
			if IsInvalidIndex(err) {
				break
			}
			return result, fmt.Errorf("v4l2: enum controls: %w", err)
		}
		desc := ControlDescriptor{
			ID:      uint32(raw.id),
			Name:    C.GoString((*C.char)(unsafe.Pointer(&raw.name[0]))),
			Class:   uint32(raw.id) & 0xFFFF0000,
			Type:    CtrlType(raw._type),
			Minimum: int64(raw.minimum),
			Maximum: int64(raw.maximum),
			Step:    int64(raw.step),
			Default: int64(raw.default_value),
			Flags:   uint32(raw.flags),
		}
		if desc.Flags&CtrlFlagDisabled == 0 && !isClassHeader(desc.Type) {
			result = append(result, desc)
		}
		id = desc.ID | ctrlFlagNextCtrl | ctrlFlagNextCompound
	}
	return result, nil
}

// MenuItem (v4l2_querymenu) is one row of a menu or integer-menu control.
type MenuItem struct {
	Index int64
	Name  string
	Value int64
}

// EnumMenu walks VIDIOC_QUERYMENU over [min, max] with the given step for
// ctrlID, skipping rows the kernel reports as invalid.
func EnumMenu(fd uintptr, ctrlID CtrlID, ctrlType CtrlType, min, max, step int64) ([]MenuItem, error) {
	if step <= 0 {
		step = 1
	}
	var result []MenuItem
	for idx := min; idx <= max; idx += step {
		var raw C.struct_v4l2_querymenu
		raw.id = C.uint(ctrlID)
		raw.index = C.uint(idx)
		if err := send(fd, "VIDIOC_QUERYMENU", uintptr(C.VIDIOC_QUERYMENU), uintptr(unsafe.Pointer(&raw))); err != nil {
			continue
		}
		item := MenuItem{Index: idx}
		if ctrlType == CtrlTypeIntegerMenu {
			item.Value = *(*int64)(unsafe.Pointer(&raw.anon0[0]))
		} else {
			item.Name = C.GoString((*C.char)(unsafe.Pointer(&raw.anon0[0])))
		}
		result = append(result, item)
	}
	return result, nil
}

// GetControlValue issues VIDIOC_G_CTRL for id.
func GetControlValue(fd uintptr, id CtrlID) (int32, error) {
	var raw C.struct_v4l2_control
	raw.id = C.uint(id)

	if err := send(fd, "VIDIOC_G_CTRL", uintptr(C.VIDIOC_G_CTRL), uintptr(unsafe.Pointer(&raw))); err != nil {
		return 0, fmt.Errorf("v4l2: get control value: id %#x: %w", id, err)
	}
	return int32(raw.value), nil
}

// SetControlValue issues VIDIOC_S_CTRL for id. Range clipping is the
// control registry's responsibility, not this primitive's.
func SetControlValue(fd uintptr, id CtrlID, value int32) error {
	var raw C.struct_v4l2_control
	raw.id = C.uint(id)
	raw.value = C.int(value)

	if err := send(fd, "VIDIOC_S_CTRL", uintptr(C.VIDIOC_S_CTRL), uintptr(unsafe.Pointer(&raw))); err != nil {
		return fmt.Errorf("v4l2: set control value: id %#x: %w", id, err)
	}
	return nil
}

// GetControlValue64 issues VIDIOC_G_EXT_CTRLS for a single 64-bit control.
func GetControlValue64(fd uintptr, id CtrlID, class CtrlClass) (int64, error) {
	var one C.struct_v4l2_ext_control
	one.id = C.uint(id)
	var ctrls C.struct_v4l2_ext_controls
	*(*uint32)(unsafe.Pointer(&ctrls.anon0[0])) = class
	ctrls.count = 1
	ctrls.controls = &one

	if err := send(fd, "VIDIOC_G_EXT_CTRLS", uintptr(C.VIDIOC_G_EXT_CTRLS), uintptr(unsafe.Pointer(&ctrls))); err != nil {
		return 0, fmt.Errorf("v4l2: get ext control value: id %#x: %w", id, err)
	}
	return int64(*(*int64)(unsafe.Pointer(&one.anon0[0]))), nil
}

// SetControlValue64 issues VIDIOC_S_EXT_CTRLS for a single 64-bit control.
func SetControlValue64(fd uintptr, id CtrlID, class CtrlClass, value int64) error {
	var one C.struct_v4l2_ext_control
	one.id = C.uint(id)
	*(*int64)(unsafe.Pointer(&one.anon0[0])) = value
	var ctrls C.struct_v4l2_ext_controls
	*(*uint32)(unsafe.Pointer(&ctrls.anon0[0])) = class
	ctrls.count = 1
	ctrls.controls = &one

	if err := send(fd, "VIDIOC_S_EXT_CTRLS", uintptr(C.VIDIOC_S_EXT_CTRLS), uintptr(unsafe.Pointer(&ctrls))); err != nil {
		return fmt.Errorf("v4l2: set ext control value: id %#x: %w", id, err)
	}
	return nil
}
