package v4l2

/*
#include <linux/videodev2.h>
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// CropCapability (v4l2_cropcap) reports cropping bounds, the driver's
// default rectangle, and pixel aspect ratio for a stream type.
type CropCapability struct {
	StreamType  BufType
	Bounds      Rect
	DefaultRect Rect
	PixelAspect Fract
}

// GetCropCapability issues VIDIOC_CROPCAP. Capability discovery treats
// its failure as silently skippable rather than fatal.
func GetCropCapability(fd uintptr, bufType BufType) (CropCapability, error) {
	var raw C.struct_v4l2_cropcap
	raw._type = C.uint(bufType)

	if err := send(fd, "VIDIOC_CROPCAP", uintptr(C.VIDIOC_CROPCAP), uintptr(unsafe.Pointer(&raw))); err != nil {
		return CropCapability{}, fmt.Errorf("v4l2: crop capability: %w", err)
	}
	return CropCapability{
		StreamType:  bufType,
		Bounds:      *(*Rect)(unsafe.Pointer(&raw.bounds)),
		DefaultRect: *(*Rect)(unsafe.Pointer(&raw.defrect)),
		PixelAspect: *(*Fract)(unsafe.Pointer(&raw.pixelaspect)),
	}, nil
}

func (c CropCapability) String() string {
	return fmt.Sprintf("bounds=%+v default=%+v pixel-aspect=%d/%d", c.Bounds, c.DefaultRect, c.PixelAspect.Numerator, c.PixelAspect.Denominator)
}

// SelectionTarget (v4l2_sel_tgt) identifies which rectangle a selection
// get/set call addresses.
type SelectionTarget = uint32

const (
	SelTargetCrop           SelectionTarget = C.V4L2_SEL_TGT_CROP
	SelTargetCropDefault    SelectionTarget = C.V4L2_SEL_TGT_CROP_DEFAULT
	SelTargetCropBounds     SelectionTarget = C.V4L2_SEL_TGT_CROP_BOUNDS
	SelTargetCompose        SelectionTarget = C.V4L2_SEL_TGT_COMPOSE
	SelTargetComposeDefault SelectionTarget = C.V4L2_SEL_TGT_COMPOSE_DEFAULT
	SelTargetComposeBounds  SelectionTarget = C.V4L2_SEL_TGT_COMPOSE_BOUNDS
)

// GetSelection issues VIDIOC_G_SELECTION for bufType/target.
func GetSelection(fd uintptr, bufType BufType, target SelectionTarget) (Rect, error) {
	var raw C.struct_v4l2_selection
	raw._type = C.uint(bufType)
	raw.target = C.uint(target)

	if err := send(fd, "VIDIOC_G_SELECTION", uintptr(C.VIDIOC_G_SELECTION), uintptr(unsafe.Pointer(&raw))); err != nil {
		return Rect{}, fmt.Errorf("v4l2: get selection: %w", err)
	}
	return *(*Rect)(unsafe.Pointer(&raw.r)), nil
}

// SetSelection issues VIDIOC_S_SELECTION for bufType/target, returning the
// rectangle the driver actually accepted.
func SetSelection(fd uintptr, bufType BufType, target SelectionTarget, r Rect) (Rect, error) {
	var raw C.struct_v4l2_selection
	raw._type = C.uint(bufType)
	raw.target = C.uint(target)
	raw.r = *(*C.struct_v4l2_rect)(unsafe.Pointer(&r))

	if err := send(fd, "VIDIOC_S_SELECTION", uintptr(C.VIDIOC_S_SELECTION), uintptr(unsafe.Pointer(&raw))); err != nil {
		return Rect{}, fmt.Errorf("v4l2: set selection: %w", err)
	}
	return *(*Rect)(unsafe.Pointer(&raw.r)), nil
}
