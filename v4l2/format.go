package v4l2

/*
#include <linux/videodev2.h>
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// PixFormat (v4l2_pix_format) is the image geometry and pixel encoding for
// a stream. Only the fields the capability/format layer actually reasons
// about are modeled; the rest of the kernel struct is not kept (GetFormat
// drops it and SetFormat sends it zeroed).
type PixFormat struct {
	Width        uint32
	Height       uint32
	PixelFormat  PixFmt
	Field        FieldOrder
	BytesPerLine uint32
	SizeImage    uint32
	Colorspace   uint32
}

func (f PixFormat) String() string {
	return fmt.Sprintf("%dx%d %s (%d bytes/image)", f.Width, f.Height, PixFmtName(f.PixelFormat), f.SizeImage)
}

// GetFormat issues VIDIOC_G_FMT for bufType and decodes the pix_format
// union member.
func GetFormat(fd uintptr, bufType BufType) (PixFormat, error) {
	var raw C.struct_v4l2_format
	raw._type = C.uint(bufType)

	if err := send(fd, "VIDIOC_G_FMT", uintptr(C.VIDIOC_G_FMT), uintptr(unsafe.Pointer(&raw))); err != nil {
		return PixFormat{}, fmt.Errorf("v4l2: get format: %w", err)
	}
	pix := (*C.struct_v4l2_pix_format)(unsafe.Pointer(&raw.fmt[0]))
	return PixFormat{
		Width:        uint32(pix.width),
		Height:       uint32(pix.height),
		PixelFormat:  PixFmt(pix.pixelformat),
		Field:        FieldOrder(pix.field),
		BytesPerLine: uint32(pix.bytesperline),
		SizeImage:    uint32(pix.sizeimage),
		Colorspace:   uint32(pix.colorspace),
	}, nil
}

// SetFormat issues VIDIOC_S_FMT requesting width/height/pixelFormat on
// bufType with FieldAny. The kernel may silently adjust any of these
// fields; the returned PixFormat reflects what the driver actually
// accepted and callers must re-read rather than assume the request was
// honored verbatim.
func SetFormat(fd uintptr, bufType BufType, width, height uint32, pixelFormat PixFmt) (PixFormat, error) {
	var raw C.struct_v4l2_format
	raw._type = C.uint(bufType)
	pix := (*C.struct_v4l2_pix_format)(unsafe.Pointer(&raw.fmt[0]))
	pix.width = C.uint(width)
	pix.height = C.uint(height)
	pix.pixelformat = C.uint(pixelFormat)
	pix.field = C.uint(FieldAny)

	if err := send(fd, "VIDIOC_S_FMT", uintptr(C.VIDIOC_S_FMT), uintptr(unsafe.Pointer(&raw))); err != nil {
		return PixFormat{}, fmt.Errorf("v4l2: set format: %w", err)
	}
	return PixFormat{
		Width:        uint32(pix.width),
		Height:       uint32(pix.height),
		PixelFormat:  PixFmt(pix.pixelformat),
		Field:        FieldOrder(pix.field),
		BytesPerLine: uint32(pix.bytesperline),
		SizeImage:    uint32(pix.sizeimage),
		Colorspace:   uint32(pix.colorspace),
	}, nil
}

// ImageFormat (v4l2_fmtdesc) describes one pixel format a stream type
// supports, as enumerated by VIDIOC_ENUM_FMT.
type ImageFormat struct {
	Type        BufType
	Index       uint32
	Flags       uint32
	Description string
	PixelFormat PixFmt
}

// EnumFormats walks VIDIOC_ENUM_FMT for bufType from index 0 until the
// kernel signals the end of the list. Formats whose FOURCC this package
// does not recognise are still returned to the caller; discarding
// unknown FOURCCs from the capability record happens in the discovery
// layer, not in this low-level enumeration.
func EnumFormats(fd uintptr, bufType BufType) ([]ImageFormat, error) {
	var result []ImageFormat
	err := iterEnum(func(index uint32) (bool, error) {
		var raw C.struct_v4l2_fmtdesc
		raw.index = C.uint(index)
		raw._type = C.uint(bufType)
		if err := send(fd, "VIDIOC_ENUM_FMT", uintptr(C.VIDIOC_ENUM_FMT), uintptr(unsafe.Pointer(&raw))); err != nil {
			return false, err
		}
		result = append(result, ImageFormat{
			Type:        bufType,
			Index:       index,
			Flags:       uint32(raw.flags),
			Description: C.GoString((*C.char)(unsafe.Pointer(&raw.description[0]))),
			PixelFormat: PixFmt(raw.pixelformat),
		})
		return true, nil
	})
	return result, err
}
