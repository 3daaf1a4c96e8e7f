package v4l2

/*
#include <linux/videodev2.h>
*/
import "C"

import "fmt"

// PixFmt is a closed enumeration over V4L2 FOURCC pixel-format codes.
// Unrecognised FOURCCs returned by a driver are never fatal: EnumFormats
// returns them as-is, and capability discovery in package device logs and
// skips them rather than fail.
type PixFmt = uint32

// FourCC packs four ASCII characters into the little-endian 32-bit integer
// V4L2 uses to identify a pixel format, matching the kernel's own
// v4l2_fourcc() macro.
func FourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// HumanStr renders a FOURCC back into its four-character form, e.g.
// 0x47504A4D -> "MJPG". Non-printable bytes are rendered as '.'.
func HumanStr(code uint32) string {
	b := [4]byte{byte(code), byte(code >> 8), byte(code >> 16), byte(code >> 24)}
	for i, c := range b {
		if c < 0x20 || c > 0x7e {
			b[i] = '.'
		}
	}
	return string(b[:])
}

// Known pixel formats. Not exhaustive of the kernel's UAPI header — only
// the codes this module's format/control layers need to recognise by
// name; anything else round-trips as an opaque PixFmt value.
var (
	PixelFmtRGB24  PixFmt = C.V4L2_PIX_FMT_RGB24
	PixelFmtBGR24  PixFmt = C.V4L2_PIX_FMT_BGR24
	PixelFmtGrey   PixFmt = C.V4L2_PIX_FMT_GREY
	PixelFmtYUYV   PixFmt = C.V4L2_PIX_FMT_YUYV
	PixelFmtYVYU   PixFmt = C.V4L2_PIX_FMT_YVYU
	PixelFmtUYVY   PixFmt = C.V4L2_PIX_FMT_UYVY
	PixelFmtNV12   PixFmt = C.V4L2_PIX_FMT_NV12
	PixelFmtYUV420 PixFmt = C.V4L2_PIX_FMT_YUV420
	PixelFmtMJPEG  PixFmt = C.V4L2_PIX_FMT_MJPEG
	PixelFmtJPEG   PixFmt = C.V4L2_PIX_FMT_JPEG
	PixelFmtH264   PixFmt = C.V4L2_PIX_FMT_H264
	PixelFmtMPEG   PixFmt = C.V4L2_PIX_FMT_MPEG
)

// pixelFormatNames backs PixFmtName/IsKnownPixFmt; it is the table
// capability discovery consults to decide whether to warn-and-skip an
// ENUM_FMT entry.
var pixelFormatNames = map[PixFmt]string{
	PixelFmtRGB24:  "24-bit RGB 8-8-8",
	PixelFmtBGR24:  "24-bit BGR 8-8-8",
	PixelFmtGrey:   "8-bit Greyscale",
	PixelFmtYUYV:   "YUYV 4:2:2",
	PixelFmtYVYU:   "YVYU 4:2:2",
	PixelFmtUYVY:   "UYVY 4:2:2",
	PixelFmtNV12:   "YUV 4:2:0 (NV12)",
	PixelFmtYUV420: "YUV 4:2:0 planar",
	PixelFmtMJPEG:  "Motion-JPEG",
	PixelFmtJPEG:   "JFIF JPEG",
	PixelFmtH264:   "H.264",
	PixelFmtMPEG:   "MPEG-1/2/4",
}

// IsKnownPixFmt reports whether code names a pixel format this module
// recognises.
func IsKnownPixFmt(code PixFmt) bool {
	_, ok := pixelFormatNames[code]
	return ok
}

// PixFmtName returns a human-readable description of code, falling back
// to its four-character rendering when the format isn't one of the known
// constants above.
func PixFmtName(code PixFmt) string {
	if name, ok := pixelFormatNames[code]; ok {
		return name
	}
	return fmt.Sprintf("unknown (%s)", HumanStr(code))
}

// IsYUVEncoded reports whether code is one of the YUV pixel formats, packed
// or planar, this module recognises.
func IsYUVEncoded(code PixFmt) bool {
	switch code {
	case PixelFmtYUYV, PixelFmtYVYU, PixelFmtUYVY, PixelFmtNV12, PixelFmtYUV420:
		return true
	default:
		return false
	}
}
