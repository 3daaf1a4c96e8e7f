package v4l2

/*
#include <linux/videodev2.h>
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// Capability bitset flags (v4l2_capability.capabilities/device_caps).
// https://www.kernel.org/doc/html/latest/userspace-api/media/v4l/vidioc-querycap.html
const (
	CapVideoCapture       uint32 = C.V4L2_CAP_VIDEO_CAPTURE
	CapVideoOutput        uint32 = C.V4L2_CAP_VIDEO_OUTPUT
	CapVideoOverlay       uint32 = C.V4L2_CAP_VIDEO_OVERLAY
	CapVideoCaptureMPlane uint32 = C.V4L2_CAP_VIDEO_CAPTURE_MPLANE
	CapVideoOutputMPlane  uint32 = C.V4L2_CAP_VIDEO_OUTPUT_MPLANE
	CapTuner              uint32 = C.V4L2_CAP_TUNER
	CapAudio              uint32 = C.V4L2_CAP_AUDIO
	CapRadio              uint32 = C.V4L2_CAP_RADIO
	CapReadWrite          uint32 = C.V4L2_CAP_READWRITE
	CapAsyncIO            uint32 = C.V4L2_CAP_ASYNCIO
	CapStreaming          uint32 = C.V4L2_CAP_STREAMING
	CapDeviceCapabilities uint32 = C.V4L2_CAP_DEVICE_CAPS
)

// bufTypeCaps maps each streamable buffer type to the capability bit that
// indicates a device node supports it; used to derive the supported
// buffer types from device_capabilities during capability discovery.
var bufTypeCaps = map[BufType]uint32{
	BufTypeVideoCapture:       CapVideoCapture,
	BufTypeVideoCaptureMPlane: CapVideoCaptureMPlane,
	BufTypeVideoOutput:        CapVideoOutput,
	BufTypeVideoOutputMPlane:  CapVideoOutputMPlane,
	BufTypeVideoOverlay:       CapVideoOverlay,
}

// Capability (v4l2_capability) is the fixed device identification record
// and capability bitsets returned by VIDIOC_QUERYCAP.
type Capability struct {
	Driver             string
	Card               string
	BusInfo            string
	Version            uint32
	Capabilities       uint32
	DeviceCapabilities uint32
}

// GetCapability issues VIDIOC_QUERYCAP against fd.
func GetCapability(fd uintptr) (Capability, error) {
	var raw C.struct_v4l2_capability
	if err := send(fd, "VIDIOC_QUERYCAP", uintptr(C.VIDIOC_QUERYCAP), uintptr(unsafe.Pointer(&raw))); err != nil {
		return Capability{}, fmt.Errorf("v4l2: query capability: %w", err)
	}
	return Capability{
		Driver:             C.GoString((*C.char)(unsafe.Pointer(&raw.driver[0]))),
		Card:               C.GoString((*C.char)(unsafe.Pointer(&raw.card[0]))),
		BusInfo:            C.GoString((*C.char)(unsafe.Pointer(&raw.bus_info[0]))),
		Version:            uint32(raw.version),
		Capabilities:       uint32(raw.capabilities),
		DeviceCapabilities: uint32(raw.device_caps),
	}, nil
}

// Effective returns DeviceCapabilities when the driver populates it
// (modern drivers, flagged by CapDeviceCapabilities), otherwise the
// legacy combined Capabilities field.
func (c Capability) Effective() uint32 {
	if c.Capabilities&CapDeviceCapabilities != 0 {
		return c.DeviceCapabilities
	}
	return c.Capabilities
}

// Has reports whether the effective capability bitset contains flag.
func (c Capability) Has(flag uint32) bool {
	return c.Effective()&flag != 0
}

// SupportedBufTypes intersects the effective capability bitset with the
// set of streamable buffer types this module understands, preserving
// BufTypes order.
func (c Capability) SupportedBufTypes() []BufType {
	var result []BufType
	for _, bt := range BufTypes {
		if flag, ok := bufTypeCaps[bt]; ok && c.Has(flag) {
			result = append(result, bt)
		}
	}
	return result
}

// VersionInfo decodes the Version field into major/minor/patch.
func (c Capability) VersionInfo() VersionInfo {
	return DecodeVersion(c.Version)
}

func (c Capability) String() string {
	return fmt.Sprintf("driver: %s; card: %s; bus info: %s; version: %s",
		c.Driver, c.Card, c.BusInfo, c.VersionInfo())
}
