package device

import (
	"github.com/kestrelcam/v4lcap/internal/logging"
	"github.com/kestrelcam/v4lcap/v4l2"
	"go.uber.org/zap"
)

// Info is the immutable device record populated once, on first open.
// Later opens of the same handle never re-probe it.
type Info struct {
	Driver  string
	Card    string
	BusInfo string
	Version v4l2.VersionInfo

	Capabilities       uint32
	DeviceCapabilities uint32
	BufTypes           []v4l2.BufType

	Formats      map[v4l2.BufType][]v4l2.ImageFormat
	FrameTypes   []FrameType
	CropCaps     map[v4l2.BufType]v4l2.CropCapability
	Inputs       []v4l2.InputInfo
	ControlDescs []v4l2.ControlDescriptor

	// LegacyControls reports whether every control this device exposes
	// can be read/written through the old 32-bit VIDIOC_G_CTRL/S_CTRL
	// ioctls. It is false as soon as one control needs the extended
	// VIDIOC_G/S_EXT_CTRLS path (INTEGER64, U8/U16/U32, STRING, BITMASK,
	// or any other compound type).
	LegacyControls bool
}

// legacyControlType reports whether ctrlType is one of the control kinds
// the old 32-bit VIDIOC_G_CTRL/S_CTRL ioctls can carry.
func legacyControlType(ctrlType v4l2.CtrlType) bool {
	switch ctrlType {
	case v4l2.CtrlTypeInteger, v4l2.CtrlTypeBoolean, v4l2.CtrlTypeMenu,
		v4l2.CtrlTypeIntegerMenu, v4l2.CtrlTypeButton:
		return true
	default:
		return false
	}
}

// FrameType pairs a pixel format and frame size with the frame-interval
// bounds the driver supports at that size.
type FrameType struct {
	BufType     v4l2.BufType
	PixelFormat v4l2.PixFmt
	Width       uint32
	Height      uint32
	MinFPS      v4l2.Fract
	MaxFPS      v4l2.Fract
	StepFPS     v4l2.Fract
}

// probeInfo runs the full capability discovery pass against fd and
// returns the resulting Info: QUERYCAP, supported buffer types, formats,
// frame sizes and intervals, crop capabilities, inputs, and controls.
func probeInfo(fd uintptr) (Info, error) {
	cap, err := v4l2.GetCapability(fd)
	if err != nil {
		return Info{}, err
	}

	info := Info{
		Driver:             cap.Driver,
		Card:               cap.Card,
		BusInfo:            cap.BusInfo,
		Version:            cap.VersionInfo(),
		Capabilities:       cap.Capabilities,
		DeviceCapabilities: cap.Effective(),
		BufTypes:           cap.SupportedBufTypes(),
		Formats:            map[v4l2.BufType][]v4l2.ImageFormat{},
		CropCaps:           map[v4l2.BufType]v4l2.CropCapability{},
	}

	streamTypes := map[v4l2.BufType]bool{}
	for _, bt := range info.BufTypes {
		streamTypes[bt] = true
	}

	// Formats per supported stream type, skipping unknown FOURCCs.
	for _, bt := range info.BufTypes {
		formats, err := v4l2.EnumFormats(fd, bt)
		if err != nil && len(formats) == 0 {
			continue
		}
		var kept []v4l2.ImageFormat
		for _, f := range formats {
			if !v4l2.IsKnownPixFmt(f.PixelFormat) {
				logging.Logger.Warn("unknown pixel format, skipping",
					zap.String("fourcc", v4l2.HumanStr(f.PixelFormat)))
				continue
			}
			kept = append(kept, f)
		}
		if len(kept) > 0 {
			info.Formats[bt] = kept
		}

		// Frame sizes and intervals for each known format.
		for _, f := range kept {
			sizes, err := v4l2.EnumFrameSizes(fd, f.PixelFormat)
			if err != nil {
				continue
			}
			for _, sz := range sizes {
				if sz.Type != v4l2.FrameSizeTypeDiscrete {
					info.FrameTypes = append(info.FrameTypes, FrameType{
						BufType: bt, PixelFormat: f.PixelFormat,
						Width: sz.MaxWidth, Height: sz.MaxHeight,
					})
					continue
				}
				intervals, err := v4l2.EnumFrameIntervals(fd, f.PixelFormat, sz.MinWidth, sz.MinHeight)
				if err != nil || len(intervals) == 0 {
					info.FrameTypes = append(info.FrameTypes, FrameType{
						BufType: bt, PixelFormat: f.PixelFormat,
						Width: sz.MinWidth, Height: sz.MinHeight,
					})
					continue
				}
				for _, iv := range intervals {
					info.FrameTypes = append(info.FrameTypes, FrameType{
						BufType: bt, PixelFormat: f.PixelFormat,
						Width: sz.MinWidth, Height: sz.MinHeight,
						MinFPS: iv.Min, MaxFPS: iv.Max, StepFPS: iv.Step,
					})
				}
			}
		}
	}

	// Crop capabilities, silently skipped on failure.
	for _, bt := range []v4l2.BufType{v4l2.BufTypeVideoCapture, v4l2.BufTypeVideoOutput, v4l2.BufTypeVideoOverlay} {
		if !streamTypes[bt] {
			continue
		}
		if cc, err := v4l2.GetCropCapability(fd, bt); err == nil {
			info.CropCaps[bt] = cc
		}
	}

	// Inputs.
	if inputs, err := v4l2.EnumInputs(fd); err == nil {
		info.Inputs = inputs
	}

	// Controls.
	descs, err := v4l2.EnumControls(fd)
	if err != nil {
		return Info{}, err
	}
	info.ControlDescs = descs
	info.LegacyControls = true
	for _, d := range descs {
		if !legacyControlType(d.Type) {
			info.LegacyControls = false
			break
		}
	}

	return info, nil
}
