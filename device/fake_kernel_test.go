package device

import (
	"testing"

	"github.com/kestrelcam/v4lcap/v4l2"
	"github.com/kestrelcam/v4lcap/v4l2/v4l2test"
)

// newMockKernel builds the fixture the S1-S6 scenarios describe: driver
// "mock", card "mock camera", bus "mock:usb", version 5.4.12, a
// VIDEO_CAPTURE-only node streaming 640x480 RGB24 with a single
// brightness control.
func newMockKernel() *v4l2test.FakeKernel {
	k := v4l2test.NewFakeKernel()
	k.Driver = "mock"
	k.Card = "mock camera"
	k.BusInfo = "mock:usb"
	k.Version = 5<<16 | 4<<8 | 12
	k.Caps = v4l2.CapVideoCapture | v4l2.CapStreaming | v4l2.CapDeviceCapabilities
	k.Sequence = 123

	k.Width, k.Height = 640, 480
	k.PixelFormat = v4l2.PixelFmtRGB24
	k.BytesPerLine = 640 * 3
	k.SizeImage = 640 * 480 * 3

	k.Formats[v4l2.BufTypeVideoCapture] = []v4l2test.FormatFixture{
		{PixelFormat: v4l2.PixelFmtRGB24, Description: "24-bit RGB 8-8-8"},
	}
	k.FrameSizes[v4l2.PixelFmtRGB24] = []v4l2test.FrameSizeFixture{
		{Width: 640, Height: 480},
	}

	k.Controls = []*v4l2test.ControlFixture{
		{
			ID:      0x00980900,
			Name:    "Brightness",
			Class:   v4l2.CtrlClassUser,
			Type:    v4l2.CtrlTypeInteger,
			Minimum: -64,
			Maximum: 64,
			Step:    1,
			Default: 0,
			Value:   0,
		},
	}
	return k
}

// installFakeKernel wires k's Ioctl/Mmap/Munmap into the v4l2 package for
// the duration of the calling test.
func installFakeKernel(t *testing.T, k *v4l2test.FakeKernel) {
	t.Helper()
	resetIoctl := v4l2.SetIoctlFunc(k.Ioctl)
	resetMmap := v4l2.SetMmapFunc(k.MmapFunc)
	resetMunmap := v4l2.SetMunmapFunc(k.MunmapFunc)
	resetClose := v4l2.SetCloseFunc(k.CloseFunc)
	t.Cleanup(func() {
		resetIoctl()
		resetMmap()
		resetMunmap()
		resetClose()
	})
}

// openFake builds a Device bound to fd 99 (never actually used by the
// fake backend) whose Info/ControlRegistry were probed against k.
func openFake(t *testing.T, k *v4l2test.FakeKernel) *Device {
	t.Helper()
	installFakeKernel(t, k)

	const fakeFd = uintptr(99)
	info, err := probeInfo(fakeFd)
	if err != nil {
		t.Fatalf("probeInfo: %v", err)
	}
	registry, err := newControlRegistry(fakeFd, info.ControlDescs)
	if err != nil {
		t.Fatalf("newControlRegistry: %v", err)
	}
	return &Device{
		path:     "/dev/video39",
		fd:       fakeFd,
		info:     info,
		registry: registry,
		bufType:  v4l2.BufTypeVideoCapture,
		refCount: 1,
		io:       blockingIO{},
	}
}
