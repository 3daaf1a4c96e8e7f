package device

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kestrelcam/v4lcap/v4l2"
	"github.com/kestrelcam/v4lcap/v4l2/v4l2test"
)

// S1: capability probe reports the fixture's identity and version.
func TestScenarioCapabilityProbe(t *testing.T) {
	k := newMockKernel()
	dev := openFake(t, k)

	info := dev.Info()
	if info.Driver != "mock" || info.Card != "mock camera" || info.BusInfo != "mock:usb" {
		t.Fatalf("unexpected identity: %+v", info)
	}
	if got := info.Version.String(); got != "5.4.12" {
		t.Fatalf("version = %s, want 5.4.12", got)
	}
}

// S1 (lifecycle): a Device is constructed closed, and Close clears its fd
// and reports Closed() true again afterward.
func TestScenarioCapabilityProbeLifecycle(t *testing.T) {
	d := New("/dev/video0")
	if !d.Closed() {
		t.Fatal("New() device reports Closed() false before Open")
	}
	if d.Fd() != 0 {
		t.Fatalf("Fd() = %d before Open, want 0", d.Fd())
	}

	k := newMockKernel()
	dev := openFake(t, k)
	if dev.Closed() {
		t.Fatal("device reports Closed() true right after construction")
	}
	if err := dev.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !dev.Closed() {
		t.Fatal("device reports Closed() false after Close")
	}
	if dev.Fd() != 0 {
		t.Fatalf("Fd() = %d after Close, want 0", dev.Fd())
	}
}

// S2: device discovery over a directory of fake /dev nodes yields the
// video* entries, sorted, and Devices built from them carry those paths.
func TestScenarioDeviceDiscovery(t *testing.T) {
	dir := t.TempDir()
	prev := devRoot
	devRoot = dir
	t.Cleanup(func() { devRoot = prev })

	for _, name := range []string{"video55", "video0", "media0", "notadevice"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	paths, err := Devices()
	if err != nil {
		t.Fatalf("Devices: %v", err)
	}
	want := []string{filepath.Join(dir, "video0"), filepath.Join(dir, "video55")}
	if len(paths) != len(want) {
		t.Fatalf("Devices() = %v, want %v", paths, want)
	}
	for i, path := range paths {
		if path != want[i] {
			t.Fatalf("Devices()[%d] = %s, want %s", i, path, want[i])
		}
		if got := New(path).Path(); got != path {
			t.Fatalf("New(%s).Path() = %s", path, got)
		}
	}

	for path, wantN := range map[string]int{"/dev/video0": 0, "/dev/video7": 7, "/dev/video999": 999} {
		n, err := DeviceNumber(path)
		if err != nil || n != wantN {
			t.Fatalf("DeviceNumber(%s) = %d, %v; want %d, nil", path, n, err, wantN)
		}
	}
	if _, err := DeviceNumber("/dev/nonsense"); err == nil {
		t.Fatal("expected error for unrecognized device path")
	}
}

// S3: a captured frame matches the fixture's format, size, sequence, and
// timestamp exactly.
func TestScenarioCaptureFrame(t *testing.T) {
	k := newMockKernel()
	dev := openFake(t, k)

	session, err := dev.StartSession(4)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	defer session.Close()

	frame, err := session.RawRead()
	if err != nil {
		t.Fatalf("RawRead: %v", err)
	}

	if frame.Index != 0 {
		t.Errorf("index = %d, want 0", frame.Index)
	}
	if frame.Sequence != 123 {
		t.Errorf("sequence = %d, want 123", frame.Sequence)
	}
	if frame.BufType != v4l2.BufTypeVideoCapture {
		t.Errorf("buffer type = %d, want VIDEO_CAPTURE", frame.BufType)
	}
	if frame.Timestamp != 123.456789 {
		t.Errorf("timestamp = %v, want 123.456789", frame.Timestamp)
	}
	if len(frame.Data) != 921600 {
		t.Errorf("len(data) = %d, want 921600", len(frame.Data))
	}
	if frame.Format.PixelFormat != v4l2.PixelFmtRGB24 {
		t.Errorf("pixel format = %#x, want RGB24", frame.Format.PixelFormat)
	}
	for i, b := range frame.Data {
		if b != 0x01 {
			t.Fatalf("data[%d] = %#x, want 0x01", i, b)
		}
	}

	// Read dispatches through the session's IO policy and yields the next
	// frame in kernel sequence order.
	next, err := session.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if next.Sequence != frame.Sequence+1 {
		t.Fatalf("sequence = %d after %d, want consecutive", next.Sequence, frame.Sequence)
	}
}

// S4: a format change round-trips through SetFormat/GetFormat.
func TestScenarioFormatEcho(t *testing.T) {
	k := newMockKernel()
	k.Formats[v4l2.BufTypeVideoCapture] = append(k.Formats[v4l2.BufTypeVideoCapture],
		v4l2test.FormatFixture{PixelFormat: v4l2.PixelFmtMJPEG, Description: "Motion-JPEG"})
	dev := openFake(t, k)

	got, err := dev.SetFormat(640, 480, v4l2.PixelFmtMJPEG)
	if err != nil {
		t.Fatalf("SetFormat: %v", err)
	}
	if got.PixelFormat != v4l2.PixelFmtMJPEG {
		t.Fatalf("pixel format = %#x, want MJPG", got.PixelFormat)
	}

	readBack, err := dev.GetFormat()
	if err != nil {
		t.Fatalf("GetFormat: %v", err)
	}
	if readBack.PixelFormat != v4l2.PixelFmtMJPEG || readBack.Width != 640 || readBack.Height != 480 {
		t.Fatalf("GetFormat = %+v, want 640x480 MJPG", readBack)
	}
}

// S5: the brightness control reports its declared range and honors the
// clipping policy toggle.
func TestScenarioBrightnessControl(t *testing.T) {
	k := newMockKernel()
	dev := openFake(t, k)

	ctrl, err := dev.Controls().ByName("brightness")
	if err != nil {
		t.Fatalf("ByName(brightness): %v", err)
	}
	brightness, ok := ctrl.(*IntegerControl)
	if !ok {
		t.Fatalf("brightness control is %T, want *IntegerControl", ctrl)
	}
	if brightness.ID() != 0x00980900 {
		t.Errorf("id = %#x, want 0x00980900", brightness.ID())
	}
	if brightness.Minimum() != -64 || brightness.Maximum() != 64 || brightness.Step() != 1 || brightness.Default() != 0 {
		t.Fatalf("range = [%d,%d] step %d default %d, want [-64,64] step 1 default 0",
			brightness.Minimum(), brightness.Maximum(), brightness.Step(), brightness.Default())
	}

	// Clipping enabled (default): out-of-range values clamp to the bound.
	if err := brightness.Set(1000); err != nil {
		t.Fatalf("Set(1000) with clipping: %v", err)
	}
	v, err := brightness.Get()
	if err != nil || v != 64 {
		t.Fatalf("Get() after clipped Set = %d, %v; want 64, nil", v, err)
	}

	// Clipping disabled: the same write is rejected.
	dev.Controls().SetClipping(false)
	if err := brightness.Set(1000); err == nil {
		t.Fatal("expected ErrOutOfRange with clipping disabled")
	}
}

// S6: save -> zero -> load -> apply(cycles=2) -> verify round trip.
func TestScenarioConfigRoundTrip(t *testing.T) {
	k := newMockKernel()
	dev := openFake(t, k)

	ctrl, err := dev.Controls().ByName("brightness")
	if err != nil {
		t.Fatal(err)
	}
	brightness := ctrl.(*IntegerControl)
	if err := brightness.Set(17); err != nil {
		t.Fatal(err)
	}

	cfg, err := Acquire(dev)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	path := filepath.Join(t.TempDir(), "device.conf")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := brightness.Set(0); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := loaded.Validate(dev, true); err != nil {
		t.Fatalf("Validate(pedantic): %v", err)
	}
	if err := loaded.Apply(dev, 2); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := loaded.Verify(dev); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	got, err := brightness.Get()
	if err != nil || got != 17 {
		t.Fatalf("brightness after round trip = %d, %v; want 17, nil", got, err)
	}
}

// Every descriptor-requiring operation fails with ErrPrecondition on a
// device that has never been opened.
func TestClosedDeviceOperationsFail(t *testing.T) {
	d := New("/dev/video0")

	checks := map[string]func() error{
		"GetFormat": func() error { _, err := d.GetFormat(); return err },
		"SetFormat": func() error { _, err := d.SetFormat(640, 480, v4l2.PixelFmtRGB24); return err },
		"GetFPS":    func() error { _, err := d.GetFPS(); return err },
		"SetFPS":    func() error { return d.SetFPS(v4l2.Fract{Numerator: 1, Denominator: 30}) },
		"GetSelection": func() error {
			_, err := d.GetSelection(v4l2.SelTargetCrop)
			return err
		},
		"SetSelection": func() error {
			_, err := d.SetSelection(v4l2.SelTargetCrop, v4l2.Rect{Width: 640, Height: 480})
			return err
		},
		"GetPriority":      func() error { _, err := d.GetPriority(); return err },
		"SetPriority":      func() error { return d.SetPriority(v4l2.PriorityInteractive) },
		"SubscribeEvent":   func() error { return d.SubscribeEvent(v4l2.EventCtrl, 0) },
		"UnsubscribeEvent": func() error { return d.UnsubscribeEvent(v4l2.EventCtrl, 0) },
		"DequeueEvent":     func() error { _, err := d.DequeueEvent(); return err },
		"StartSession":     func() error { _, err := d.StartSession(2); return err },
		"Write":            func() error { return d.Write(context.Background(), []byte{0}) },
	}
	for name, op := range checks {
		if err := op(); err == nil || !isKind(err, ErrPrecondition) {
			t.Errorf("%s on closed device = %v, want ErrPrecondition", name, err)
		}
	}
}

// Repeated probes of an unchanging device produce equal Info records.
func TestInfoProbeDeterministic(t *testing.T) {
	k := newMockKernel()
	installFakeKernel(t, k)

	first, err := probeInfo(99)
	if err != nil {
		t.Fatalf("probeInfo: %v", err)
	}
	second, err := probeInfo(99)
	if err != nil {
		t.Fatalf("probeInfo: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("probe not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

// Lifecycle invariant: stopping a Device's session releases its buffers and
// the fake kernel's buffer/queue accounting returns to zero.
func TestLifecycleBufferAccounting(t *testing.T) {
	k := newMockKernel()
	dev := openFake(t, k)

	session, err := dev.StartSession(4)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := session.RawRead(); err != nil {
			t.Fatalf("RawRead %d: %v", i, err)
		}
	}
	if err := dev.StopSession(); err != nil {
		t.Fatalf("StopSession: %v", err)
	}
	if n := k.BufferCount(); n != 0 {
		t.Fatalf("kernel still holds %d buffers after StopSession", n)
	}
}

// Acquire/release nesting only tears the device down once the outermost
// pair has released.
func TestAcquireReentrant(t *testing.T) {
	k := newMockKernel()
	dev := openFake(t, k)

	releaseOuter, err := dev.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	releaseInner, err := dev.Acquire()
	if err != nil {
		t.Fatal(err)
	}

	if err := releaseInner(); err != nil {
		t.Fatalf("release inner: %v", err)
	}
	// The outer Acquire plus Open's own implicit refCount of 1 are both
	// still outstanding, so the fd must still be open.
	if dev.Fd() == 0 {
		t.Fatal("device fd unexpectedly zero after inner release")
	}
	if err := releaseOuter(); err != nil {
		t.Fatalf("release outer: %v", err)
	}
}

// Iterate wraps a two-buffer session in a readiness-gated FrameReader and
// yields frames whose sequence advances monotonically.
func TestIterate(t *testing.T) {
	k := newMockKernel()
	dev := openFake(t, k)

	reader, err := dev.Iterate(context.Background())
	if err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	defer reader.Close()

	first, err := reader.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	second, err := reader.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if second.Sequence <= first.Sequence {
		t.Fatalf("sequence did not advance: %d -> %d", first.Sequence, second.Sequence)
	}
}
