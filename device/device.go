package device

import (
	"context"
	"fmt"
	"sync"

	"github.com/kestrelcam/v4lcap/v4l2"
	sys "golang.org/x/sys/unix"
)

// Device represents one V4L2 character device, open or closed. Info and
// the control registry are probed once, on the first successful Open, and
// survive later Close/Open cycles rather than being re-queried against
// the kernel. At every observable point, Closed() is true exactly when
// the device holds no open fd.
type Device struct {
	path   string
	fd     uintptr
	closed bool

	info       Info
	infoProbed bool
	registry   *ControlRegistry
	bufType    v4l2.BufType

	mu       sync.Mutex
	refCount int
	session  *Session
	io       IO
	blocking bool
}

// Option configures a Device before it is first opened.
type Option func(*Device)

// WithBlocking opens the descriptor without O_NONBLOCK, so DQBUF blocks
// in the kernel instead of requiring a readiness wait. Readers built on
// such a device default to the blocking IO policy.
func WithBlocking() Option {
	return func(d *Device) { d.blocking = true }
}

// WithIO injects the readiness policy readers built from this Device use,
// overriding the default derived from the blocking mode.
func WithIO(io IO) Option {
	return func(d *Device) { d.io = io }
}

// New constructs a Device bound to path without opening it. The returned
// value reports Closed() true until Open (or Acquire) is called.
func New(path string, opts ...Option) *Device {
	d := &Device{path: path, closed: true}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Open opens path, probes its capabilities/formats/controls, and returns a
// ready-to-use Device. The device is held open (refCount 1); call Close
// when done, or use Acquire for nested, reference-counted access.
func Open(path string, opts ...Option) (*Device, error) {
	d := New(path, opts...)
	if err := d.Open(); err != nil {
		return nil, err
	}
	return d, nil
}

// FromID opens /dev/video<n>.
func FromID(n int, opts ...Option) (*Device, error) {
	return Open(fmt.Sprintf("/dev/video%d", n), opts...)
}

// Open opens d's fd, bumping the re-entrant reference count if it is
// already open. The first Open for a given Device value probes Info and
// builds the control registry; a later Open following a Close reuses both,
// rebinding the registry to the newly opened fd instead of re-probing.
func (d *Device) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.closed {
		d.refCount++
		return nil
	}

	flags := sys.O_RDWR
	if !d.blocking {
		flags |= sys.O_NONBLOCK
	}
	fd, err := v4l2.OpenDevice(d.path, flags, 0)
	if err != nil {
		return fmt.Errorf("device: open %s: %w", d.path, err)
	}

	if !d.infoProbed {
		info, err := probeInfo(fd)
		if err != nil {
			v4l2.CloseDevice(fd)
			return fmt.Errorf("device: open %s: probe: %w", d.path, err)
		}
		registry, err := newControlRegistry(fd, info.ControlDescs)
		if err != nil {
			v4l2.CloseDevice(fd)
			return fmt.Errorf("device: open %s: control registry: %w", d.path, err)
		}
		d.info = info
		d.registry = registry
		d.bufType = pickBufType(info)
		d.infoProbed = true
	} else {
		d.registry.rebind(fd)
	}

	d.fd = fd
	d.closed = false
	d.refCount = 1
	if d.io == nil {
		if d.blocking {
			d.io = blockingIO{}
		} else {
			d.io = newStdIO()
		}
	}
	return nil
}

// pickBufType chooses the buffer type a fresh Device streams by default:
// VIDEO_CAPTURE if the device supports it, else its first reported type.
func pickBufType(info Info) v4l2.BufType {
	bufType := v4l2.BufTypeVideoCapture
	if len(info.BufTypes) > 0 {
		bufType = info.BufTypes[0]
		for _, bt := range info.BufTypes {
			if bt == v4l2.BufTypeVideoCapture {
				bufType = bt
				break
			}
		}
	}
	return bufType
}

// Path returns the file system path the device was opened from.
func (d *Device) Path() string { return d.path }

// Fd returns the device's open file descriptor, or 0 if Closed.
func (d *Device) Fd() uintptr { return d.fd }

// Closed reports whether the device currently holds no open fd.
func (d *Device) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Info returns the capability/format/control record probed at open time.
func (d *Device) Info() Info { return d.info }

// Controls returns the device's control registry.
func (d *Device) Controls() *ControlRegistry { return d.registry }

// BufType returns the buffer type this Device streams.
func (d *Device) BufType() v4l2.BufType { return d.bufType }

// SetIO overrides the readiness policy readers built from this Device
// use. Without an override, Open picks the stdlib select policy
// (NewStdIO) for a non-blocking descriptor and NewBlockingIO for one
// opened WithBlocking; event-loop callers that need prompt cancellation
// inject NewContextIO.
func (d *Device) SetIO(io IO) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.io = io
}

// IO returns the Device's current readiness policy.
func (d *Device) IO() IO {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.io
}

// Acquire opens the device if it is currently closed, otherwise bumps its
// re-entrant reference count, and returns a release function. The
// underlying fd is only closed once every Acquire (including the one
// implied by Open) has had its release called; nested callers that merely
// want to borrow an already-open Device call Acquire/release in pairs
// instead of Open/Close.
func (d *Device) Acquire() (release func() error, err error) {
	if err := d.Open(); err != nil {
		return nil, err
	}

	var once sync.Once
	return func() error {
		var releaseErr error
		once.Do(func() { releaseErr = d.release() })
		return releaseErr
	}, nil
}

func (d *Device) release() error {
	d.mu.Lock()
	d.refCount--
	closeNow := d.refCount <= 0
	d.mu.Unlock()
	if !closeNow {
		return nil
	}
	return d.Close()
}

// Close tears down any active session, closes the device's fd, and marks
// the device Closed, regardless of outstanding Acquire calls. Info and the
// control registry survive the close, ready for a later Open to rebind.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	session := d.session
	d.session = nil
	fd := d.fd
	d.fd = 0
	d.closed = true
	d.refCount = 0
	d.mu.Unlock()

	if session != nil {
		if err := session.FreeBuffers(); err != nil {
			return fmt.Errorf("device: close: %w", err)
		}
	}
	return v4l2.CloseDevice(fd)
}

// requireOpen fails with ErrPrecondition when the device holds no open
// fd, so descriptor-requiring operations never reach the kernel with a
// stale or zero descriptor.
func (d *Device) requireOpen(op string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return kindErr(ErrPrecondition, nil, "device: %s: device closed", op)
	}
	return nil
}

// GetFormat returns the stream's current pixel format.
func (d *Device) GetFormat() (v4l2.PixFormat, error) {
	if err := d.requireOpen("get format"); err != nil {
		return v4l2.PixFormat{}, err
	}
	return v4l2.GetFormat(d.fd, d.bufType)
}

// SetFormat requests width/height/pixelFormat for the stream; the kernel
// may adjust any of these and the returned PixFormat reflects what was
// actually accepted.
func (d *Device) SetFormat(width, height uint32, pixelFormat v4l2.PixFmt) (v4l2.PixFormat, error) {
	if err := d.requireOpen("set format"); err != nil {
		return v4l2.PixFormat{}, err
	}
	return v4l2.SetFormat(d.fd, d.bufType, width, height, pixelFormat)
}

// GetFPS returns the stream's current frame rate.
func (d *Device) GetFPS() (v4l2.Fract, error) {
	if err := d.requireOpen("get fps"); err != nil {
		return v4l2.Fract{}, err
	}
	return v4l2.GetFPS(d.fd, d.bufType)
}

// SetFPS requests a new frame rate for the stream.
func (d *Device) SetFPS(fps v4l2.Fract) error {
	if err := d.requireOpen("set fps"); err != nil {
		return err
	}
	return v4l2.SetFPS(d.fd, d.bufType, fps)
}

// GetSelection reads the rectangle for target.
func (d *Device) GetSelection(target v4l2.SelectionTarget) (v4l2.Rect, error) {
	if err := d.requireOpen("get selection"); err != nil {
		return v4l2.Rect{}, err
	}
	return v4l2.GetSelection(d.fd, d.bufType, target)
}

// SetSelection writes the rectangle for target, returning what the driver
// actually accepted.
func (d *Device) SetSelection(target v4l2.SelectionTarget, r v4l2.Rect) (v4l2.Rect, error) {
	if err := d.requireOpen("set selection"); err != nil {
		return v4l2.Rect{}, err
	}
	return v4l2.SetSelection(d.fd, d.bufType, target, r)
}

// GetPriority returns this file handle's open/set priority.
func (d *Device) GetPriority() (v4l2.Priority, error) {
	if err := d.requireOpen("get priority"); err != nil {
		return 0, err
	}
	return v4l2.GetPriority(d.fd)
}

// SetPriority sets this file handle's priority.
func (d *Device) SetPriority(p v4l2.Priority) error {
	if err := d.requireOpen("set priority"); err != nil {
		return err
	}
	return v4l2.SetPriority(d.fd, p)
}

// SubscribeEvent subscribes this file handle to kind/id events.
func (d *Device) SubscribeEvent(kind v4l2.EventKind, id uint32) error {
	if err := d.requireOpen("subscribe event"); err != nil {
		return err
	}
	return v4l2.SubscribeEvent(d.fd, kind, id)
}

// UnsubscribeEvent cancels a prior SubscribeEvent.
func (d *Device) UnsubscribeEvent(kind v4l2.EventKind, id uint32) error {
	if err := d.requireOpen("unsubscribe event"); err != nil {
		return err
	}
	return v4l2.UnsubscribeEvent(d.fd, kind, id)
}

// DequeueEvent issues a single VIDIOC_DQEVENT without waiting through the
// device's IO policy; on a non-blocking descriptor with no pending event
// it fails with v4l2.ErrorTemporary. Events waits for readiness first.
func (d *Device) DequeueEvent() (v4l2.Event, error) {
	if err := d.requireOpen("dequeue event"); err != nil {
		return v4l2.Event{}, err
	}
	return v4l2.DequeueEvent(d.fd)
}

// Events starts an EventReader over this device's fd using its readiness
// policy. Callers subscribe to the event kinds they want first.
func (d *Device) Events(ctx context.Context, opts ...ReaderOption) (*EventReader, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, kindErr(ErrPrecondition, nil, "device: events: device closed")
	}
	return NewEventReader(ctx, d.fd, d.io, opts...), nil
}

// StartSession allocates n buffers, queues them, and starts streaming.
// It returns the Session so callers can build a FrameReader over it; only
// one Session may be active on a Device at a time.
func (d *Device) StartSession(n int) (*Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, kindErr(ErrPrecondition, nil, "device: start session: device closed")
	}
	if d.session != nil {
		return nil, kindErr(ErrPrecondition, nil, "device: session already active")
	}

	format, err := v4l2.GetFormat(d.fd, d.bufType)
	if err != nil {
		return nil, fmt.Errorf("device: start session: %w", err)
	}

	s := newSession(d.fd, d.bufType, format, d.io, d.blocking)
	if _, err := s.CreateBuffers(n); err != nil {
		return nil, fmt.Errorf("device: start session: %w", err)
	}
	if err := s.EnqueueBuffers(); err != nil {
		s.FreeBuffers()
		return nil, fmt.Errorf("device: start session: %w", err)
	}
	if err := s.StreamOn(); err != nil {
		s.FreeBuffers()
		return nil, fmt.Errorf("device: start session: %w", err)
	}

	d.session = s
	return s, nil
}

// StopSession tears down the active session, if any.
func (d *Device) StopSession() error {
	d.mu.Lock()
	s := d.session
	d.session = nil
	d.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.FreeBuffers()
}

// Iterate is the default capture convenience: it starts a two-buffer
// session and wraps it in a readiness-gated FrameReader.
func (d *Device) Iterate(ctx context.Context) (FrameReader, error) {
	session, err := d.StartSession(2)
	if err != nil {
		return nil, err
	}
	return newReadyReader(session, d.io), nil
}

// Write, for output devices, queues data into the next available buffer of
// the active session and returns once the kernel has accepted it. It does
// not itself trigger STREAMON; callers drive that through StartSession.
func (d *Device) Write(ctx context.Context, data []byte) error {
	d.mu.Lock()
	closed := d.closed
	session := d.session
	d.mu.Unlock()
	if closed {
		return kindErr(ErrPrecondition, nil, "device: write: device closed")
	}
	if session == nil {
		return kindErr(ErrPrecondition, nil, "device: write: no active session")
	}
	return session.writeNext(data)
}
