package device

import (
	"context"
	"errors"
	"sync"

	"github.com/kestrelcam/v4lcap/internal/logging"
	"github.com/kestrelcam/v4lcap/v4l2"
	"go.uber.org/zap"
)

// FrameReader is the common interface the three I/O policies satisfy.
// Read blocks until a frame is available, ctx is cancelled, or the
// underlying session fails.
type FrameReader interface {
	Read(ctx context.Context) (Frame, error)
	Close() error
}

// NewBlockingReader returns the reader policy for descriptors opened in
// blocking mode: each Read calls straight into DQBUF and relies on the
// kernel to block until a buffer is ready.
func NewBlockingReader(s *Session) FrameReader {
	return newBlockingReader(s)
}

// NewReadyReader returns the readiness-gated reader policy: each Read
// first waits for the fd to become readable through io, then dequeues.
func NewReadyReader(s *Session, io IO) FrameReader {
	return newReadyReader(s, io)
}

// NewAsyncReader returns the event-loop reader policy: a goroutine
// continuously dequeues frames into a bounded queue (depth 1 unless
// overridden with WithQueueDepth) and Read pulls from that queue. On
// overflow the oldest undelivered frame is dropped and a warning logged.
// Close stops the goroutine and waits for any in-flight dequeue to be
// re-queued.
func NewAsyncReader(ctx context.Context, s *Session, io IO, opts ...ReaderOption) FrameReader {
	return newAsyncReader(ctx, s, io, opts...)
}

// blockingReader calls Session.RawRead directly; it relies on the kernel
// to block in DQBUF and does not itself honor ctx cancellation beyond a
// check before each read.
type blockingReader struct {
	session *Session
}

func newBlockingReader(s *Session) *blockingReader {
	return &blockingReader{session: s}
}

func (r *blockingReader) Read(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	return r.session.RawRead()
}

func (r *blockingReader) Close() error { return nil }

// readyReader gates RawRead behind an IO.Select wait so ctx cancellation
// is observed between frames even on drivers whose DQBUF blocks forever.
type readyReader struct {
	session *Session
	io      IO
}

func newReadyReader(s *Session, io IO) *readyReader {
	return &readyReader{session: s, io: io}
}

func (r *readyReader) Read(ctx context.Context) (Frame, error) {
	for {
		if err := r.io.Select(ctx, r.session.Fd()); err != nil {
			return Frame{}, err
		}
		frame, err := r.session.RawRead()
		if errors.Is(err, v4l2.ErrorTemporary) {
			// A readiness edge can race another consumer of the fd;
			// wait again rather than surfacing EAGAIN.
			continue
		}
		return frame, err
	}
}

func (r *readyReader) Close() error { return nil }

// ReaderOption configures the bounded queue of NewAsyncReader and
// NewEventReader.
type ReaderOption func(*readerConfig)

type readerConfig struct {
	queueDepth int
}

// WithQueueDepth overrides the default bounded-queue depth for
// NewAsyncReader (default 1) or NewEventReader (default 100).
func WithQueueDepth(n int) ReaderOption {
	return func(c *readerConfig) { c.queueDepth = n }
}

// asyncReader owns a goroutine that continuously grabs frames from the
// session and pushes them onto a bounded channel, dropping the oldest
// queued frame (never the newest) on overflow.
type asyncReader struct {
	session *Session
	io      IO

	frames chan Frame
	errs   chan error

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newAsyncReader(ctx context.Context, s *Session, io IO, opts ...ReaderOption) *asyncReader {
	cfg := readerConfig{queueDepth: 1}
	for _, o := range opts {
		o(&cfg)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r := &asyncReader{
		session: s,
		io:      io,
		frames:  make(chan Frame, cfg.queueDepth),
		errs:    make(chan error, 1),
		cancel:  cancel,
	}
	r.wg.Add(1)
	go r.loop(loopCtx)
	return r
}

func (r *asyncReader) loop(ctx context.Context) {
	defer r.wg.Done()
	for {
		if err := r.io.Select(ctx, r.session.Fd()); err != nil {
			select {
			case r.errs <- err:
			default:
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		frame, err := r.session.RawRead()
		if errors.Is(err, v4l2.ErrorTemporary) {
			continue
		}
		if err != nil {
			select {
			case r.errs <- err:
			default:
			}
			return
		}

		select {
		case r.frames <- frame:
		default:
			select {
			case dropped := <-r.frames:
				logging.Logger.Warn("missed frame", zap.Uint32("sequence", dropped.Sequence))
			default:
			}
			select {
			case r.frames <- frame:
			default:
			}
		}
	}
}

func (r *asyncReader) Read(ctx context.Context) (Frame, error) {
	// Prefer a queued frame over a pending loop error so frames produced
	// before a failure are still delivered in order.
	select {
	case f := <-r.frames:
		return f, nil
	default:
	}
	select {
	case f := <-r.frames:
		return f, nil
	case err := <-r.errs:
		return Frame{}, err
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

func (r *asyncReader) Close() error {
	r.cancel()
	r.wg.Wait()
	return nil
}

// EventReader is the event-channel analogue of the async frame reader: a
// goroutine waits for exception readiness on the device fd and dequeues
// v4l2.Event records into a bounded queue (default depth 100, much larger
// than the frame reader's since events are rare and cheap). On overflow
// the oldest undelivered event is dropped.
type EventReader struct {
	fd     uintptr
	io     IO
	events chan v4l2.Event
	errs   chan error
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEventReader starts an EventReader over fd; callers subscribe to the
// event kinds they care about first (Device.SubscribeEvent) and Close the
// reader when done.
func NewEventReader(ctx context.Context, fd uintptr, io IO, opts ...ReaderOption) *EventReader {
	cfg := readerConfig{queueDepth: 100}
	for _, o := range opts {
		o(&cfg)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r := &EventReader{
		fd:     fd,
		io:     io,
		events: make(chan v4l2.Event, cfg.queueDepth),
		errs:   make(chan error, 1),
		cancel: cancel,
	}
	r.wg.Add(1)
	go r.loop(loopCtx)
	return r
}

func (r *EventReader) loop(ctx context.Context) {
	defer r.wg.Done()
	for {
		if err := r.io.SelectExcept(ctx, r.fd); err != nil {
			select {
			case r.errs <- err:
			default:
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		ev, err := v4l2.DequeueEvent(r.fd)
		if errors.Is(err, v4l2.ErrorTemporary) {
			continue
		}
		if err != nil {
			select {
			case r.errs <- err:
			default:
			}
			return
		}
		select {
		case r.events <- ev:
		default:
			select {
			case <-r.events:
				logging.Logger.Warn("missed event")
			default:
			}
			select {
			case r.events <- ev:
			default:
			}
		}
	}
}

// ReadEvent returns the next queued event, blocking until one arrives,
// the reader fails, or ctx is cancelled.
func (r *EventReader) ReadEvent(ctx context.Context) (v4l2.Event, error) {
	select {
	case e := <-r.events:
		return e, nil
	default:
	}
	select {
	case e := <-r.events:
		return e, nil
	case err := <-r.errs:
		return v4l2.Event{}, err
	case <-ctx.Done():
		return v4l2.Event{}, ctx.Err()
	}
}

// Close stops the reader goroutine and waits for it to exit.
func (r *EventReader) Close() error {
	r.cancel()
	r.wg.Wait()
	return nil
}
