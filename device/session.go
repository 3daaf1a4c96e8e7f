package device

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kestrelcam/v4lcap/v4l2"
)

// sessionState is the Session lifecycle state machine: CLOSED -> ALLOCATED
// -> QUEUED -> STREAMING, with STREAMING able to drain back to ALLOCATED
// without freeing buffers.
type sessionState int

const (
	sessionClosed sessionState = iota
	sessionAllocated
	sessionQueued
	sessionStreaming
)

// Session owns one buffer queue (REQBUFS/QUERYBUF/mmap) for a single
// BufType on an open device and drives it through QBUF/DQBUF/STREAMON/OFF.
// It is not safe for concurrent use by more than one goroutine at a time;
// callers needing concurrent readers should serialize through a FrameReader.
type Session struct {
	mu sync.Mutex

	fd       uintptr
	bufType  v4l2.BufType
	memory   v4l2.MemoryType
	format   v4l2.PixFormat
	io       IO
	blocking bool

	state   sessionState
	buffers [][]byte
	queued  []bool
}

// newSession constructs a Session bound to fd/bufType; it allocates no
// kernel buffers until CreateBuffers is called.
func newSession(fd uintptr, bufType v4l2.BufType, format v4l2.PixFormat, io IO, blocking bool) *Session {
	return &Session{
		fd:       fd,
		bufType:  bufType,
		memory:   v4l2.MemoryTypeMMAP,
		format:   format,
		io:       io,
		blocking: blocking,
		state:    sessionClosed,
	}
}

// CreateBuffers requests n kernel buffers, maps each one, and moves the
// session from CLOSED to ALLOCATED. The kernel may return fewer buffers
// than requested; it may never return zero (ErrOutOfMemory).
func (s *Session) CreateBuffers(n int) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != sessionClosed {
		return nil, kindErr(ErrPrecondition, nil, "session: create buffers: already allocated")
	}

	req, err := v4l2.RequestBuffersIO(s.fd, s.bufType, s.memory, uint32(n))
	if err != nil {
		return nil, fmt.Errorf("session: create buffers: %w", err)
	}
	if req.Count == 0 {
		return nil, kindErr(ErrOutOfMemory, nil, "session: kernel allocated 0 buffers")
	}

	buffers := make([][]byte, req.Count)
	for i := uint32(0); i < req.Count; i++ {
		buf, err := v4l2.QueryBuffer(s.fd, s.bufType, s.memory, i)
		if err != nil {
			s.unmapAll(buffers[:i])
			v4l2.RequestBuffersIO(s.fd, s.bufType, s.memory, 0)
			return nil, fmt.Errorf("session: create buffers: query buffer %d: %w", i, err)
		}
		mapped, err := v4l2.Mmap(s.fd, int64(buf.Offset), int(buf.Length))
		if err != nil {
			s.unmapAll(buffers[:i])
			v4l2.RequestBuffersIO(s.fd, s.bufType, s.memory, 0)
			return nil, fmt.Errorf("session: create buffers: mmap buffer %d: %w", i, err)
		}
		buffers[i] = mapped
	}

	s.buffers = buffers
	s.queued = make([]bool, req.Count)
	s.state = sessionAllocated
	return buffers, nil
}

func (s *Session) unmapAll(buffers [][]byte) {
	for _, b := range buffers {
		if b != nil {
			v4l2.Munmap(b)
		}
	}
}

// EnqueueBuffers queues every allocated buffer with the driver and moves
// the session from ALLOCATED to QUEUED. It is idempotent once QUEUED.
func (s *Session) EnqueueBuffers() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == sessionQueued || s.state == sessionStreaming {
		return nil
	}
	if s.state != sessionAllocated {
		return kindErr(ErrPrecondition, nil, "session: enqueue buffers: no buffers allocated")
	}

	for i := range s.buffers {
		if _, err := v4l2.QueueBuffer(s.fd, s.bufType, s.memory, uint32(i)); err != nil {
			return fmt.Errorf("session: enqueue buffer %d: %w", i, err)
		}
		s.queued[i] = true
	}
	s.state = sessionQueued
	return nil
}

// StreamOn issues VIDIOC_STREAMON, moving the session from QUEUED to
// STREAMING.
func (s *Session) StreamOn() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == sessionStreaming {
		return nil
	}
	if s.state != sessionQueued {
		return kindErr(ErrPrecondition, nil, "session: stream on: buffers not queued")
	}
	if err := v4l2.StreamOn(s.fd, s.bufType); err != nil {
		return fmt.Errorf("session: stream on: %w", err)
	}
	s.state = sessionStreaming
	return nil
}

// StreamOff issues VIDIOC_STREAMOFF, draining the session back to
// ALLOCATED. Buffers remain mapped; EnqueueBuffers/StreamOn can restart
// the stream without reallocating.
func (s *Session) StreamOff() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != sessionStreaming {
		return nil
	}
	if err := v4l2.StreamOff(s.fd, s.bufType); err != nil {
		return fmt.Errorf("session: stream off: %w", err)
	}
	for i := range s.queued {
		s.queued[i] = false
	}
	s.state = sessionAllocated
	return nil
}

// RawGrab dequeues exactly one buffer, copies its mapped memory out into
// the returned Frame, and only then re-queues the buffer. Copying before
// the re-queue avoids polluting the caller's Frame.Data with whatever the
// kernel writes into that same mapped buffer on a subsequent dequeue.
func (s *Session) RawGrab() (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != sessionStreaming {
		return Frame{}, kindErr(ErrPrecondition, nil, "session: grab: not streaming")
	}

	buf, err := v4l2.DequeueBuffer(s.fd, s.bufType, s.memory)
	if err != nil {
		return Frame{}, fmt.Errorf("session: dequeue: %w", err)
	}
	if int(buf.Index) >= len(s.buffers) {
		return Frame{}, fmt.Errorf("session: dequeue: index %d out of range", buf.Index)
	}

	mapped := s.buffers[buf.Index]
	owned := make([]byte, len(mapped))
	copy(owned, mapped)
	frame := frameFromBuffer(buf, s.format, owned)

	if _, err := v4l2.QueueBuffer(s.fd, s.bufType, s.memory, buf.Index); err != nil {
		return Frame{}, fmt.Errorf("session: re-queue buffer %d: %w", buf.Index, err)
	}
	return frame, nil
}

// writeNext dequeues an available buffer, copies data into its mapped
// memory, and re-queues it with the driver for output streams.
func (s *Session) writeNext(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != sessionStreaming {
		return kindErr(ErrPrecondition, nil, "session: write: not streaming")
	}

	buf, err := v4l2.DequeueBuffer(s.fd, s.bufType, s.memory)
	if err != nil {
		return fmt.Errorf("session: write: dequeue: %w", err)
	}
	if int(buf.Index) >= len(s.buffers) {
		return fmt.Errorf("session: write: index %d out of range", buf.Index)
	}
	copy(s.buffers[buf.Index], data)

	if _, err := v4l2.QueueBuffer(s.fd, s.bufType, s.memory, buf.Index); err != nil {
		return fmt.Errorf("session: write: re-queue: %w", err)
	}
	return nil
}

// RawRead is an alias for RawGrab kept for readability at call sites that
// read, as opposed to sites that manage buffer lifecycle explicitly.
func (s *Session) RawRead() (Frame, error) {
	return s.RawGrab()
}

// WaitRead waits for the fd to become readable through the session's IO
// policy, then performs RawRead. A readiness edge raced away by another
// consumer of the fd re-enters the wait instead of surfacing EAGAIN.
func (s *Session) WaitRead(ctx context.Context) (Frame, error) {
	for {
		if err := s.io.Select(ctx, s.fd); err != nil {
			return Frame{}, err
		}
		frame, err := s.RawRead()
		if errors.Is(err, v4l2.ErrorTemporary) {
			continue
		}
		return frame, err
	}
}

// Read dequeues the next frame using whichever strategy matches how the
// descriptor was opened: a blocking descriptor reads straight through
// DQBUF, a non-blocking one gates the read behind WaitRead.
func (s *Session) Read(ctx context.Context) (Frame, error) {
	if s.blocking {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}
		return s.RawRead()
	}
	return s.WaitRead(ctx)
}

// Fd exposes the session's file descriptor for readiness-gated readers.
func (s *Session) Fd() uintptr { return s.fd }

// FreeBuffers tears the session down in the documented order: STREAMOFF
// (if still streaming), unmap every buffer, then REQBUFS(0). A failing
// final REQBUFS(0) is reported but does not prevent the unmap from having
// already happened.
func (s *Session) FreeBuffers() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == sessionClosed {
		return nil
	}
	if s.state == sessionStreaming {
		if err := v4l2.StreamOff(s.fd, s.bufType); err != nil {
			return fmt.Errorf("session: free buffers: stream off: %w", err)
		}
	}

	s.unmapAll(s.buffers)
	s.buffers = nil
	s.queued = nil
	s.state = sessionClosed

	if _, err := v4l2.RequestBuffersIO(s.fd, s.bufType, s.memory, 0); err != nil {
		return fmt.Errorf("session: free buffers: reqbufs(0): %w", err)
	}
	return nil
}

// Close is an alias for FreeBuffers so Session can satisfy io.Closer.
func (s *Session) Close() error { return s.FreeBuffers() }
