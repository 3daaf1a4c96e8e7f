package device

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/kestrelcam/v4lcap/v4l2"
	sys "golang.org/x/sys/unix"
)

// IO is the capability a Device injects into its Session/FrameReader: how
// to wait for an fd to become readable. stdIO and blockingIO are the two
// shipped implementations; contextIO is a select-based alternative to
// stdIO that adds self-pipe cancellation.
type IO interface {
	// Select blocks until fd is readable or ctx is done, whichever comes
	// first. A nil deadline on ctx means block indefinitely.
	Select(ctx context.Context, fd uintptr) error

	// SelectExcept blocks until fd reports an exception/urgent condition
	// (V4L2's EPOLLPRI event readiness) or ctx is done. It must not be
	// satisfied by ordinary readable-fds readiness the way Select is.
	SelectExcept(ctx context.Context, fd uintptr) error
}

// NewStdIO returns the default IO policy: a non-blocking fd waited on
// with the stdlib select multiplexer.
func NewStdIO() IO { return newStdIO() }

// NewBlockingIO returns the IO policy for descriptors left in blocking
// mode: no readiness wait at all, the kernel blocks in DQBUF itself.
func NewBlockingIO() IO { return blockingIO{} }

// NewContextIO returns an IO policy that interrupts an in-flight select
// as soon as ctx is cancelled, at the cost of a pipe pair per instance.
// The returned value implements io.Closer; close it when the read loop
// ends to release the pipe.
func NewContextIO() (IO, error) { return newContextIO() }

// stdIO waits using golang.org/x/sys/unix.Select with a short timeout,
// re-checking ctx between waits so cancellation is observed promptly
// without needing self-pipe plumbing.
type stdIO struct {
	pollInterval sys.Timeval
}

func newStdIO() *stdIO {
	return &stdIO{pollInterval: sys.Timeval{Sec: 0, Usec: 200000}}
}

func (s *stdIO) Select(ctx context.Context, fd uintptr) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tv := s.pollInterval
		ready, err := v4l2.Select(fd, &tv)
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
	}
}

func (s *stdIO) SelectExcept(ctx context.Context, fd uintptr) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tv := s.pollInterval
		ready, err := v4l2.SelectExcept(fd, &tv)
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
	}
}

// blockingIO performs no readiness check at all; RawRead/DQBUF itself is
// expected to block in the kernel. It exists for drivers/configurations
// where select() on the video node is unreliable.
type blockingIO struct{}

func (blockingIO) Select(ctx context.Context, fd uintptr) error {
	return ctx.Err()
}

func (blockingIO) SelectExcept(ctx context.Context, fd uintptr) error {
	return ctx.Err()
}

// contextIO runs its own select with no timeout over fd plus a self-pipe,
// so Select returns immediately on ctx cancellation instead of waiting
// out a poll interval the way stdIO does. Each
// contextIO is bound to one Device for the lifetime of a read loop.
type contextIO struct {
	mu        sync.Mutex
	pipeRead  *os.File
	pipeWrite *os.File
}

func newContextIO() (*contextIO, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("device: contextIO: pipe: %w", err)
	}
	return &contextIO{pipeRead: r, pipeWrite: w}, nil
}

func (c *contextIO) Select(ctx context.Context, fd uintptr) error {
	return c.wait(ctx, fd, false)
}

func (c *contextIO) SelectExcept(ctx context.Context, fd uintptr) error {
	return c.wait(ctx, fd, true)
}

// wait layers the self-pipe cancellation trick over a sys.Select on fd,
// placing fd in the exception set instead of the readable set when except
// is true (event readiness, as opposed to frame-buffer readiness).
func (c *contextIO) wait(ctx context.Context, fd uintptr, except bool) error {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			if c.pipeWrite != nil {
				c.pipeWrite.Write([]byte{0})
			}
			c.mu.Unlock()
		case <-done:
		}
	}()
	defer close(done)

	pipeFd := int(c.pipeRead.Fd())
	maxFd := int(fd)
	if pipeFd > maxFd {
		maxFd = pipeFd
	}
	for {
		// select mutates the fd sets in place, so they are rebuilt on
		// every pass.
		var readSet, exceptSet sys.FdSet
		if except {
			exceptSet.Set(int(fd))
		} else {
			readSet.Set(int(fd))
		}
		readSet.Set(pipeFd)

		_, err := sys.Select(maxFd+1, &readSet, nil, &exceptSet, nil)
		if err == sys.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("device: contextIO: select: %w", err)
		}
		if readSet.IsSet(pipeFd) {
			// Drain the wakeup byte so a cancelled wait does not trip
			// the next one.
			var b [1]byte
			c.pipeRead.Read(b[:])
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			continue
		}
		if except && exceptSet.IsSet(int(fd)) {
			return nil
		}
		if !except && readSet.IsSet(int(fd)) {
			return nil
		}
	}
}

func (c *contextIO) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pipeWrite != nil {
		c.pipeWrite.Close()
		c.pipeWrite = nil
	}
	return c.pipeRead.Close()
}
