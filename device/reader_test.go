package device

import (
	"context"
	"testing"
	"time"

	"github.com/kestrelcam/v4lcap/v4l2"
	"github.com/kestrelcam/v4lcap/v4l2/v4l2test"
)

func TestAsyncReaderDeliversInOrder(t *testing.T) {
	k := newMockKernel()
	dev := openFake(t, k)

	session, err := dev.StartSession(4)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	defer session.Close()

	reader := NewAsyncReader(context.Background(), session, blockingIO{}, WithQueueDepth(4))
	defer reader.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var last uint32
	for i := 0; i < 5; i++ {
		f, err := reader.Read(ctx)
		if err != nil {
			t.Fatalf("Read %d: %v", i, err)
		}
		if i > 0 && f.Sequence <= last {
			t.Fatalf("sequence went backwards: %d after %d", f.Sequence, last)
		}
		last = f.Sequence
	}
}

func TestEventReaderDeliversQueuedEvents(t *testing.T) {
	k := newMockKernel()
	dev := openFake(t, k)

	if err := dev.SubscribeEvent(v4l2.EventCtrl, 0); err != nil {
		t.Fatalf("SubscribeEvent: %v", err)
	}
	for i := uint32(0); i < 3; i++ {
		k.PushEvent(v4l2test.EventFixture{Kind: v4l2.EventCtrl, Sequence: i})
	}

	reader, err := dev.Events(context.Background())
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	defer reader.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := uint32(0); i < 3; i++ {
		ev, err := reader.ReadEvent(ctx)
		if err != nil {
			t.Fatalf("ReadEvent %d: %v", i, err)
		}
		if ev.Kind != v4l2.EventCtrl || ev.Sequence != i {
			t.Fatalf("event %d = %+v, want kind=ctrl sequence=%d", i, ev, i)
		}
	}
}

func TestBlockingReaderHonorsCancelledContext(t *testing.T) {
	k := newMockKernel()
	dev := openFake(t, k)

	session, err := dev.StartSession(2)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	defer session.Close()

	reader := NewBlockingReader(session)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := reader.Read(ctx); err == nil {
		t.Fatal("Read with cancelled ctx should fail")
	}
}
