package server

import (
	"testing"

	"github.com/ayusman/handarm/internal/servo"
	"gocv.io/x/gocv"
)

func TestHub_Latest(t *testing.T) {
	h := NewHub()

	if _, ok := h.Latest(); ok {
		t.Fatal("Latest() should report false before any publish")
	}

	h.Publish(Telemetry{FrameIndex: 3, Angles: servo.Angles{10, 20, 30, 0}}, nil)

	got, ok := h.Latest()
	if !ok {
		t.Fatal("Latest() should report true after publish")
	}
	if got.FrameIndex != 3 {
		t.Errorf("FrameIndex = %d, want 3", got.FrameIndex)
	}
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	h := NewHub()
	updates, cancel := h.Subscribe()
	defer cancel()

	// Nobody drains the channel; publishing past its buffer must not block.
	for i := 0; i < subscriberBuffer*4; i++ {
		h.Publish(Telemetry{FrameIndex: int64(i)}, nil)
	}

	if got := len(updates); got != subscriberBuffer {
		t.Errorf("buffered updates = %d, want %d", got, subscriberBuffer)
	}
	first := <-updates
	if first.FrameIndex != 0 {
		t.Errorf("first buffered FrameIndex = %d, want 0", first.FrameIndex)
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe()

	if h.Subscribers() != 1 {
		t.Fatalf("Subscribers() = %d, want 1", h.Subscribers())
	}

	cancel()
	cancel()

	if h.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0 after cancel", h.Subscribers())
	}
}

func TestHub_EncodesOnlyWhileWatched(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test in short mode")
	}

	h := NewHub()
	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	h.Publish(Telemetry{FrameIndex: 1}, &frame)
	if jpeg, seq := h.Frame(); jpeg != nil || seq != 0 {
		t.Errorf("frame encoded without a watcher (seq %d)", seq)
	}

	release := h.watch()
	h.Publish(Telemetry{FrameIndex: 2}, &frame)
	jpeg, seq := h.Frame()
	if seq != 1 || len(jpeg) < 2 {
		t.Fatalf("Frame() = %d bytes seq %d, want an encoded frame", len(jpeg), seq)
	}
	if jpeg[0] != 0xFF || jpeg[1] != 0xD8 {
		t.Error("encoded frame is not a JPEG")
	}

	release()
	if h.watching() {
		t.Error("watching() should be false after release")
	}
}
