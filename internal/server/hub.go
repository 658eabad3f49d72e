package server

import (
	"bytes"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/handarm/internal/servo"
)

// subscriberBuffer is how many telemetry updates a slow client may lag behind
// before updates to it are dropped.
const subscriberBuffer = 8

// Telemetry is the per-frame state the monitor exposes.
type Telemetry struct {
	FrameIndex int64        `json:"frame_index"`
	Detected   bool         `json:"detected"`
	Angles     servo.Angles `json:"angles"`
	HandOpen   bool         `json:"hand_open"`
	SendOK     bool         `json:"send_ok"`
	Sent       int64        `json:"sent"`
	Failed     int64        `json:"failed"`
	Timestamp  time.Time    `json:"timestamp"`
}

// Hub holds the latest telemetry and annotated frame for the monitor clients.
// Publish never blocks on them.
type Hub struct {
	mu       sync.RWMutex
	latest   Telemetry
	has      bool
	jpeg     []byte
	frameSeq uint64
	watchers int
	subs     map[chan Telemetry]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Telemetry]struct{})}
}

// Publish stores t and fans it out to subscribers. The frame is JPEG-encoded
// only while a stream client is watching; it may be nil.
func (h *Hub) Publish(t Telemetry, frame *gocv.Mat) {
	var jpeg []byte
	if frame != nil && !frame.Empty() && h.watching() {
		if buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame); err == nil {
			jpeg = bytes.Clone(buf.GetBytes())
			buf.Close()
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = t
	h.has = true
	if jpeg != nil {
		h.jpeg = jpeg
		h.frameSeq++
	}

	for ch := range h.subs {
		select {
		case ch <- t:
		default:
		}
	}
}

// Latest returns the most recent telemetry, or false before the first frame.
func (h *Hub) Latest() (Telemetry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest, h.has
}

// Frame returns the latest encoded frame and its sequence number.
func (h *Hub) Frame() ([]byte, uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.jpeg, h.frameSeq
}

// Subscribe registers for telemetry updates. The returned cancel func must be
// called to release the subscription.
func (h *Hub) Subscribe() (<-chan Telemetry, func()) {
	ch := make(chan Telemetry, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
		})
	}
}

// Subscribers returns the number of active telemetry subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// watch marks a stream client as present until the returned func is called.
func (h *Hub) watch() func() {
	h.mu.Lock()
	h.watchers++
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			h.watchers--
			h.mu.Unlock()
		})
	}
}

func (h *Hub) watching() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.watchers > 0
}
