package store

import (
	"fmt"

	"github.com/ayusman/handarm/internal/servo"
)

// Recorder appends the angles of one running session.
type Recorder struct {
	store   *Store
	session *Session
	frames  int
	sent    int
}

// NewRecorder starts a session for the given serial port.
func NewRecorder(st *Store, serialPort string) (*Recorder, error) {
	sess := &Session{SerialPort: serialPort}
	if err := st.Sessions().Start(sess); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return &Recorder{store: st, session: sess}, nil
}

// SessionID returns the ID of the session being recorded.
func (r *Recorder) SessionID() string {
	return r.session.ID
}

// Record stores the angles computed for a frame and whether sending them worked.
func (r *Recorder) Record(frameIndex int64, angles servo.Angles, open, sendOK bool) error {
	err := r.store.Samples().Append(&Sample{
		SessionID:  r.session.ID,
		FrameIndex: frameIndex,
		Angles:     angles,
		HandOpen:   open,
		SendOK:     sendOK,
	})
	if err != nil {
		return fmt.Errorf("append sample: %w", err)
	}

	r.frames++
	if sendOK {
		r.sent++
	}
	return nil
}

// Close marks the session finished. It does not close the store.
func (r *Recorder) Close() error {
	return r.store.Sessions().Finish(r.session.ID, r.frames, r.sent)
}
