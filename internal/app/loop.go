package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ayusman/handarm/internal/display"
	"github.com/ayusman/handarm/internal/server"
	"github.com/ayusman/handarm/internal/servo"
)

// waitKeyDelay is how long each iteration pumps the display for a key press.
const waitKeyDelay = 1

// Run processes frames until ctx is cancelled, the quit key is pressed or the
// camera fails. A camera failure is returned; the other two end cleanly. On
// every exit the camera, display, channel and detector are released in that
// order.
func (a *App) Run(ctx context.Context) error {
	defer a.release()

	if !a.camera.IsOpen() {
		if err := a.camera.Open(); err != nil {
			a.logger.Error("open camera failed", "err", err)
			return fmt.Errorf("open camera: %w", err)
		}
	}

	a.logger.Info("frame loop started", "quit_key", string(rune(a.quitKey)))

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("frame loop interrupted", "frames", a.frames)
			return nil
		default:
		}

		stop, err := a.step()
		if err != nil {
			return err
		}
		if stop {
			a.logger.Info("quit key pressed", "frames", a.frames)
			return nil
		}
	}
}

// step handles one frame. It reports whether the quit key was pressed.
func (a *App) step() (bool, error) {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		a.logger.Error("read frame failed", "err", err)
		return false, fmt.Errorf("read frame: %w", err)
	}
	defer frame.Close()

	a.frames++
	t := server.Telemetry{FrameIndex: a.frames, Timestamp: time.Now()}

	hands, err := a.detector.Detect(frame)
	if err != nil {
		a.logger.Warn("hand detection failed", "frame", a.frames, "err", err)
		hands = nil
	}

	if len(hands) > 0 {
		hand := &hands[0]
		offsets := servo.MeasureOffsets(hand, frame.Cols(), frame.Rows())
		open := servo.IsHandOpen(hand)
		angles := servo.FromOffsets(offsets, open)

		sendOK := a.channel.Send(angles) == nil
		if sendOK {
			a.sent++
		} else {
			a.failed++
		}

		a.logger.Debug("mapped hand",
			"frame", a.frames,
			"horizontal", offsets.Horizontal,
			"vertical", offsets.Vertical,
			"depth", offsets.Depth,
			"angles", angles.String(),
			"open", open,
		)

		display.DrawLandmarks(frame, hand)
		display.DrawAngles(frame, angles)

		if a.recorder != nil {
			if err := a.recorder.Record(a.frames, angles, open, sendOK); err != nil {
				a.logger.Warn("record sample failed", "frame", a.frames, "err", err)
			}
		}

		t.Detected = true
		t.Angles = angles
		t.HandOpen = open
		t.SendOK = sendOK
	}

	if a.publisher != nil {
		t.Sent, t.Failed = a.sent, a.failed
		a.publisher.Publish(t, frame)
	}

	a.display.Show(frame)
	return a.display.WaitKey(waitKeyDelay) == a.quitKey, nil
}

// release closes every owned resource, logging failures.
func (a *App) release() {
	if err := a.camera.Close(); err != nil {
		a.logger.Error("close camera", "err", err)
	}
	if err := a.display.Close(); err != nil {
		a.logger.Error("close display", "err", err)
	}
	if err := a.channel.Close(); err != nil {
		a.logger.Error("close actuator channel", "err", err)
	}
	if err := a.detector.Close(); err != nil {
		a.logger.Error("close detector", "err", err)
	}
	a.logger.Info("frame loop stopped", "frames", a.frames, "sent", a.sent, "failed", a.failed)
}
