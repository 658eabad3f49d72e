package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/handarm/internal/actuator"
	"github.com/ayusman/handarm/internal/app"
	"github.com/ayusman/handarm/internal/capture"
	"github.com/ayusman/handarm/internal/detector"
	"github.com/ayusman/handarm/internal/display"
	"github.com/ayusman/handarm/internal/landmark"
	"github.com/ayusman/handarm/internal/server"
	"github.com/ayusman/handarm/internal/servo"
	"github.com/ayusman/handarm/internal/store"
)

// wire is an in-memory serial port.
type wire struct {
	bytes.Buffer
	closed bool
}

func (w *wire) Close() error {
	w.closed = true
	return nil
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	rec, err := store.NewRecorder(s, "/dev/ttyACM0")
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}

	hub := server.NewHub()
	ts := httptest.NewServer(server.New(server.Config{Hub: hub, Store: s, Logger: logger}))
	defer ts.Close()

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	open := landmark.OpenPalm()
	closed := landmark.Closed()
	mockDetector := detector.NewMockDetector()
	mockDetector.SetHands([]landmark.Hand{open})

	port := &wire{}
	channel := actuator.New(port, logger)

	// One frame with an open palm, then quit on the second key poll.
	surface := display.NewMockSurface(display.NoKey, 'q')

	loop, err := app.New(app.Config{
		Camera:    capture.NewMockCamera([]*gocv.Mat{&frame}, true),
		Detector:  mockDetector,
		Channel:   channel,
		Display:   surface,
		Publisher: hub,
		Recorder:  rec,
		Logger:    logger,
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	t.Run("RunLoop", func(t *testing.T) {
		if err := loop.Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if err := rec.Close(); err != nil {
			t.Fatalf("rec.Close() error = %v", err)
		}
	})

	want := servo.Map(&open, 640, 480)

	t.Run("SerialWire", func(t *testing.T) {
		line := actuator.FormatLine(want)
		if got := port.String(); got != line+line {
			t.Errorf("wire = %q, want two copies of %q", got, line)
		}
		if !port.closed {
			t.Error("serial port should be closed after the loop")
		}
		if want[servo.Gripper] != servo.MaxGripperAngle {
			t.Errorf("gripper = %d, want open", want[servo.Gripper])
		}
		if closedAngles := servo.Map(&closed, 640, 480); closedAngles[servo.Gripper] != 0 {
			t.Errorf("closed hand gripper = %d, want 0", closedAngles[servo.Gripper])
		}
	})

	t.Run("LatestAngles", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/angles")
		if err != nil {
			t.Fatalf("GET /api/angles error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var got server.Telemetry
		json.NewDecoder(resp.Body).Decode(&got)
		if got.FrameIndex != 2 || got.Angles != want || got.Sent != 2 {
			t.Errorf("telemetry = %+v", got)
		}
	})

	t.Run("RecordedSession", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/sessions/" + rec.SessionID())
		if err != nil {
			t.Fatalf("GET session error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var body struct {
			Session store.Session  `json:"session"`
			Samples []store.Sample `json:"samples"`
		}
		json.NewDecoder(resp.Body).Decode(&body)

		if body.Session.Frames != 2 || body.Session.Sent != 2 {
			t.Errorf("session counters = %d/%d, want 2/2", body.Session.Frames, body.Session.Sent)
		}
		if body.Session.EndedAt == nil {
			t.Error("session should be finished")
		}
		if len(body.Samples) != 2 {
			t.Fatalf("got %d samples, want 2", len(body.Samples))
		}
		for _, sm := range body.Samples {
			if sm.Angles != want || !sm.HandOpen {
				t.Errorf("sample = %+v, want angles %v open", sm, want)
			}
		}
	})

	t.Run("Health", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("GET /api/health error = %v", err)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if !strings.Contains(string(body), `"status":"ok"`) {
			t.Errorf("health body = %s", body)
		}
	})
}
