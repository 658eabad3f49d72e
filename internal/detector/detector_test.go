package detector

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ayusman/handarm/internal/landmark"
)

func TestDecodeResponse(t *testing.T) {
	fullHand := func(score float64) string {
		var b strings.Builder
		b.WriteString(`{"points":[`)
		for i := 0; i < landmark.NumLandmarks; i++ {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(`{"x":0.5,"y":0.25,"z":-0.01}`)
		}
		fmt.Fprintf(&b, `],"handedness":"Right","score":%g}`, score)
		return b.String()
	}

	t.Run("no hands", func(t *testing.T) {
		hands, err := decodeResponse([]byte(`{"hands":[]}` + "\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected 0 hands, got %d", len(hands))
		}
	})

	t.Run("one full hand", func(t *testing.T) {
		line := `{"hands":[` + fullHand(0.9) + `]}`
		hands, err := decodeResponse([]byte(line))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(hands))
		}
		if hands[0].Handedness != "Right" {
			t.Errorf("handedness = %q, want Right", hands[0].Handedness)
		}
		if hands[0].Points[landmark.PinkyTip].Y != 0.25 {
			t.Errorf("pinky tip y = %f, want 0.25", hands[0].Points[landmark.PinkyTip].Y)
		}
	})

	t.Run("incomplete hand is dropped", func(t *testing.T) {
		line := `{"hands":[{"points":[{"x":0.1,"y":0.1,"z":0}],"handedness":"Left","score":0.8},` + fullHand(0.8) + `]}`
		hands, err := decodeResponse([]byte(line))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 1 {
			t.Fatalf("expected 1 complete hand, got %d", len(hands))
		}
		if hands[0].Handedness != "Right" {
			t.Errorf("expected the complete hand to survive, got %q", hands[0].Handedness)
		}
	})

	t.Run("service error", func(t *testing.T) {
		_, err := decodeResponse([]byte(`{"error":"bad frame"}`))
		if err == nil || !strings.Contains(err.Error(), "bad frame") {
			t.Errorf("expected service error, got %v", err)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		if _, err := decodeResponse([]byte("not json")); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte{0xff, 0xd8, 0x01, 0x02, 0xff, 0xd9}

	if err := writeFrame(&buf, payload); err != nil {
		t.Fatalf("writeFrame() error = %v", err)
	}

	out := buf.Bytes()
	if len(out) != 4+len(payload) {
		t.Fatalf("wrote %d bytes, want %d", len(out), 4+len(payload))
	}
	if n := binary.BigEndian.Uint32(out[:4]); n != uint32(len(payload)) {
		t.Errorf("length prefix = %d, want %d", n, len(payload))
	}
	if !bytes.Equal(out[4:], payload) {
		t.Errorf("payload = %v, want %v", out[4:], payload)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWriteFrame_Error(t *testing.T) {
	if err := writeFrame(failingWriter{}, []byte{1}); err == nil {
		t.Error("expected error from failing writer")
	}
}

func TestMediaPipeDetector_ServiceArgs(t *testing.T) {
	d := &MediaPipeDetector{config: DefaultConfig(), script: "/opt/handarm/mediapipe_service.py"}

	got := strings.Join(d.serviceArgs(), " ")
	want := "/opt/handarm/mediapipe_service.py --max-hands 1 --min-detection-confidence 0.7 --min-tracking-confidence 0.6"
	if got != want {
		t.Errorf("serviceArgs() = %q, want %q", got, want)
	}
}

func TestNewMediaPipeDetector_MissingScript(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Script = t.TempDir() + "/missing.py"

	if _, err := NewMediaPipeDetector(cfg, nil); err == nil {
		t.Error("expected error for missing script")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxHands != 1 {
		t.Errorf("MaxHands = %d, want 1", cfg.MaxHands)
	}
	if cfg.MinConfidence != 0.7 {
		t.Errorf("MinConfidence = %f, want 0.7", cfg.MinConfidence)
	}
	if cfg.MinTrackingConf != 0.6 {
		t.Errorf("MinTrackingConf = %f, want 0.6", cfg.MinTrackingConf)
	}
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
		if mock.Calls() != 1 {
			t.Errorf("Calls() = %d, want 1", mock.Calls())
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]landmark.Hand{landmark.OpenPalm(), landmark.Closed()})

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("Close marks closed", func(t *testing.T) {
		mock := NewMockDetector()

		if err := mock.Close(); err != nil {
			t.Errorf("expected Close to return nil, got %v", err)
		}
		if !mock.Closed() {
			t.Error("expected Closed() to be true")
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}
