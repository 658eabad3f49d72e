// Package app runs the frame loop that turns a tracked hand into arm motion.
package app

import (
	"errors"
	"log/slog"

	"gocv.io/x/gocv"

	"github.com/ayusman/handarm/internal/actuator"
	"github.com/ayusman/handarm/internal/capture"
	"github.com/ayusman/handarm/internal/detector"
	"github.com/ayusman/handarm/internal/display"
	"github.com/ayusman/handarm/internal/server"
	"github.com/ayusman/handarm/internal/servo"
)

// DefaultQuitKey is the key that stops the loop when none is configured.
const DefaultQuitKey = 'q'

// Publisher receives per-frame telemetry and the annotated frame. It must not
// block and must not keep the frame past the call.
type Publisher interface {
	Publish(t server.Telemetry, frame *gocv.Mat)
}

// Recorder persists the angles computed for a frame.
type Recorder interface {
	Record(frameIndex int64, angles servo.Angles, open, sendOK bool) error
}

// Config holds the resources the loop owns. Camera, Detector, Channel and
// Display are required; Publisher and Recorder are optional.
type Config struct {
	Camera    capture.Camera
	Detector  detector.Detector
	Channel   actuator.Sender
	Display   display.Surface
	Publisher Publisher
	Recorder  Recorder
	QuitKey   int
	Logger    *slog.Logger
}

// App is the frame loop. It is not safe for concurrent use; Run must be called
// from the goroutine that owns the display.
type App struct {
	camera    capture.Camera
	detector  detector.Detector
	channel   actuator.Sender
	display   display.Surface
	publisher Publisher
	recorder  Recorder
	quitKey   int
	logger    *slog.Logger

	frames int64
	sent   int64
	failed int64
}

// New validates config and creates an App.
func New(config Config) (*App, error) {
	var errs []error
	if config.Camera == nil {
		errs = append(errs, errors.New("camera is required"))
	}
	if config.Detector == nil {
		errs = append(errs, errors.New("detector is required"))
	}
	if config.Channel == nil {
		errs = append(errs, errors.New("actuator channel is required"))
	}
	if config.Display == nil {
		errs = append(errs, errors.New("display is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if config.QuitKey == 0 {
		config.QuitKey = DefaultQuitKey
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &App{
		camera:    config.Camera,
		detector:  config.Detector,
		channel:   config.Channel,
		display:   config.Display,
		publisher: config.Publisher,
		recorder:  config.Recorder,
		quitKey:   config.QuitKey,
		logger:    logger.With("component", "loop"),
	}, nil
}

// Stats reports how many frames were processed and how many angle lines were
// sent or failed.
func (a *App) Stats() (frames, sent, failed int64) {
	return a.frames, a.sent, a.failed
}
