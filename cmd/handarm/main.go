package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/ayusman/handarm/internal/actuator"
	"github.com/ayusman/handarm/internal/app"
	"github.com/ayusman/handarm/internal/capture"
	"github.com/ayusman/handarm/internal/config"
	"github.com/ayusman/handarm/internal/detector"
	"github.com/ayusman/handarm/internal/display"
	"github.com/ayusman/handarm/internal/logging"
	"github.com/ayusman/handarm/internal/server"
	"github.com/ayusman/handarm/internal/store"
)

func init() {
	// HighGUI windows must be driven from the main thread.
	runtime.LockOSThread()
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "handarm: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Parse(args, os.LookupEnv)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, level, cfg.Log.Color)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	channel, err := actuator.Open(ctx, cfg.Serial, logger)
	if err != nil {
		logger.Error("cannot reach the arm controller", "port", cfg.Serial.Port, "err", err)
		return err
	}

	det, err := detector.NewMediaPipeDetector(cfg.Detector, logger)
	if err != nil {
		channel.Close()
		logger.Error("pose source unavailable", "err", err)
		return err
	}

	var publisher app.Publisher
	var recorder app.Recorder

	var st *store.Store
	if cfg.Record.Path != "" {
		if st, err = openStore(cfg.Record.Path); err != nil {
			channel.Close()
			det.Close()
			return err
		}
		defer st.Close()

		rec, err := store.NewRecorder(st, cfg.Serial.Port)
		if err != nil {
			channel.Close()
			det.Close()
			return fmt.Errorf("start recording: %w", err)
		}
		defer func() {
			if err := rec.Close(); err != nil {
				logger.Error("finish session", "err", err)
			}
		}()
		recorder = rec
		logger.Info("recording session", "path", cfg.Record.Path, "session", rec.SessionID())
	}

	if cfg.Monitor.Addr != "" {
		gin.SetMode(server.GinMode(level))
		hub := server.NewHub()
		srv := server.New(server.Config{Hub: hub, Store: st, Logger: logger})
		publisher = hub

		monitorCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := srv.ListenAndServe(monitorCtx, cfg.Monitor.Addr); err != nil {
				logger.Error("monitor stopped", "err", err)
			}
		}()
		defer func() {
			cancel()
			<-done
		}()
	}

	var surface display.Surface = display.Headless{}
	if !cfg.Display.Headless {
		surface = display.NewWindow(cfg.Display.Title)
	}

	loop, err := app.New(app.Config{
		Camera:    capture.NewCamera(cfg.Camera),
		Detector:  det,
		Channel:   channel,
		Display:   surface,
		Publisher: publisher,
		Recorder:  recorder,
		QuitKey:   display.KeyCode(cfg.Display.QuitKey),
		Logger:    logger,
	})
	if err != nil {
		surface.Close()
		channel.Close()
		det.Close()
		return err
	}

	return loop.Run(ctx)
}

// openStore opens the recording database, creating its directory if needed.
func openStore(path string) (*store.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create record directory: %w", err)
		}
	}
	st, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	return st, nil
}
