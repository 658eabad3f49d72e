// Package config loads handarm settings from defaults, a YAML file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/handarm/internal/actuator"
	"github.com/ayusman/handarm/internal/capture"
	"github.com/ayusman/handarm/internal/detector"
	"github.com/ayusman/handarm/internal/display"
	"github.com/ayusman/handarm/internal/logging"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvSerialPort  = "HANDARM_SERIAL_PORT"
	EnvBaud        = "HANDARM_BAUD"
	EnvCamera      = "HANDARM_CAMERA"
	EnvLogLevel    = "HANDARM_LOG_LEVEL"
	EnvMonitorAddr = "HANDARM_MONITOR_ADDR"
	EnvRecordPath  = "HANDARM_RECORD_PATH"
)

// Display configures the debug window.
type Display struct {
	Title    string `yaml:"title"`
	QuitKey  string `yaml:"quit_key"`
	Headless bool   `yaml:"headless"`
}

// Monitor configures the optional HTTP monitor.
type Monitor struct {
	Addr string `yaml:"addr"`
}

// Record configures the optional session recorder.
type Record struct {
	Path string `yaml:"path"`
}

// Log configures logging output.
type Log struct {
	Level string `yaml:"level"`
	Color bool   `yaml:"color"`
}

// Config is the complete runtime configuration.
type Config struct {
	Camera   capture.Config  `yaml:"camera"`
	Detector detector.Config `yaml:"detector"`
	Serial   actuator.Config `yaml:"serial"`
	Display  Display         `yaml:"display"`
	Monitor  Monitor         `yaml:"monitor"`
	Record   Record          `yaml:"record"`
	Log      Log             `yaml:"log"`
}

// DefaultSerialPort is the platform's usual name for the first USB serial board.
func DefaultSerialPort() string {
	if runtime.GOOS == "windows" {
		return "COM9"
	}
	return "/dev/ttyACM0"
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Camera:   capture.DefaultConfig(),
		Detector: detector.DefaultConfig(),
		Serial: actuator.Config{
			Port:        DefaultSerialPort(),
			Baud:        actuator.DefaultBaud,
			SettleDelay: actuator.DefaultSettleDelay,
			ReadTimeout: actuator.DefaultReadTimeout,
		},
		Display: Display{
			Title:   display.DefaultTitle,
			QuitKey: "q",
		},
		Log: Log{
			Level: "info",
			Color: true,
		},
	}
}

// Load reads a YAML file over cfg. Keys missing from the file keep their value.
func Load(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg from the environment.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvSerialPort); ok && v != "" {
		cfg.Serial.Port = v
	}
	if v, ok := lookup(EnvBaud); ok && v != "" {
		baud, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvBaud, err)
		}
		cfg.Serial.Baud = baud
	}
	if v, ok := lookup(EnvCamera); ok && v != "" {
		device, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCamera, err)
		}
		cfg.Camera.DeviceID = device
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := lookup(EnvMonitorAddr); ok {
		cfg.Monitor.Addr = v
	}
	if v, ok := lookup(EnvRecordPath); ok {
		cfg.Record.Path = v
	}
	return nil
}

// Validate checks the configuration for values the arm cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Serial.Port == "" {
		errs = append(errs, errors.New("serial port is required"))
	}
	if c.Serial.Baud <= 0 {
		errs = append(errs, fmt.Errorf("baud must be positive, got %d", c.Serial.Baud))
	}
	if c.Serial.SettleDelay < 0 {
		errs = append(errs, fmt.Errorf("settle delay must not be negative, got %s", c.Serial.SettleDelay))
	}
	if c.Camera.DeviceID < 0 {
		errs = append(errs, fmt.Errorf("camera device must not be negative, got %d", c.Camera.DeviceID))
	}
	if c.Detector.MaxHands != 1 {
		errs = append(errs, fmt.Errorf("max hands must be 1, got %d", c.Detector.MaxHands))
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("min detection confidence must be within [0,1], got %g", c.Detector.MinConfidence))
	}
	if c.Detector.MinTrackingConf < 0 || c.Detector.MinTrackingConf > 1 {
		errs = append(errs, fmt.Errorf("min tracking confidence must be within [0,1], got %g", c.Detector.MinTrackingConf))
	}
	if c.Display.QuitKey == "" {
		errs = append(errs, errors.New("quit key is required"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Parse builds the configuration from defaults, the file named by -config,
// the environment and finally any flags set in args.
func Parse(args []string, lookup func(string) (string, bool)) (Config, error) {
	fs := flag.NewFlagSet("handarm", flag.ContinueOnError)

	path := fs.String("config", "", "path to a YAML config file")
	port := fs.String("port", "", "serial port of the arm controller")
	baud := fs.Int("baud", 0, "serial baud rate")
	settle := fs.Duration("settle", 0, "delay after opening the serial port")
	camera := fs.Int("camera", 0, "camera device index")
	width := fs.Int("width", 0, "requested frame width")
	height := fs.Int("height", 0, "requested frame height")
	fps := fs.Int("fps", 0, "requested camera frame rate")
	python := fs.String("python", "", "python interpreter for the pose service")
	script := fs.String("script", "", "path to mediapipe_service.py")
	headless := fs.Bool("headless", false, "run without a display window")
	quit := fs.String("quit-key", "", "key that stops the loop")
	monitor := fs.String("monitor", "", "address for the HTTP monitor, e.g. :8080")
	record := fs.String("record", "", "SQLite file to record sessions into")
	level := fs.String("log-level", "", "log level: debug, info, warn, error")
	noColor := fs.Bool("no-color", false, "disable coloured log output")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if *path != "" {
		if err := Load(*path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := ApplyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Serial.Port = *port
		case "baud":
			cfg.Serial.Baud = *baud
		case "settle":
			cfg.Serial.SettleDelay = *settle
		case "camera":
			cfg.Camera.DeviceID = *camera
		case "width":
			cfg.Camera.Width = *width
		case "height":
			cfg.Camera.Height = *height
		case "fps":
			cfg.Camera.FPS = *fps
		case "python":
			cfg.Detector.Python = *python
		case "script":
			cfg.Detector.Script = *script
		case "headless":
			cfg.Display.Headless = *headless
		case "quit-key":
			cfg.Display.QuitKey = *quit
		case "monitor":
			cfg.Monitor.Addr = *monitor
		case "record":
			cfg.Record.Path = *record
		case "log-level":
			cfg.Log.Level = *level
		case "no-color":
			cfg.Log.Color = !*noColor
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
