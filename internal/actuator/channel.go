// Package actuator streams servo angles to the arm's microcontroller.
package actuator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/ayusman/handarm/internal/servo"
)

// Default serial link settings.
const (
	DefaultBaud        = 9600
	DefaultSettleDelay = 2 * time.Second
	DefaultReadTimeout = time.Second
)

// ErrClosed is returned when sending on a closed channel.
var ErrClosed = errors.New("actuator channel is closed")

// Config holds the serial link settings.
type Config struct {
	Port        string        `yaml:"port"`
	Baud        int           `yaml:"baud"`
	SettleDelay time.Duration `yaml:"settle_delay"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// Sender is the part of a Channel the frame loop depends on.
type Sender interface {
	Send(angles servo.Angles) error
	Close() error
}

// Stats counts what a Channel has written.
type Stats struct {
	Sent   int64 `json:"sent"`
	Failed int64 `json:"failed"`
}

// Channel writes newline-terminated angle lines to a byte-oriented port.
type Channel struct {
	port   io.WriteCloser
	logger *slog.Logger
	mu     sync.Mutex
	closed bool
	stats  Stats
}

// New wraps an already-open port.
func New(port io.WriteCloser, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{
		port:   port,
		logger: logger.With("component", "actuator"),
	}
}

// Open opens the serial port and waits cfg.SettleDelay for the board to finish
// resetting before returning. There is no retry.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Channel, error) {
	if cfg.Baud <= 0 {
		cfg.Baud = DefaultBaud
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Port, err)
	}

	ch := New(port, logger)
	ch.logger.Info("serial port open",
		"port", cfg.Port,
		"baud", cfg.Baud,
		"settle", cfg.SettleDelay,
	)

	if err := settle(ctx, cfg.SettleDelay); err != nil {
		ch.Close()
		return nil, err
	}

	return ch, nil
}

// settle blocks for d or until ctx is done.
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FormatLine renders angles in the wire format, e.g. "126,90,45,60\n".
func FormatLine(angles servo.Angles) string {
	return angles.String() + "\n"
}

// Send writes one angle line. A failed write is logged and returned; the
// caller is expected to carry on with the next frame.
func (c *Channel) Send(angles servo.Angles) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.stats.Failed++
		return ErrClosed
	}

	line := FormatLine(angles)
	n, err := io.WriteString(c.port, line)
	if err == nil && n < len(line) {
		err = io.ErrShortWrite
	}
	if err != nil {
		c.stats.Failed++
		c.logger.Warn("send angles failed", "angles", angles.String(), "err", err)
		return fmt.Errorf("write angles: %w", err)
	}

	c.stats.Sent++
	return nil
}

// Stats returns the counts of sent and failed lines.
func (c *Channel) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Close closes the underlying port. Closing twice is a no-op.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.port.Close()
}
