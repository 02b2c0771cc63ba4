// Package sampler runs the battery polling loop.
package sampler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cptspacemanspiff/battery-log/internal/batterylog"
	"github.com/cptspacemanspiff/battery-log/internal/collector"
)

// DefaultInterval is the wait between ticks when none is configured.
const DefaultInterval = 60 * time.Second

// State of the loop.
type State int

const (
	StateRunning State = iota
	StateStopped
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "stopped"
}

// Notifier is told about every reading after it has been appended.
type Notifier interface {
	Notify(collector.Reading) error
}

// Config wires a Sampler.
type Config struct {
	Source   collector.Source
	LogPath  string
	Interval time.Duration
	// Out receives the human-readable progress lines.
	Out      io.Writer
	Logger   *slog.Logger
	Notifier Notifier
	// Wake ends the current wait early, so a reading is taken right after
	// the machine resumes.
	Wake <-chan struct{}
}

// Sampler polls Source and appends each reading to LogPath.
type Sampler struct {
	cfg   Config
	log   *slog.Logger
	state State
	wait  func(ctx context.Context, d time.Duration) bool
}

func New(cfg Config) *Sampler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Sampler{
		cfg:   cfg,
		log:   logger.With("topic", "battery"),
		state: StateRunning,
	}
	s.wait = func(ctx context.Context, d time.Duration) bool {
		return sleepCtx(ctx, d, cfg.Wake)
	}
	return s
}

// State reports whether the loop is still running.
func (s *Sampler) State() State {
	return s.state
}

// Tick collects one reading and appends it. It reports whether a row was
// written. Collection failures skip the tick; they are never returned.
// A running collection is not interrupted by cancelling ctx.
func (s *Sampler) Tick(ctx context.Context) bool {
	r, err := s.cfg.Source.Collect(context.WithoutCancel(ctx))
	if err != nil {
		s.log.Debug("collect failed", "err", err)
		fmt.Fprintln(s.cfg.Out, "Could not get battery information")
		return false
	}

	if err := batterylog.Append(s.cfg.LogPath, *r); err != nil {
		s.log.Error("append reading", "path", s.cfg.LogPath, "err", err)
		return false
	}
	s.log.Info("sample", "percentage", r.Percentage, "status", r.Status.String())
	fmt.Fprintf(s.cfg.Out, "Logged: %s, Percentage: %d%%, Status: %d\n",
		r.Timestamp.Local().Format(batterylog.TimestampLayout), r.Percentage, int(r.Status))

	if s.cfg.Notifier != nil {
		if err := s.cfg.Notifier.Notify(*r); err != nil {
			s.log.Warn("notify reading", "err", err)
		}
	}
	return true
}

// Run creates the log header if needed and ticks until ctx is cancelled.
// Cancellation is a clean stop and returns nil.
func (s *Sampler) Run(ctx context.Context) error {
	if err := batterylog.EnsureHeader(s.cfg.LogPath); err != nil {
		return err
	}

	fmt.Fprintf(s.cfg.Out, "Logging to: %s\n", s.cfg.LogPath)
	fmt.Fprintf(s.cfg.Out, "Interval: %d seconds\n", int(s.cfg.Interval/time.Second))
	fmt.Fprintln(s.cfg.Out, "Press Ctrl+C to stop logging")

	s.state = StateRunning
	for ctx.Err() == nil {
		s.Tick(ctx)
		if !s.wait(ctx, s.cfg.Interval) {
			break
		}
	}

	s.state = StateStopped
	fmt.Fprintln(s.cfg.Out, "\nLogging stopped")
	return nil
}

// sleepCtx waits for d or a value on wake, and reports false if ctx ended
// first. A nil wake channel never fires.
func sleepCtx(ctx context.Context, d time.Duration, wake <-chan struct{}) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-wake:
		return ctx.Err() == nil
	case <-ctx.Done():
		return false
	}
}
