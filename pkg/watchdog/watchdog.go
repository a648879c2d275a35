// Package watchdog halts motion when the host stops signalling liveness.
package watchdog

import (
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/buggy.go/pkg/framework"
)

// Stopper halts motion.
type Stopper interface {
	Stop() error
}

// Alarm receives the one-shot timeout notification.
type Alarm interface {
	WatchdogFired(now time.Time, elapsed time.Duration)
}

// Config defines the watchdog policy.
type Config struct {
	Timeout time.Duration
	// MotionClearsLatch lets a move command re-arm a latched watchdog.
	// Otherwise only a heartbeat does.
	MotionClearsLatch bool
}

// Watchdog is ARMED until the timeout elapses, then LATCHED until fed.
type Watchdog struct {
	cfg     Config
	stopper Stopper
	alarm   Alarm

	last    time.Time
	latched bool
}

// New creates a Watchdog. alarm may be nil.
func New(cfg Config, stopper Stopper, alarm Alarm) *Watchdog {
	return &Watchdog{cfg: cfg, stopper: stopper, alarm: alarm}
}

// Feed records a heartbeat and re-arms.
func (w *Watchdog) Feed(now time.Time) {
	if w.latched {
		glog.Info("watchdog: re-armed by heartbeat")
	}
	w.last, w.latched = now, false
}

// Kick records a move command. It returns false when the command must be
// dropped because the watchdog is latched and moves do not clear it.
func (w *Watchdog) Kick(now time.Time) bool {
	if w.latched && !w.cfg.MotionClearsLatch {
		return false
	}
	w.last, w.latched = now, false
	return true
}

// Latched reports whether the timeout fired since the last liveness signal.
func (w *Watchdog) Latched() bool {
	return w.latched
}

// Timeout returns the configured timeout.
func (w *Watchdog) Timeout() time.Duration {
	return w.cfg.Timeout
}

// Tick fires once when more than Timeout passed since the last signal.
// The first Tick starts the clock.
func (w *Watchdog) Tick(now time.Time) error {
	if w.last.IsZero() {
		w.last = now
		return nil
	}
	if w.latched || w.cfg.Timeout <= 0 {
		return nil
	}
	elapsed := now.Sub(w.last)
	if elapsed <= w.cfg.Timeout {
		return nil
	}
	w.latched = true
	glog.Warningf("watchdog: no liveness for %v, stop", elapsed)
	err := w.stopper.Stop()
	if w.alarm != nil {
		w.alarm.WatchdogFired(now, elapsed)
	}
	return err
}

// Control implements fx.Controller.
func (w *Watchdog) Control(cc fx.ControlContext) error {
	return w.Tick(cc.Time())
}
