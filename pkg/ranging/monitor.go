package ranging

import (
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/buggy.go/pkg/framework"
)

// Stopper halts motion.
type Stopper interface {
	Stop() error
}

// Alarm receives safety stop notifications.
type Alarm interface {
	SafetyStop(Reading)
}

// MonitorConfig defines safety monitor sampling.
type MonitorConfig struct {
	// Debounce is the minimum interval between samples.
	Debounce time.Duration
	// Hits is the consecutive close readings that trigger a stop.
	Hits int
	// Threshold in cm, 0 disables the monitor.
	Threshold int
}

// DefaultMonitorConfig returns a disabled monitor sampling every 60ms.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{Debounce: 60 * time.Millisecond, Hits: 3}
}

// SafetyMonitor stops motion when an obstacle stays below the threshold.
// The counter restarts after each stop, so a lingering obstacle alarms again
// after another run of hits.
type SafetyMonitor struct {
	cfg     MonitorConfig
	sensor  *Sensor
	stopper Stopper
	alarm   Alarm

	hits       int
	lastSample time.Time
}

// NewSafetyMonitor creates a SafetyMonitor. alarm may be nil.
func NewSafetyMonitor(cfg MonitorConfig, sensor *Sensor, stopper Stopper, alarm Alarm) *SafetyMonitor {
	if cfg.Hits <= 0 {
		cfg.Hits = 3
	}
	if cfg.Threshold < 0 {
		cfg.Threshold = 0
	}
	return &SafetyMonitor{cfg: cfg, sensor: sensor, stopper: stopper, alarm: alarm}
}

// SetThreshold sets the stop distance, 0 disables.
func (m *SafetyMonitor) SetThreshold(cm int) {
	if cm < 0 {
		cm = 0
	}
	m.cfg.Threshold = cm
	m.hits = 0
}

// Threshold returns the stop distance.
func (m *SafetyMonitor) Threshold() int {
	return m.cfg.Threshold
}

// Hits returns the current consecutive hit count.
func (m *SafetyMonitor) Hits() int {
	return m.hits
}

// Tick samples the sensor at most once per Debounce.
func (m *SafetyMonitor) Tick(now time.Time) error {
	if m.cfg.Threshold == 0 {
		m.hits = 0
		return nil
	}
	if !m.lastSample.IsZero() && now.Sub(m.lastSample) < m.cfg.Debounce {
		return nil
	}
	m.lastSample = now
	r := m.sensor.Measure(now)
	if !r.Valid || r.CM >= float64(m.cfg.Threshold) {
		m.hits = 0
		return nil
	}
	m.hits++
	if m.hits < m.cfg.Hits {
		return nil
	}
	m.hits = 0
	glog.Warningf("ranging: obstacle at %scm below %dcm, stop", r, m.cfg.Threshold)
	err := m.stopper.Stop()
	if m.alarm != nil {
		m.alarm.SafetyStop(r)
	}
	return err
}

// Control implements fx.Controller.
func (m *SafetyMonitor) Control(cc fx.ControlContext) error {
	return m.Tick(cc.Time())
}
