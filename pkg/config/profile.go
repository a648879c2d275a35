// Package config selects the deployment profile and the process options.
package config

import (
	"fmt"
	"io/ioutil"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v2"

	"github.com/robotalks/buggy.go/pkg/motion"
	"github.com/robotalks/buggy.go/pkg/proto"
	"github.com/robotalks/buggy.go/pkg/ranging"
	"github.com/robotalks/buggy.go/pkg/servo"
	"github.com/robotalks/buggy.go/pkg/status"
	"github.com/robotalks/buggy.go/pkg/watchdog"
)

// Profile names.
const (
	ProfileBench      = "bench"
	ProfileAutonomous = "autonomous"
)

// Profile is the deployment profile. Bench favours manual testing from a
// terminal, autonomous expects a host sending heartbeats continuously.
type Profile struct {
	Name  string `yaml:"name"`
	Bench bool   `yaml:"bench"`

	Fast          uint8         `yaml:"pwm_fast" env:"BUGGY_PWM_FAST"`
	Slow          uint8         `yaml:"pwm_slow" env:"BUGGY_PWM_SLOW"`
	DefaultSpeed  int           `yaml:"default_speed" env:"BUGGY_DEFAULT_SPEED"`
	PulseOn       time.Duration `yaml:"pulse_on"`
	PulseOff      time.Duration `yaml:"pulse_off"`
	DigitalEnable bool          `yaml:"digital_enable"`

	HeartbeatTimeout  time.Duration `yaml:"heartbeat_timeout" env:"BUGGY_HB_TIMEOUT"`
	MotionClearsLatch bool          `yaml:"motion_clears_latch"`

	ServoSettle    time.Duration `yaml:"servo_settle"`
	DetachWhenIdle bool          `yaml:"servo_detach_idle" env:"BUGGY_SERVO_DETACH"`
	SweepMin       int           `yaml:"sweep_min"`
	SweepMax       int           `yaml:"sweep_max"`
	SweepStep      int           `yaml:"sweep_step"`
	SweepDwell     time.Duration `yaml:"sweep_dwell"`

	MeasureCooldown time.Duration `yaml:"measure_cooldown"`
	EchoTimeout     time.Duration `yaml:"echo_timeout"`
	MinCM           float64       `yaml:"dist_min_cm"`
	MaxCM           float64       `yaml:"dist_max_cm"`
	SafetyDebounce  time.Duration `yaml:"safety_debounce"`
	SafetyThreshold int           `yaml:"safety_threshold" env:"BUGGY_SAFETY_CM"`

	StatPeriod   time.Duration `yaml:"stat_period"`
	Verbose      bool          `yaml:"verbose" env:"BUGGY_VERBOSE"`
	StatOnChange bool          `yaml:"stat_on_change"`

	LoopInterval time.Duration `yaml:"loop_interval"`
}

// Bench returns the profile for manual testing: long heartbeat timeout,
// silent by default, digital enable line.
func Bench() Profile {
	m, s, r := motion.DefaultConfig(), servo.DefaultConfig(), ranging.DefaultConfig()
	return Profile{
		Name:              ProfileBench,
		Bench:             true,
		Fast:              m.Fast,
		Slow:              m.Slow,
		DefaultSpeed:      proto.DefaultSpeed,
		PulseOn:           m.PulseOn,
		PulseOff:          m.PulseOff,
		DigitalEnable:     true,
		HeartbeatTimeout:  60 * time.Second,
		MotionClearsLatch: true,
		ServoSettle:       s.Settle,
		DetachWhenIdle:    true,
		SweepMin:          s.SweepMin,
		SweepMax:          s.SweepMax,
		SweepStep:         s.SweepStep,
		SweepDwell:        s.SweepDwell,
		MeasureCooldown:   r.Cooldown,
		EchoTimeout:       r.EchoTimeout,
		MinCM:             r.MinCM,
		MaxCM:             r.MaxCM,
		SafetyDebounce:    ranging.DefaultMonitorConfig().Debounce,
		StatPeriod:        250 * time.Millisecond,
		LoopInterval:      5 * time.Millisecond,
	}
}

// Autonomous returns the profile for host driven operation: short
// heartbeat timeout, only heartbeats clear the latch, periodic STAT.
func Autonomous() Profile {
	p := Bench()
	p.Name, p.Bench = ProfileAutonomous, false
	p.DigitalEnable = false
	p.HeartbeatTimeout = 600 * time.Millisecond
	p.MotionClearsLatch = false
	p.DetachWhenIdle = false
	p.Verbose = true
	p.StatOnChange = true
	return p
}

// ProfileByName returns a preset.
func ProfileByName(name string) (Profile, error) {
	switch name {
	case ProfileBench, "":
		return Bench(), nil
	case ProfileAutonomous:
		return Autonomous(), nil
	}
	return Profile{}, fmt.Errorf("unknown profile %q", name)
}

// LoadProfile reads a YAML file over the preset it names (bench if unset).
func LoadProfile(filename string) (Profile, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return Profile{}, err
	}
	return ParseProfile(data)
}

// ParseProfile parses YAML over the preset it names.
func ParseProfile(data []byte) (Profile, error) {
	var head struct {
		Name string `yaml:"name"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return Profile{}, fmt.Errorf("parse profile: %w", err)
	}
	p, err := ProfileByName(head.Name)
	if err != nil {
		return p, err
	}
	if err := yaml.UnmarshalStrict(data, &p); err != nil {
		return p, fmt.Errorf("parse profile: %w", err)
	}
	return p, p.Validate()
}

// ApplyEnv overrides fields from BUGGY_* environment variables.
func (p *Profile) ApplyEnv() error {
	if err := env.Parse(p); err != nil {
		return err
	}
	return p.Validate()
}

// Validate checks the profile is usable.
func (p Profile) Validate() error {
	switch {
	case p.Slow > p.Fast:
		return fmt.Errorf("pwm_slow %d above pwm_fast %d", p.Slow, p.Fast)
	case p.PulseOn <= 0 || p.PulseOff < 0:
		return fmt.Errorf("invalid pulse %v/%v", p.PulseOn, p.PulseOff)
	case p.MinCM < 0 || p.MaxCM <= p.MinCM:
		return fmt.Errorf("invalid distance band [%v, %v]", p.MinCM, p.MaxCM)
	case p.SweepMin > p.SweepMax:
		return fmt.Errorf("sweep_min %d above sweep_max %d", p.SweepMin, p.SweepMax)
	case p.DefaultSpeed < 0 || p.DefaultSpeed > 255:
		return fmt.Errorf("default_speed %d out of range", p.DefaultSpeed)
	}
	return nil
}

// Motion returns the motion controller config.
func (p Profile) Motion() motion.Config {
	return motion.Config{Fast: p.Fast, Slow: p.Slow, PulseOn: p.PulseOn, PulseOff: p.PulseOff}
}

// Tiers returns the legacy alias speeds.
func (p Profile) Tiers() proto.Tiers {
	return proto.Tiers{Fast: p.Fast, Slow: p.Slow}
}

// Watchdog returns the watchdog config.
func (p Profile) Watchdog() watchdog.Config {
	return watchdog.Config{Timeout: p.HeartbeatTimeout, MotionClearsLatch: p.MotionClearsLatch}
}

// Servo returns the positioner config.
func (p Profile) Servo() servo.Config {
	return servo.Config{
		Settle:         p.ServoSettle,
		DetachWhenIdle: p.DetachWhenIdle,
		Initial:        proto.DefaultAim,
		SweepMin:       p.SweepMin,
		SweepMax:       p.SweepMax,
		SweepStep:      p.SweepStep,
		SweepDwell:     p.SweepDwell,
	}
}

// Ranging returns the sensor config.
func (p Profile) Ranging() ranging.Config {
	return ranging.Config{Cooldown: p.MeasureCooldown, EchoTimeout: p.EchoTimeout, MinCM: p.MinCM, MaxCM: p.MaxCM}
}

// Monitor returns the safety monitor config.
func (p Profile) Monitor() ranging.MonitorConfig {
	return ranging.MonitorConfig{Debounce: p.SafetyDebounce, Hits: 3, Threshold: p.SafetyThreshold}
}

// Status returns the reporter config.
func (p Profile) Status(version string) status.Config {
	return status.Config{
		Period:       p.StatPeriod,
		Verbose:      p.Verbose,
		StatOnChange: p.StatOnChange,
		Version:      version,
		Bench:        p.Bench,
	}
}
