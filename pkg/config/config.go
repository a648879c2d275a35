package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/robotalks/buggy.go/pkg/l0/comm"
)

// Version is the firmware version announced in the boot banner.
var Version = "1.0.0"

// Config defines process level options of the daemons and tools.
type Config struct {
	Profile     string
	ProfileFile string

	Port     string
	BaudRate int
	Listen   string

	MQTTURL string
	RobotID string

	SimObstacleCM float64
}

var defaultConfig = Config{
	Profile:       ProfileBench,
	BaudRate:      comm.DefaultBaudRate,
	SimObstacleCM: 120,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Profile, "profile", defaultConfig.Profile, "Deployment profile: bench or autonomous.")
	flag.StringVar(&defaultConfig.ProfileFile, "profile-file", defaultConfig.ProfileFile, "YAML profile overriding the preset.")
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial port of the link.")
	flag.IntVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "Serial baud rate.")
	flag.StringVar(&defaultConfig.Listen, "listen", defaultConfig.Listen, "Serve the link over websocket at this address.")
	flag.StringVar(&defaultConfig.MQTTURL, "mqtt", defaultConfig.MQTTURL, "MQTT broker URL for telemetry, e.g. mqtt://localhost:1883/lab/.")
	flag.StringVar(&defaultConfig.RobotID, "id", defaultConfig.RobotID, "Robot ID, machine ID if empty.")
	flag.Float64Var(&defaultConfig.SimObstacleCM, "sim-obstacle", defaultConfig.SimObstacleCM, "Obstacle distance of the simulated sensor in cm.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// ID returns the robot ID.
func (c *Config) ID() string {
	if c.RobotID == "" {
		c.RobotID = MachineID()
	}
	return c.RobotID
}

// PortOptions returns the serial options.
func (c *Config) PortOptions() comm.PortOptions {
	return comm.PortOptions{BaudRate: c.BaudRate, ReadTimeout: 50 * time.Millisecond}
}

// NewProfile resolves the profile from the preset, the file and env.
func (c *Config) NewProfile() (Profile, error) {
	var (
		p   Profile
		err error
	)
	if c.ProfileFile != "" {
		p, err = LoadProfile(c.ProfileFile)
	} else {
		p, err = ProfileByName(c.Profile)
	}
	if err != nil {
		return p, err
	}
	if err := p.ApplyEnv(); err != nil {
		return p, fmt.Errorf("profile env: %w", err)
	}
	return p, nil
}
