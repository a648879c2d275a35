package joystick

import (
	"flag"
)

// Config defines the configurations for the controller.
type Config struct {
	DeviceIndex int
	Verbose     bool
	Mapping     Mapping
}

var defaultConfig = Config{
	DeviceIndex: -1,
	Mapping: Mapping{
		MaxSpeed: 200,
		Deadzone: 4000,
	},
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.IntVar(&defaultConfig.DeviceIndex, "device", defaultConfig.DeviceIndex, "Device index, -1 for auto detection.")
	flag.BoolVar(&defaultConfig.Verbose, "verbose", defaultConfig.Verbose, "Print Joystick events.")
	flag.IntVar(&defaultConfig.Mapping.MaxSpeed, "max-speed", defaultConfig.Mapping.MaxSpeed, "Speed of a fully deflected stick.")
	flag.IntVar(&defaultConfig.Mapping.Deadzone, "deadzone", defaultConfig.Mapping.Deadzone, "Axis values below this are centered.")
	flag.BoolVar(&defaultConfig.Mapping.Arc, "arc", defaultConfig.Mapping.Arc, "Use arc turns when both axes are deflected.")
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

// NewController creates a controller using the config.
func (c *Config) NewController(sender Sender) *Controller {
	ctl := NewController(sender)
	ctl.DeviceIndex = c.DeviceIndex
	ctl.Verbose = c.Verbose
	ctl.Mapping = c.Mapping
	return ctl
}
