package config

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// appID salts the machine ID so it is not exposed verbatim.
const appID = "buggy"

// MachineID retrieves the ID identifying the robot, falling back to the
// hostname when the platform has no machine ID.
func MachineID() string {
	id, err := machineid.ProtectedID(appID)
	if err == nil {
		return id[:12]
	}
	glog.Warningf("machine id: %v", err)
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "unknown"
}
