package sh

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/semver"
	"github.com/golang/glog"

	"github.com/robotalks/buggy.go/pkg/l0/comm"
	"github.com/robotalks/buggy.go/pkg/proto"
	"github.com/robotalks/buggy.go/pkg/status"
)

// FirmwareConstraint is the range of firmware versions the shell accepts.
var FirmwareConstraint = ">= 1.0.0, < 2.0.0"

// Banner is the parsed boot banner.
type Banner struct {
	Version *semver.Version
	Bench   bool
}

func (b Banner) benchSuffix() string {
	if b.Bench {
		return " (bench)"
	}
	return ""
}

// CheckBanner parses a boot banner and checks the version against the
// constraint. A line which is not a banner returns a zero Banner and no
// error.
func CheckBanner(line, constraint string) (Banner, error) {
	ver, bench, ok := status.ParseBoot(line)
	if !ok {
		return Banner{}, nil
	}
	v, err := semver.NewVersion(ver)
	if err != nil {
		return Banner{}, fmt.Errorf("firmware version %q: %w", ver, err)
	}
	banner := Banner{Version: v, Bench: bench}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return banner, fmt.Errorf("firmware constraint %q: %w", constraint, err)
	}
	if !c.Check(v) {
		return banner, fmt.Errorf("firmware %s does not satisfy %s", v, constraint)
	}
	return banner, nil
}

// Heartbeat sends HB periodically to keep the watchdog armed.
type Heartbeat struct {
	Client *comm.Client
	Period time.Duration
}

// Name implements fx.Named.
func (h *Heartbeat) Name() string {
	return "heartbeat"
}

// Run implements fx.Runnable.
func (h *Heartbeat) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.Period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := h.Client.Send(string(proto.OpHeartbeat)); err != nil && err != comm.ErrNotReady {
				glog.Warningf("heartbeat: %v", err)
			}
		}
	}
}
