package status

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robotalks/buggy.go/pkg/motion"
	"github.com/robotalks/buggy.go/pkg/ranging"
)

// HelpText lists the command set.
const HelpText = "CMD: F/B/L/R<n>, AL/AR[<n>], S, P<deg>, T<n>, Q, H, PING, STAT?, VERBOSE,ON|OFF, HB, SWEEP,ON|OFF"

// Line prefixes.
const (
	PrefixStat  = "STAT"
	PrefixULS   = "ULS"
	PrefixDist  = "DIST"
	PrefixEvent = "EVENT"
	PrefixBoot  = "BOOT"
)

// Event names.
const (
	EventWatchdog   = "WATCHDOG"
	EventSafetyStop = "SAFETY_STOP"
)

// FormatStat formats the periodic status line.
func FormatStat(mode motion.Mode, left, right uint8, r ranging.Reading) string {
	return fmt.Sprintf("%s,%s,%d,%d,%s", PrefixStat, mode, left, right, r)
}

// FormatStructured formats the status line of the Q query.
func FormatStructured(mode motion.Mode, speed uint8, threshold int, r ranging.Reading, sweeping bool) string {
	sweep := 0
	if sweeping {
		sweep = 1
	}
	return fmt.Sprintf("%s mode=%c spd=%d thresh=%d last_cm=%s sweep=%d",
		PrefixStat, mode.Letter(), speed, threshold, r, sweep)
}

// FormatULS formats the range snapshot of the Q query.
// t is the age of the reading since boot.
func FormatULS(r ranging.Reading, angle int, t time.Duration) string {
	return fmt.Sprintf("%s cm=%s angle=%d t_ms=%d", PrefixULS, r, angle, t.Milliseconds())
}

// FormatDist formats the PING reply.
func FormatDist(r ranging.Reading) string {
	return PrefixDist + "," + r.String()
}

// FormatEvent formats a diagnostic event with key/value pairs.
func FormatEvent(name string, kv ...string) string {
	var sb strings.Builder
	sb.WriteString(PrefixEvent)
	sb.WriteByte(' ')
	sb.WriteString(name)
	for n := 0; n+1 < len(kv); n += 2 {
		sb.WriteByte(' ')
		sb.WriteString(kv[n])
		sb.WriteByte('=')
		sb.WriteString(kv[n+1])
	}
	return sb.String()
}

// FormatBoot formats the boot banner.
func FormatBoot(version string, bench bool) string {
	line := PrefixBoot + ",buggy," + version
	if bench {
		line += ",+BENCH"
	}
	return line
}

// ParseBoot extracts the firmware version and bench flag from a banner.
func ParseBoot(line string) (version string, bench bool, ok bool) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) < 3 || fields[0] != PrefixBoot || fields[1] != "buggy" {
		return "", false, false
	}
	for _, f := range fields[3:] {
		if f == "+BENCH" {
			bench = true
		}
	}
	return fields[2], bench, true
}

// ParseDist extracts the distance of a PING reply.
func ParseDist(line string) (ranging.Reading, bool) {
	val := strings.TrimPrefix(line, PrefixDist+",")
	if val == line {
		return ranging.Reading{}, false
	}
	if val == "NA" {
		return ranging.Reading{}, true
	}
	cm, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return ranging.Reading{}, false
	}
	return ranging.Reading{CM: cm, Valid: true}, true
}

func ms(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10)
}
