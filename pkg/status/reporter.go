// Package status formats outbound lines and fans them out to sinks.
package status

import (
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/buggy.go/pkg/framework"
	"github.com/robotalks/buggy.go/pkg/motion"
	"github.com/robotalks/buggy.go/pkg/ranging"
)

// Kind classifies an outbound line.
type Kind int

// Kinds.
const (
	KindReply Kind = iota
	KindStat
	KindEvent
	KindBoot
)

func (k Kind) String() string {
	switch k {
	case KindStat:
		return "stat"
	case KindEvent:
		return "event"
	case KindBoot:
		return "boot"
	}
	return "reply"
}

// Line is one outbound protocol line without terminator.
type Line struct {
	Kind Kind
	Text string
	At   time.Time
}

// Sink consumes outbound lines.
type Sink interface {
	Emit(Line) error
}

// SinkFunc is the func form of Sink.
type SinkFunc func(Line) error

// Emit implements Sink.
func (f SinkFunc) Emit(l Line) error {
	return f(l)
}

// MotionState is the motion view needed by status lines.
type MotionState interface {
	Mode() motion.Mode
	Intensities() (left, right uint8)
	GlobalIntensity() uint8
}

// RangeState is the ranging view needed by status lines.
type RangeState interface {
	Last() ranging.Reading
}

// ThresholdState exposes the safety threshold.
type ThresholdState interface {
	Threshold() int
}

// AimState is the servo view needed by status lines.
type AimState interface {
	Current() int
	Sweeping() bool
}

// Config defines reporting policy.
type Config struct {
	Period       time.Duration
	Verbose      bool
	StatOnChange bool
	Version      string
	Bench        bool
}

// Sources groups the component views read by the Reporter.
type Sources struct {
	Motion    MotionState
	Range     RangeState
	Threshold ThresholdState
	Aim       AimState
}

// Reporter emits status lines.
type Reporter struct {
	cfg   Config
	src   Sources
	sinks []Sink

	boot     time.Time
	lastStat time.Time
	lastMode motion.Mode
}

// NewReporter creates a Reporter.
func NewReporter(cfg Config, src Sources, sinks ...Sink) *Reporter {
	return &Reporter{cfg: cfg, src: src, sinks: sinks}
}

// SetThresholdSource sets the threshold view, for monitors created after
// the Reporter they alarm.
func (r *Reporter) SetThresholdSource(t ThresholdState) {
	r.src.Threshold = t
}

// AddSink appends sinks.
func (r *Reporter) AddSink(sinks ...Sink) {
	r.sinks = append(r.sinks, sinks...)
}

// SetVerbose toggles periodic STAT.
func (r *Reporter) SetVerbose(on bool) {
	r.cfg.Verbose = on
}

// Verbose reports whether periodic STAT is on.
func (r *Reporter) Verbose() bool {
	return r.cfg.Verbose
}

// Emit sends a line to every sink. Sink errors are logged, not returned.
func (r *Reporter) Emit(kind Kind, text string, now time.Time) {
	l := Line{Kind: kind, Text: text, At: now}
	for _, s := range r.sinks {
		if err := s.Emit(l); err != nil {
			glog.Errorf("status: emit %s: %v", kind, err)
		}
	}
}

// Boot emits the banner and marks the boot time.
func (r *Reporter) Boot(now time.Time) {
	r.boot, r.lastStat = now, now
	r.Emit(KindBoot, FormatBoot(r.cfg.Version, r.cfg.Bench), now)
}

// Stat emits one STAT line.
func (r *Reporter) Stat(now time.Time) {
	m := r.src.Motion
	left, right := m.Intensities()
	r.Emit(KindStat, FormatStat(m.Mode(), left, right, r.src.Range.Last()), now)
}

// Query emits the structured status and range snapshot.
func (r *Reporter) Query(now time.Time) {
	last := r.src.Range.Last()
	r.Emit(KindStat, FormatStructured(r.src.Motion.Mode(), r.src.Motion.GlobalIntensity(),
		r.src.Threshold.Threshold(), last, r.src.Aim.Sweeping()), now)
	var age time.Duration
	if !last.At.IsZero() && !r.boot.IsZero() {
		age = last.At.Sub(r.boot)
	}
	r.Emit(KindStat, FormatULS(last, r.src.Aim.Current(), age), now)
}

// Dist emits a PING reply.
func (r *Reporter) Dist(reading ranging.Reading, now time.Time) {
	r.Emit(KindReply, FormatDist(reading), now)
}

// Help emits the command list.
func (r *Reporter) Help(now time.Time) {
	r.Emit(KindReply, HelpText, now)
}

// WatchdogFired implements watchdog.Alarm.
func (r *Reporter) WatchdogFired(now time.Time, elapsed time.Duration) {
	r.alarm(FormatEvent(EventWatchdog, "ms", ms(elapsed)), now)
}

// SafetyStop implements ranging.Alarm.
func (r *Reporter) SafetyStop(reading ranging.Reading) {
	r.alarm(FormatEvent(EventSafetyStop, "cm", reading.String()), reading.At)
}

func (r *Reporter) alarm(event string, now time.Time) {
	r.Stat(now)
	r.Emit(KindEvent, event, now)
}

// Tick emits periodic and change-driven STAT lines.
func (r *Reporter) Tick(now time.Time) error {
	mode := r.src.Motion.Mode()
	changed := mode != r.lastMode
	r.lastMode = mode
	switch {
	case r.cfg.Verbose && r.cfg.Period > 0 && now.Sub(r.lastStat) >= r.cfg.Period:
	case r.cfg.StatOnChange && changed:
	default:
		return nil
	}
	r.lastStat = now
	r.Stat(now)
	return nil
}

// Control implements fx.Controller.
func (r *Reporter) Control(cc fx.ControlContext) error {
	return r.Tick(cc.Time())
}
