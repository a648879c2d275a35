package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/buggy.go/pkg/motion"
	"github.com/robotalks/buggy.go/pkg/ranging"
)

type fakeState struct {
	mode        motion.Mode
	left, right uint8
	global      uint8
	last        ranging.Reading
	threshold   int
	angle       int
	sweeping    bool
}

func (s *fakeState) Mode() motion.Mode           { return s.mode }
func (s *fakeState) Intensities() (uint8, uint8) { return s.left, s.right }
func (s *fakeState) GlobalIntensity() uint8      { return s.global }
func (s *fakeState) Last() ranging.Reading       { return s.last }
func (s *fakeState) Threshold() int              { return s.threshold }
func (s *fakeState) Current() int                { return s.angle }
func (s *fakeState) Sweeping() bool              { return s.sweeping }
func (s *fakeState) sources() Sources            { return Sources{s, s, s, s} }

type lineRecorder struct {
	lines []Line
}

func (r *lineRecorder) Emit(l Line) error {
	r.lines = append(r.lines, l)
	return nil
}

func (r *lineRecorder) texts() []string {
	var out []string
	for _, l := range r.lines {
		out = append(out, l.Text)
	}
	return out
}

var t0 = time.Unix(5000, 0)

func atMS(n int) time.Time {
	return t0.Add(time.Duration(n) * time.Millisecond)
}

func TestFormats(t *testing.T) {
	valid := ranging.Reading{CM: 87.24, Valid: true}
	require.Equal(t, "STAT,ARC_L,150,230,87.2", FormatStat(motion.ArcLeft, 150, 230, valid))
	require.Equal(t, "STAT,STOP,0,0,NA", FormatStat(motion.Stop, 0, 0, ranging.Reading{}))
	require.Equal(t, "STAT mode=L spd=160 thresh=30 last_cm=NA sweep=1",
		FormatStructured(motion.SpinLeft, 160, 30, ranging.Reading{}, true))
	require.Equal(t, "ULS cm=87.2 angle=90 t_ms=1500", FormatULS(valid, 90, 1500*time.Millisecond))
	require.Equal(t, "DIST,NA", FormatDist(ranging.Reading{}))
	require.Equal(t, "EVENT WATCHDOG ms=601", FormatEvent(EventWatchdog, "ms", "601"))
	require.Equal(t, "BOOT,buggy,1.2.0,+BENCH", FormatBoot("1.2.0", true))
	require.Equal(t, "BOOT,buggy,1.2.0", FormatBoot("1.2.0", false))
}

func TestParseReplies(t *testing.T) {
	ver, bench, ok := ParseBoot("BOOT,buggy,1.2.0,+BENCH\r\n")
	require.True(t, ok)
	require.True(t, bench)
	require.Equal(t, "1.2.0", ver)
	_, _, ok = ParseBoot("STAT,STOP,0,0,NA")
	require.False(t, ok)

	r, ok := ParseDist("DIST,42.5")
	require.True(t, ok)
	require.True(t, r.Valid)
	require.InDelta(t, 42.5, r.CM, 0.0001)
	r, ok = ParseDist("DIST,NA")
	require.True(t, ok)
	require.False(t, r.Valid)
	_, ok = ParseDist("STAT,STOP")
	require.False(t, ok)
}

func TestPeriodicStat(t *testing.T) {
	st := &fakeState{}
	rec := &lineRecorder{}
	r := NewReporter(Config{Period: 250 * time.Millisecond}, st.sources(), rec)
	r.Boot(atMS(0))
	for at := 0; at <= 1000; at += 10 {
		require.NoError(t, r.Tick(atMS(at)))
	}
	require.Len(t, rec.lines, 1)

	r.SetVerbose(true)
	for at := 1000; at <= 2000; at += 10 {
		require.NoError(t, r.Tick(atMS(at)))
	}
	// 1000, 1250, 1500, 1750, 2000
	require.Len(t, rec.lines, 6)
	require.Equal(t, KindStat, rec.lines[1].Kind)
}

func TestStatOnChange(t *testing.T) {
	st := &fakeState{}
	rec := &lineRecorder{}
	r := NewReporter(Config{StatOnChange: true}, st.sources(), rec)
	require.NoError(t, r.Tick(atMS(0)))
	require.Empty(t, rec.lines)
	st.mode, st.left, st.right = motion.ForwardSlow, 150, 150
	require.NoError(t, r.Tick(atMS(10)))
	require.NoError(t, r.Tick(atMS(20)))
	require.Equal(t, []string{"STAT,F_SLOW,150,150,NA"}, rec.texts())
}

func TestAlarms(t *testing.T) {
	st := &fakeState{mode: motion.Stop}
	rec := &lineRecorder{}
	r := NewReporter(Config{}, st.sources(), rec)
	r.WatchdogFired(atMS(601), 601*time.Millisecond)
	r.SafetyStop(ranging.Reading{CM: 40, Valid: true, At: atMS(700)})
	require.Equal(t, []string{
		"STAT,STOP,0,0,NA",
		"EVENT WATCHDOG ms=601",
		"STAT,STOP,0,0,NA",
		"EVENT SAFETY_STOP cm=40.0",
	}, rec.texts())
	require.Equal(t, KindEvent, rec.lines[3].Kind)
}

func TestQuery(t *testing.T) {
	st := &fakeState{mode: motion.ForwardFast, global: 200, threshold: 25, angle: 45,
		last: ranging.Reading{CM: 120, Valid: true, At: atMS(1500)}}
	rec := &lineRecorder{}
	r := NewReporter(Config{Version: "1.0.0"}, st.sources(), rec)
	r.Boot(atMS(0))
	r.Query(atMS(1600))
	require.Equal(t, []string{
		"BOOT,buggy,1.0.0",
		"STAT mode=F spd=200 thresh=25 last_cm=120.0 sweep=0",
		"ULS cm=120.0 angle=45 t_ms=1500",
	}, rec.texts())
}
