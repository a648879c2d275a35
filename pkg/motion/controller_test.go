package motion

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/buggy.go/pkg/drive"
)

type fakeDriver struct {
	applied  []Plan
	releases int
}

func (d *fakeDriver) Apply(left, right drive.SideOutput, global uint8) error {
	d.applied = append(d.applied, Plan{Left: left, Right: right, Global: global})
	return nil
}

func (d *fakeDriver) Release() error {
	d.releases++
	return nil
}

func (d *fakeDriver) last() Plan {
	return d.applied[len(d.applied)-1]
}

var t0 = time.Unix(1000, 0)

func ms(n int) time.Time {
	return t0.Add(time.Duration(n) * time.Millisecond)
}

func TestModeTable(t *testing.T) {
	const fast, slow = 230, 150
	fwd, rev, neu := drive.Forward, drive.Reverse, drive.Neutral
	side := func(dir drive.Direction, n uint8) drive.SideOutput {
		return drive.SideOutput{Dir: dir, Intensity: n}
	}
	testCases := []struct {
		mode   Mode
		expect Plan
	}{
		{Stop, Plan{side(neu, 0), side(neu, 0), 0}},
		{ForwardFast, Plan{side(fwd, fast), side(fwd, fast), fast}},
		{ForwardSlow, Plan{side(fwd, slow), side(fwd, slow), slow}},
		{BackwardSlow, Plan{side(rev, slow), side(rev, slow), slow}},
		{ArcLeft, Plan{side(fwd, slow), side(fwd, fast), fast}},
		{ArcRight, Plan{side(fwd, fast), side(fwd, slow), fast}},
		{SpinLeft, Plan{side(rev, slow), side(fwd, slow), slow}},
		{SpinRight, Plan{side(fwd, slow), side(rev, slow), slow}},
	}
	for _, tc := range testCases {
		t.Run(tc.mode.String(), func(t *testing.T) {
			d := &fakeDriver{}
			c := NewController(DefaultConfig(), d)
			c.SetMode(tc.mode)
			require.NoError(t, c.Tick(t0))
			if diff := cmp.Diff(tc.expect, d.last()); diff != "" {
				t.Errorf("applied mismatch (-want +got):\n%s", diff)
			}
			l, r := c.Intensities()
			require.Equal(t, tc.expect.Left.Intensity, l)
			require.Equal(t, tc.expect.Right.Intensity, r)
			require.Equal(t, tc.expect.Global, c.GlobalIntensity())
		})
	}
}

func TestModeNames(t *testing.T) {
	require.Equal(t, "ARC_L", ArcLeft.String())
	require.Equal(t, "SPIN_R", SpinRight.String())
	require.Equal(t, byte('F'), ArcRight.Letter())
	require.Equal(t, byte('B'), BackwardSlow.Letter())
	require.Equal(t, byte('S'), Stop.Letter())
	require.Equal(t, "Mode(42)", Mode(42).String())
}

func TestPulseUnderFastGlobal(t *testing.T) {
	d := &fakeDriver{}
	c := NewController(DefaultConfig(), d)
	c.SetMode(ArcLeft)
	expect := map[int]drive.Direction{
		0: drive.Forward, 35: drive.Forward, 40: drive.Neutral, 50: drive.Neutral,
		55: drive.Forward, 90: drive.Forward, 95: drive.Neutral, 110: drive.Forward,
	}
	for at := 0; at <= 110; at += 5 {
		require.NoError(t, c.Tick(ms(at)))
		p := d.last()
		require.Equal(t, drive.Forward, p.Right.Dir, "right side is fast at %dms", at)
		if dir, ok := expect[at]; ok {
			require.Equal(t, dir, p.Left.Dir, "left side at %dms", at)
		}
		l, _ := c.Intensities()
		require.Equal(t, uint8(150), l)
	}
}

func TestNoPulseUnderSlowGlobal(t *testing.T) {
	d := &fakeDriver{}
	c := NewController(DefaultConfig(), d)
	c.SetMode(SpinLeft)
	for at := 0; at <= 120; at += 5 {
		require.NoError(t, c.Tick(ms(at)))
		require.Equal(t, drive.Reverse, d.last().Left.Dir)
		require.Equal(t, drive.Forward, d.last().Right.Dir)
	}
}

func TestRedundantSetModeKeepsPhase(t *testing.T) {
	d := &fakeDriver{}
	c := NewController(DefaultConfig(), d)
	c.SetMode(ArcLeft)
	require.NoError(t, c.Tick(ms(0)))
	require.NoError(t, c.Tick(ms(45)))
	require.Equal(t, drive.Neutral, d.last().Left.Dir)
	c.SetMode(ArcLeft)
	require.NoError(t, c.Tick(ms(50)))
	require.Equal(t, drive.Neutral, d.last().Left.Dir)

	// a mode change does not reset the phase either
	c.SetMode(ArcRight)
	require.NoError(t, c.Tick(ms(52)))
	require.Equal(t, drive.Neutral, d.last().Right.Dir)
	require.Equal(t, drive.Forward, d.last().Left.Dir)
	require.NoError(t, c.Tick(ms(55)))
	require.Equal(t, drive.Forward, d.last().Right.Dir)
}

func TestSpeedOverride(t *testing.T) {
	d := &fakeDriver{}
	c := NewController(DefaultConfig(), d)
	c.SetMode(ArcLeft)
	c.SetSpeedOverride(200)
	require.NoError(t, c.Tick(ms(0)))
	require.NoError(t, c.Tick(ms(45)))
	// override below the fast tier disables pulsing
	require.Equal(t, uint8(200), d.last().Global)
	require.Equal(t, drive.Forward, d.last().Left.Dir)

	c.SetMode(Stop)
	require.NoError(t, c.Tick(ms(50)))
	require.Equal(t, uint8(0), d.last().Global)
	n, ok := c.SpeedOverride()
	require.True(t, ok)
	require.Equal(t, uint8(200), n)
}

func TestPulseUnderOverride(t *testing.T) {
	cases := []struct {
		mode     Mode
		override uint8
		pulsed   bool
	}{
		{ArcLeft, 230, true},
		{ArcLeft, 255, false},
		{BackwardSlow, 240, false},
		{SpinLeft, 255, false},
		{SpinLeft, 230, true},
	}
	for _, tc := range cases {
		d := &fakeDriver{}
		c := NewController(DefaultConfig(), d)
		c.SetMode(tc.mode)
		c.SetSpeedOverride(tc.override)
		require.NoError(t, c.Tick(ms(0)))
		require.NoError(t, c.Tick(ms(45)))
		p := d.last()
		require.Equal(t, tc.override, p.Global)
		require.Equal(t, tc.pulsed, p.Left.Dir == drive.Neutral, "%v at %d", tc.mode, tc.override)
	}
}

func TestStopReleasesImmediately(t *testing.T) {
	d := &fakeDriver{}
	c := NewController(DefaultConfig(), d)
	c.SetMode(ForwardFast)
	c.SetSpeedOverride(100)
	require.NoError(t, c.Tick(ms(0)))
	require.NoError(t, c.Stop())
	require.Equal(t, 1, d.releases)
	require.Equal(t, Stop, c.Mode())
	_, ok := c.SpeedOverride()
	require.False(t, ok)
	require.Equal(t, Plan{}, c.Applied())
}
