package watchdog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	stops  int
	alarms []time.Duration
}

func (r *recorder) Stop() error { r.stops++; return nil }

func (r *recorder) WatchdogFired(_ time.Time, elapsed time.Duration) {
	r.alarms = append(r.alarms, elapsed)
}

var t0 = time.Unix(4000, 0)

func ms(n int) time.Time {
	return t0.Add(time.Duration(n) * time.Millisecond)
}

func TestFiresOnceAfterTimeout(t *testing.T) {
	rec := &recorder{}
	w := New(Config{Timeout: 600 * time.Millisecond}, rec, rec)
	w.Feed(ms(0))
	require.NoError(t, w.Tick(ms(600)))
	require.Equal(t, 0, rec.stops)
	require.NoError(t, w.Tick(ms(601)))
	require.Equal(t, 1, rec.stops)
	require.True(t, w.Latched())
	for at := 602; at < 5000; at += 10 {
		require.NoError(t, w.Tick(ms(at)))
	}
	require.Equal(t, 1, rec.stops)
	require.Equal(t, []time.Duration{601 * time.Millisecond}, rec.alarms)

	w.Feed(ms(5000))
	require.False(t, w.Latched())
	require.NoError(t, w.Tick(ms(5601)))
	require.Equal(t, 2, rec.stops)
}

func TestFirstTickStartsClock(t *testing.T) {
	rec := &recorder{}
	w := New(Config{Timeout: 600 * time.Millisecond}, rec, nil)
	require.NoError(t, w.Tick(ms(10000)))
	require.NoError(t, w.Tick(ms(10600)))
	require.Equal(t, 0, rec.stops)
	require.NoError(t, w.Tick(ms(10601)))
	require.Equal(t, 1, rec.stops)
}

func TestKickLatchPolicy(t *testing.T) {
	testCases := []struct {
		name    string
		clears  bool
		allowed bool
	}{
		{"heartbeat only", false, false},
		{"motion clears", true, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorder{}
			w := New(Config{Timeout: 600 * time.Millisecond, MotionClearsLatch: tc.clears}, rec, rec)
			require.True(t, w.Kick(ms(0)))
			require.NoError(t, w.Tick(ms(700)))
			require.True(t, w.Latched())
			require.Equal(t, tc.allowed, w.Kick(ms(710)))
			require.Equal(t, !tc.allowed, w.Latched())
			w.Feed(ms(720))
			require.True(t, w.Kick(ms(730)))
		})
	}
}

func TestKickRefreshes(t *testing.T) {
	rec := &recorder{}
	w := New(Config{Timeout: 600 * time.Millisecond}, rec, rec)
	w.Feed(ms(0))
	w.Kick(ms(500))
	require.NoError(t, w.Tick(ms(1000)))
	require.Equal(t, 0, rec.stops)
}
