package ranging

import "time"

// MeasurePulse polls level until a high pulse has risen and fallen and
// returns its width. One deadline bounds both the wait for the rising
// edge and the pulse itself, so the call never blocks much beyond
// timeout. now is time.Now when nil.
func MeasurePulse(level func() bool, timeout time.Duration, now func() time.Time) (time.Duration, error) {
	if now == nil {
		now = time.Now
	}
	deadline := now().Add(timeout)
	for !level() {
		if now().After(deadline) {
			return 0, ErrNoEcho
		}
	}
	start := now()
	for level() {
		if now().After(deadline) {
			return 0, ErrNoEcho
		}
	}
	return now().Sub(start), nil
}
