package drive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRegister struct {
	latched []byte
	err     error
}

func (r *fakeRegister) Latch(b byte) error {
	if r.err != nil {
		return r.err
	}
	r.latched = append(r.latched, b)
	return nil
}

type fakeEnable struct {
	duties []uint8
}

func (e *fakeEnable) SetDuty(d uint8) error {
	e.duties = append(e.duties, d)
	return nil
}

func TestDefaultWiringValid(t *testing.T) {
	require.NoError(t, DefaultWiring.Validate())
	w := DefaultWiring
	w[3].B = 2
	require.Error(t, w.Validate())
}

func TestWiringImage(t *testing.T) {
	testCases := []struct {
		name        string
		left, right Direction
		image       byte
	}{
		{"neutral", Neutral, Neutral, 0},
		// M1 A=2, M2 reversed B=4, M3 A=5, M4 reversed B=6
		{"forward", Forward, Forward, 1<<2 | 1<<4 | 1<<5 | 1<<6},
		// M1 B=3, M2 reversed A=1, M3 B=7, M4 reversed A=0
		{"reverse", Reverse, Reverse, 1<<3 | 1<<1 | 1<<7 | 1<<0},
		{"spin left", Reverse, Forward, 1<<3 | 1<<1 | 1<<5 | 1<<6},
		{"left only", Forward, Neutral, 1<<2 | 1<<4},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.image, DefaultWiring.Image(tc.left, tc.right))
		})
	}
}

func TestOutputCommitsOncePerChange(t *testing.T) {
	reg, en := &fakeRegister{}, &fakeEnable{}
	out := NewOutput(reg, en)
	fwd := SideOutput{Dir: Forward, Intensity: 150}
	require.NoError(t, out.Apply(fwd, fwd, 150))
	require.NoError(t, out.Apply(fwd, fwd, 150))
	require.Len(t, reg.latched, 1)
	require.Equal(t, []uint8{150}, en.duties)

	require.NoError(t, out.Apply(fwd, fwd, 230))
	require.Len(t, reg.latched, 1)
	require.Equal(t, []uint8{150, 230}, en.duties)

	require.NoError(t, out.Release())
	require.Equal(t, byte(0), out.Image())
	require.Equal(t, uint8(0), out.Duty())
	require.Len(t, reg.latched, 2)
}

func TestOutputDigitalEnable(t *testing.T) {
	reg, en := &fakeRegister{}, &fakeEnable{}
	out := NewOutput(reg, en)
	out.Digital = true
	require.NoError(t, out.Apply(SideOutput{Dir: Forward}, SideOutput{Dir: Forward}, 150))
	require.NoError(t, out.Apply(SideOutput{}, SideOutput{}, 0))
	require.Equal(t, []uint8{255, 0}, en.duties)
}

func TestOutputLatchError(t *testing.T) {
	reg := &fakeRegister{err: errors.New("bus")}
	out := NewOutput(reg, &fakeEnable{})
	err := out.Apply(SideOutput{Dir: Forward}, SideOutput{}, 100)
	require.Error(t, err)
	require.True(t, errors.Is(err, reg.err))
}

func TestWiringSidesRoundTrip(t *testing.T) {
	dirs := []Direction{Reverse, Neutral, Forward}
	for _, l := range dirs {
		for _, r := range dirs {
			left, right := DefaultWiring.Sides(DefaultWiring.Image(l, r))
			require.Equal(t, l, left, "left %v/%v", l, r)
			require.Equal(t, r, right, "right %v/%v", l, r)
		}
	}
	require.Equal(t, Neutral, DefaultWiring[0].Dir(0xff))
}
