package buggy

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/buggy.go/pkg/config"
	fx "github.com/robotalks/buggy.go/pkg/framework"
	"github.com/robotalks/buggy.go/pkg/l0/comm"
	"github.com/robotalks/buggy.go/pkg/motion"
	"github.com/robotalks/buggy.go/pkg/sim"
	"github.com/robotalks/buggy.go/pkg/status"
)

type robotTestEnv struct {
	t     *testing.T
	robot *Robot
	bench *sim.Bench
	loop  *fx.Loop
	clock Clock
	lines []status.Line
}

func newRobotTestEnv(t *testing.T, p config.Profile, wallCM float64) *robotTestEnv {
	e := &robotTestEnv{
		t:     t,
		bench: sim.NewBench(sim.WallAhead(wallCM), p.Servo().Initial),
		loop:  fx.NewLoop(),
		clock: Clock{Now: time.Unix(1000, 0), Step: 5 * time.Millisecond},
	}
	robot, err := New(p, "1.0.0", Hardware{
		Register: e.bench.Register,
		Enable:   e.bench.Enable,
		Servo:    e.bench.Servo,
		Echo:     e.bench.Sonar,
	})
	require.NoError(t, err)
	robot.Status.AddSink(status.SinkFunc(func(l status.Line) error {
		e.lines = append(e.lines, l)
		return nil
	}))
	e.robot = robot
	e.loop.Add(robot).AddController(fx.PrLvIdle, e.bench.Chassis)
	return e
}

func (e *robotTestEnv) run(d time.Duration) {
	end := e.clock.Now.Add(d)
	for e.clock.Now.Before(end) {
		e.loop.Step(context.Background(), e.clock.Tick())
	}
}

func (e *robotTestEnv) send(lines ...string) {
	for _, line := range lines {
		InputLine(e.loop, line)
	}
}

func (e *robotTestEnv) texts(prefix string) []string {
	var out []string
	for _, l := range e.lines {
		if strings.HasPrefix(l.Text, prefix) {
			out = append(out, l.Text)
		}
	}
	return out
}

func TestRobotBoot(t *testing.T) {
	e := newRobotTestEnv(t, config.Bench(), 100)
	e.run(5 * time.Millisecond)
	require.NotEmpty(t, e.lines)
	require.Equal(t, "BOOT,buggy,1.0.0,+BENCH", e.lines[0].Text)
	require.Equal(t, status.KindBoot, e.lines[0].Kind)
	require.Equal(t, byte(0), e.bench.Register.Image())
	require.Equal(t, uint8(0), e.bench.Enable.Duty())
	require.Equal(t, 90, e.bench.Servo.Angle())

	e.run(time.Second)
	require.Len(t, e.texts(status.PrefixBoot), 1)
	require.False(t, e.bench.Servo.Attached())
}

func TestRobotMissingHardware(t *testing.T) {
	_, err := New(config.Bench(), "1.0.0", Hardware{})
	require.Error(t, err)
}

func TestRobotPingAndQuery(t *testing.T) {
	e := newRobotTestEnv(t, config.Bench(), 100)
	e.send("PING")
	e.run(5 * time.Millisecond)
	require.Equal(t, []string{"DIST,NA"}, e.texts(status.PrefixDist))

	e.run(200 * time.Millisecond)
	e.send("PING", "Q")
	e.run(5 * time.Millisecond)
	require.Equal(t, []string{"DIST,NA", "DIST,100.0"}, e.texts(status.PrefixDist))
	require.Equal(t, []string{"STAT mode=S spd=0 thresh=0 last_cm=100.0 sweep=0"}, e.texts("STAT mode="))
	require.Len(t, e.texts(status.PrefixULS), 1)
	require.Contains(t, e.texts(status.PrefixULS)[0], "cm=100.0 angle=90")
}

func TestRobotSafetyStopBeforeWall(t *testing.T) {
	e := newRobotTestEnv(t, config.Bench(), 100)
	e.run(200 * time.Millisecond)
	e.send("T30", "F")
	e.run(5 * time.Millisecond)
	require.Equal(t, motion.ForwardFast, e.robot.Motion.Mode())
	require.NotZero(t, e.bench.Register.Image())

	e.run(3 * time.Second)
	require.Equal(t, motion.Stop, e.robot.Motion.Mode())
	require.Equal(t, byte(0), e.bench.Register.Image())
	require.Equal(t, uint8(0), e.bench.Enable.Duty())
	x := e.bench.Chassis.Pose().X
	require.True(t, x > 60 && x < 97, "stopped at %v", x)
	events := e.texts(status.PrefixEvent)
	require.NotEmpty(t, events)
	for _, ev := range events {
		require.True(t, strings.HasPrefix(ev, "EVENT SAFETY_STOP cm="), ev)
	}
}

func TestRobotWatchdogLatch(t *testing.T) {
	e := newRobotTestEnv(t, config.Autonomous(), 1000)
	e.send("F,SLOW")
	e.run(5 * time.Millisecond)
	require.Equal(t, motion.ForwardSlow, e.robot.Motion.Mode())

	e.run(700 * time.Millisecond)
	require.Equal(t, motion.Stop, e.robot.Motion.Mode())
	require.True(t, e.robot.Snapshot().Latched)
	require.Len(t, e.texts("EVENT WATCHDOG"), 1)

	e.send("F")
	e.run(5 * time.Millisecond)
	require.Equal(t, motion.Stop, e.robot.Motion.Mode())

	e.send("HB", "B")
	e.run(5 * time.Millisecond)
	require.Equal(t, motion.BackwardSlow, e.robot.Motion.Mode())
	require.False(t, e.robot.Snapshot().Latched)

	e.run(time.Second)
	require.Len(t, e.texts("EVENT WATCHDOG"), 2)
}

func TestRobotInputsAssembleLinesPerSource(t *testing.T) {
	e := newRobotTestEnv(t, config.Bench(), 1000)
	serial := NewInput(e.loop)
	serial.Write([]byte("F200\n"))
	e.run(5 * time.Millisecond)
	require.Equal(t, motion.ForwardFast, e.robot.Motion.Mode())

	serial.Write([]byte("P4"))
	InputLine(e.loop, "S")
	e.run(20 * time.Millisecond)
	require.Equal(t, motion.Stop, e.robot.Motion.Mode())
	require.Equal(t, 90, e.robot.Snapshot().Aim)

	serial.Write([]byte("5\n"))
	e.run(5 * time.Millisecond)
	require.Equal(t, 45, e.robot.Aim.Target())
}

func TestRobotSweep(t *testing.T) {
	e := newRobotTestEnv(t, config.Bench(), 100)
	e.send("SWEEP,ON")
	e.run(time.Second)
	require.True(t, e.robot.Snapshot().Sweeping)
	require.NotEqual(t, 1, e.bench.Servo.Writes())

	e.send("P30")
	e.run(500 * time.Millisecond)
	s := e.robot.Snapshot()
	require.False(t, s.Sweeping)
	require.Equal(t, 30, s.Aim)
	require.Equal(t, 30, e.bench.Servo.Angle())
}

func TestRobotAttachLink(t *testing.T) {
	e := newRobotTestEnv(t, config.Bench(), 100)
	local, peer := net.Pipe()
	defer peer.Close()
	link := comm.NewLink(local)
	detach := e.robot.Attach(e.loop, link)
	require.Equal(t, 1, e.robot.Links().Len())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go link.Run(ctx)
	require.Eventually(t, link.Ready, time.Second, time.Millisecond)

	replies := make(chan string, 16)
	go func() {
		reader := bufio.NewReader(peer)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			replies <- strings.TrimSpace(line)
		}
	}()

	_, err := peer.Write([]byte("AL\nPING\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return e.loop.PendingMessages() > 0
	}, time.Second, time.Millisecond)
	e.run(5 * time.Millisecond)
	require.Equal(t, motion.ArcLeft, e.robot.Motion.Mode())

	var got []string
	for len(got) < 2 {
		select {
		case line := <-replies:
			got = append(got, line)
		case <-time.After(time.Second):
			t.Fatalf("missing replies, got %v", got)
		}
	}
	require.Equal(t, []string{"BOOT,buggy,1.0.0,+BENCH", "DIST,NA"}, got)

	detach()
	require.Zero(t, e.robot.Links().Len())
}
