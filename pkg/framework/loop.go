package framework

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the iteration period when Loop.Interval is unset.
// Pulse emulation in the motion controller needs iterations well below 20ms.
const DefaultInterval = 5 * time.Millisecond

// Loop is the cooperative scheduler. Each iteration runs every
// registered controller once, ordered by priority level.
type Loop struct {
	Interval time.Duration
	// Overrun is the iteration duration above which a warning is logged.
	// Zero disables the check.
	Overrun time.Duration
	// Clock provides the iteration time, time.Now when nil.
	Clock func() time.Time

	levels  [PriorityLevels]level
	runners []Runnable

	inbox     []Message
	inboxLock sync.Mutex

	stats     LoopStats
	statsLock sync.Mutex

	wakeUpCh chan struct{}
}

// LoopStats counts iterations and overruns.
type LoopStats struct {
	Iterations uint64
	Overruns   uint64
	MaxElapsed time.Duration
}

// LoopAdder registers its controllers and runners to a loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type level struct {
	controllers []Controller

	lock sync.Mutex
	pre  []Controller
	post []Controller
}

type loopCtxKey struct{}

// LoopCtlFrom gets the LoopControl of the loop running the Runnable.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey{}).(LoopControl)
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers at a level. Controllers at the
// same level run in registration order. Controllers which are also
// Runnable are started with the loop.
func (l *Loop) AddController(lv int, ctls ...Controller) *Loop {
	l.levels[lv].controllers = append(l.levels[lv].controllers, ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnables started with the loop.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable. Runnables added to the loop run until it
// returns, and find the loop with LoopCtlFrom.
func (l *Loop) Run(ctx context.Context) error {
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}

	runner := NewRunnerWith(context.WithValue(ctx, loopCtxKey{}, LoopControl(l)))
	runner.Go(l.runners...)
	defer runner.Wait()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-l.wakeUpCh:
		}
		l.iterate(ctx, l.now())
	}
}

// RunOrFail runs the loop and exits the process on failure.
func (l *Loop) RunOrFail(ctx context.Context) {
	if err := l.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalln(err)
	}
}

// Step runs exactly one iteration at the given time without starting
// runners. It drives the loop deterministically in tests and simulations.
func (l *Loop) Step(ctx context.Context, now time.Time) {
	l.iterate(ctx, now)
}

// Stats returns a copy of the iteration statistics.
func (l *Loop) Stats() LoopStats {
	l.statsLock.Lock()
	defer l.statsLock.Unlock()
	return l.stats
}

// PreRunAt implements LoopControl.
func (l *Loop) PreRunAt(lv int, hooks ...Controller) {
	lst := &l.levels[lv]
	lst.lock.Lock()
	lst.pre = append(lst.pre, hooks...)
	lst.lock.Unlock()
}

// PostRunAt implements LoopControl.
func (l *Loop) PostRunAt(lv int, hooks ...Controller) {
	lst := &l.levels[lv]
	lst.lock.Lock()
	lst.post = append(lst.post, hooks...)
	lst.lock.Unlock()
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.inboxLock.Lock()
	l.inbox = append(l.inbox, msg)
	l.inboxLock.Unlock()
}

// PendingMessages counts messages posted for the next iteration.
func (l *Loop) PendingMessages() int {
	l.inboxLock.Lock()
	defer l.inboxLock.Unlock()
	return len(l.inbox)
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	if l.wakeUpCh == nil {
		return
	}
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

func (l *Loop) now() time.Time {
	if l.Clock != nil {
		return l.Clock()
	}
	return time.Now()
}

func (l *Loop) iterate(ctx context.Context, now time.Time) {
	it := &iteration{Loop: l, now: now}
	l.inboxLock.Lock()
	it.messages, l.inbox = l.inbox, nil
	l.inboxLock.Unlock()
	it.ctx = context.WithValue(ctx, loopCtxKey{}, LoopControl(it))
	for lv := range l.levels {
		it.level = lv
		l.levels[lv].run(it)
	}
	l.account(now)
}

func (l *Loop) account(start time.Time) {
	elapsed := l.now().Sub(start)
	overrun := l.Overrun > 0 && elapsed > l.Overrun
	l.statsLock.Lock()
	l.stats.Iterations++
	if elapsed > l.stats.MaxElapsed {
		l.stats.MaxElapsed = elapsed
	}
	if overrun {
		l.stats.Overruns++
	}
	l.statsLock.Unlock()
	if overrun {
		glog.Warningf("loop iteration overrun: %v > %v", elapsed, l.Overrun)
	}
}

func (lv *level) run(it *iteration) {
	lv.lock.Lock()
	pre := lv.pre
	lv.pre = nil
	lv.lock.Unlock()
	it.runControllers(pre)
	it.runControllers(lv.controllers)
	lv.lock.Lock()
	post := lv.post
	lv.post = nil
	lv.lock.Unlock()
	it.runControllers(post)
}

// iteration implements ControlContext and MessageStore.
type iteration struct {
	*Loop
	ctx      context.Context
	now      time.Time
	level    int
	messages []Message
}

func (it *iteration) Time() time.Time          { return it.now }
func (it *iteration) Context() context.Context { return it.ctx }
func (it *iteration) Messages() MessageStore   { return it }

func (it *iteration) PostRun(hooks ...Controller) {
	it.PostRunAt(it.level, hooks...)
}

func (it *iteration) runControllers(ctls []Controller) {
	for _, ctl := range ctls {
		if err := ctl.Control(it); err != nil {
			glog.Errorf("%s: %v", LevelName(it.level), err)
		}
	}
}

type messageCursor struct {
	msg   Message
	taken bool
	stop  bool
}

func (c *messageCursor) CurrentMessage() Message { return c.msg }
func (c *messageCursor) MessageTaken()           { c.taken = true }
func (c *messageCursor) StopProcessing()         { c.stop = true }

func (it *iteration) ProcessMessages(proc MessageProcessor) {
	msgs := it.messages
	remains := make([]Message, 0, len(msgs))
	for i, msg := range msgs {
		cur := &messageCursor{msg: msg}
		proc.ProcessMessage(cur)
		if !cur.taken {
			remains = append(remains, msg)
		}
		if cur.stop {
			remains = append(remains, msgs[i+1:]...)
			break
		}
	}
	it.messages = remains
}
