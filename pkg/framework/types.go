package framework

import (
	"context"
	"strconv"
	"time"
)

// Named is implemented by Runnables which report a name in logs.
type Named interface {
	Name() string
}

// Runnable is a background worker living as long as its context.
type Runnable interface {
	Run(context.Context) error
}

// Message is anything posted into the loop from outside an iteration.
type Message interface {
	// NewMessage creates an empty message of the same type.
	NewMessage() Message
}

// Controller is invoked once per iteration and must not block.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc is the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error {
	return f(cc)
}

// ControlContext is what a controller sees during one iteration.
type ControlContext interface {
	// Time is the iteration time, shared by all controllers.
	Time() time.Time
	Context() context.Context
	// Messages holds the messages posted before the iteration started
	// and not yet taken by an earlier controller.
	Messages() MessageStore
	// PostRun runs hooks once after the controllers of the current
	// level. Hooks posted from a post-run hook run in the next iteration.
	PostRun(hooks ...Controller)

	LoopControl
}

// LoopControl is safe to use from any goroutine.
type LoopControl interface {
	// PreRunAt runs hooks once before the controllers of the level.
	PreRunAt(level int, hooks ...Controller)
	// PostRunAt runs hooks once after the controllers of the level.
	PostRunAt(level int, hooks ...Controller)
	// PostMessage queues a message for the next iteration.
	PostMessage(Message)
	// TriggerNext starts the next iteration without waiting for the tick.
	TriggerNext()
}

// MessageStore gives controllers access to the iteration messages.
type MessageStore interface {
	ProcessMessages(MessageProcessor)
}

// MessageProcessor visits messages in posting order.
type MessageProcessor interface {
	ProcessMessage(MessageProcessingContext)
}

// ProcessMessageFunc is the func form of MessageProcessor.
type ProcessMessageFunc func(MessageProcessingContext)

// ProcessMessage implements MessageProcessor.
func (f ProcessMessageFunc) ProcessMessage(mc MessageProcessingContext) {
	f(mc)
}

// MessageProcessingContext is the cursor on the message being visited.
type MessageProcessingContext interface {
	CurrentMessage() Message
	// MessageTaken removes the message so later controllers don't see it.
	MessageTaken()
	// StopProcessing ends the visit after the current message.
	StopProcessing()
}

// PriorityLevels is the number of levels an iteration walks through.
const PriorityLevels = 16

// Levels used by the buggy. An iteration drains input before the
// watchdog decides, and actuates before monitors and reports observe.
const (
	PrLvComm     = 0
	PrLvSafety   = 2
	PrLvSense    = 4
	PrLvControl  = 8
	PrLvAcuate   = 12
	PrLvMonitor  = 13
	PrLvPostProc = 14
	PrLvIdle     = PriorityLevels - 1
)

var levelNames = map[int]string{
	PrLvComm:     "comm",
	PrLvSafety:   "safety",
	PrLvSense:    "sense",
	PrLvControl:  "control",
	PrLvAcuate:   "acuate",
	PrLvMonitor:  "monitor",
	PrLvPostProc: "postproc",
	PrLvIdle:     "idle",
}

// LevelName names a priority level for logs.
func LevelName(level int) string {
	if name, ok := levelNames[level]; ok {
		return name
	}
	return "level" + strconv.Itoa(level)
}
