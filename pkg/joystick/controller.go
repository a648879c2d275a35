// Package joystick drives the buggy from a game controller by translating
// stick and button events into protocol lines.
package joystick

import (
	"context"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/buggy.go/pkg/framework"
	"github.com/robotalks/buggy.go/pkg/joystick/device"
)

// Sender sends a protocol line without waiting for a reply.
type Sender interface {
	Send(line string) error
}

// Axes of the driving stick. D-pad axes act as a digital stick.
const (
	AxisX    = 0
	AxisY    = 1
	AxisPadX = 6
	AxisPadY = 7
)

// Controller reads a joystick device and sends drive commands when the
// resulting command changes.
type Controller struct {
	Sender      Sender
	DeviceIndex int
	Verbose     bool
	Mapping     Mapping

	eventCh     chan device.Event
	device      device.Device
	deviceTimer <-chan time.Time

	stick    Stick
	last     string
	sweeping bool
}

// NewController creates a Controller.
func NewController(sender Sender) *Controller {
	return &Controller{
		Sender:      sender,
		DeviceIndex: defaultConfig.DeviceIndex,
		Verbose:     defaultConfig.Verbose,
		Mapping:     defaultConfig.Mapping,
	}
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvControl, c)
}

// Run implements Runnable.
func (c *Controller) Run(ctx context.Context) error {
	defer func() {
		if c.device != nil {
			c.device.Close()
		}
	}()
	loopCtl := fx.LoopCtlFrom(ctx)
	c.deviceTimer = time.After(0)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.deviceTimer:
			c.deviceTimer = nil
			js, err := c.open()
			if err != nil || js == nil {
				c.deviceTimer = time.After(time.Second)
				continue
			}
			glog.Infof("joystick %d %q opened, %d axes %d buttons", js.Index(), js.Name(), js.AxisCount(), js.ButtonCount())
			c.device, c.eventCh = js, make(chan device.Event, 1)
			go c.pollJoystick(c.device, c.eventCh)
		case ev, ok := <-c.eventCh:
			if ok {
				loopCtl.PostMessage(&eventMsg{event: ev})
			} else {
				glog.Warning("joystick lost, stopping")
				loopCtl.PostMessage(&eventMsg{lost: true})
				c.device.Close()
				c.device, c.eventCh = nil, nil
				c.deviceTimer = time.After(time.Second)
			}
			loopCtl.TriggerNext()
		}
	}
}

func (c *Controller) open() (device.Device, error) {
	if c.DeviceIndex >= 0 {
		js, err := device.Open(c.DeviceIndex)
		if err != nil {
			glog.Errorf("open joystick %d: %v", c.DeviceIndex, err)
		}
		return js, err
	}
	js, err := device.DetectAndOpen(0)
	if err != nil {
		glog.Errorf("detect joystick: %v", err)
	} else if js == nil {
		glog.V(2).Info("no joystick detected")
	}
	return js, err
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	var lines []string
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		msg, ok := mctx.CurrentMessage().(*eventMsg)
		if !ok {
			return
		}
		mctx.MessageTaken()
		if msg.lost {
			c.stick = Stick{}
			c.last = ""
			lines = append(lines, c.Mapping.Line(c.stick))
			return
		}
		if line := c.HandleEvent(msg.event); line != "" {
			lines = append(lines, line)
		}
	}))
	for _, line := range lines {
		if err := c.Sender.Send(line); err != nil {
			return err
		}
	}
	return nil
}

// HandleEvent updates the state from a device event and returns the line
// to send, empty when nothing changed.
func (c *Controller) HandleEvent(ev device.Event) string {
	switch e := ev.(type) {
	case device.AxisEvent:
		switch e.Index() {
		case AxisX, AxisPadX:
			c.stick.X = e.Value()
		case AxisY, AxisPadY:
			// device Y grows downward
			c.stick.Y = -e.Value()
		default:
			return ""
		}
		line := c.Mapping.Line(c.stick)
		if line == c.last {
			return ""
		}
		c.last = line
		return line
	case device.ButtonEvent:
		if !e.Pressed() || e.IsInit() {
			return ""
		}
		line := ButtonLine(e.Index(), c.sweeping)
		switch e.Index() {
		case ButtonSweep:
			c.sweeping = !c.sweeping
		case ButtonStop:
			c.last = line
		}
		return line
	}
	return ""
}

func (c *Controller) pollJoystick(dev device.Device, ch chan<- device.Event) {
	defer close(ch)
	for {
		ev, err := dev.ReadEvent()
		if err != nil {
			glog.Errorf("joystick read: %v", err)
			return
		}
		if ev == nil {
			continue
		}
		if c.Verbose {
			var prefix string
			if ev.IsInit() {
				prefix = "[INIT] "
			}
			switch evt := ev.(type) {
			case device.AxisEvent:
				glog.Infof(prefix+"axis %d: %d", evt.Index(), evt.Value())
			case device.ButtonEvent:
				glog.Infof(prefix+"button %d: %v", evt.Index(), evt.Pressed())
			}
		}
		ch <- ev
	}
}

type eventMsg struct {
	event device.Event
	lost  bool
}

func (m *eventMsg) NewMessage() fx.Message { return &eventMsg{} }
