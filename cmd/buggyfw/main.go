//go:build tinygo && (rp2040 || rp2350)

// Command buggyfw is the firmware of the buggy.
package main

import (
	"context"
	"machine"

	"github.com/robotalks/buggy.go/pkg/buggy"
	"github.com/robotalks/buggy.go/pkg/config"
	"github.com/robotalks/buggy.go/pkg/drive"
	fx "github.com/robotalks/buggy.go/pkg/framework"
	"github.com/robotalks/buggy.go/pkg/hw/mcu"
	"github.com/robotalks/buggy.go/pkg/l0/comm"
)

// profile is selected at build time with -ldflags "-X main.profile=autonomous".
var profile = config.ProfileBench

func main() {
	p, err := config.ProfileByName(profile)
	if err != nil {
		println("profile:", err.Error())
		return
	}

	var enable drive.EnableLine
	if p.DigitalEnable {
		enable = mcu.NewDigitalEnable(PIN_ENABLE)
	} else if enable, err = mcu.NewPWMEnable(pwmEnable, PIN_ENABLE, ENABLE_PWM_FREQUENCY); err != nil {
		println("enable:", err.Error())
		return
	}
	servo, err := mcu.NewServo(pwmServo, PIN_SERVO)
	if err != nil {
		println("servo:", err.Error())
		return
	}

	robot, err := buggy.New(p, config.Version, buggy.Hardware{
		Register: mcu.NewShiftRegister(PIN_SHIFT_DATA, PIN_SHIFT_CLOCK, PIN_SHIFT_LATCH),
		Enable:   enable,
		Servo:    servo,
		Echo:     mcu.NewEcho(PIN_TRIGGER, PIN_ECHO),
	})
	if err != nil {
		println("robot:", err.Error())
		return
	}

	loop := fx.NewLoop()
	loop.Interval = p.LoopInterval
	loop.Add(robot)
	link := comm.NewLink(mcu.NewUART(machine.DefaultUART, BAUD_RATE))
	robot.Attach(loop, link)
	loop.AddRunnable(link)
	loop.RunOrFail(context.Background())
}
