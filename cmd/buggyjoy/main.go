// Command buggyjoy drives a buggy with a joystick over a serial port or
// websocket link.
package main

import (
	"flag"
	"log"

	"github.com/robotalks/buggy.go/pkg/cli/sh"
	"github.com/robotalks/buggy.go/pkg/config"
	fx "github.com/robotalks/buggy.go/pkg/framework"
	"github.com/robotalks/buggy.go/pkg/joystick"
	"github.com/robotalks/buggy.go/pkg/l0/comm"
)

func init() {
	config.SetupFlags()
	joystick.SetupFlags()
}

func main() {
	flag.Parse()
	conf := config.Default()
	if conf.Port == "" {
		log.Fatalln("-port required")
	}
	link, err := sh.Dial(conf.Port, conf.PortOptions())
	if err != nil {
		log.Fatalln(err)
	}
	client := comm.NewClient(link)

	loop := fx.NewLoop()
	loop.AddRunnable(client)
	if sh.HeartbeatPeriod > 0 {
		loop.AddRunnable(&sh.Heartbeat{Client: client, Period: sh.HeartbeatPeriod})
	}
	loop.Add(joystick.Default().NewController(client))
	if err := fx.NewRunner().HandleSignals().Go(loop).Wait(); err != nil {
		log.Fatalln(err)
	}
}
