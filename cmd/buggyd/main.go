// Command buggyd runs the firmware on a host against simulated hardware.
// The protocol is served on a serial port, over websocket, or both, and
// status lines are published to MQTT when a broker is configured.
package main

import (
	"flag"
	"log"

	"github.com/robotalks/buggy.go/pkg/buggy"
	"github.com/robotalks/buggy.go/pkg/config"
	fx "github.com/robotalks/buggy.go/pkg/framework"
	"github.com/robotalks/buggy.go/pkg/l0/comm"
	"github.com/robotalks/buggy.go/pkg/l0/comm/websocket"
	"github.com/robotalks/buggy.go/pkg/sim"
	"github.com/robotalks/buggy.go/pkg/telemetry"
)

func init() {
	config.SetupFlags()
}

func main() {
	flag.Parse()
	conf := config.Default()
	p, err := conf.NewProfile()
	if err != nil {
		log.Fatalln(err)
	}

	bench := sim.NewBench(sim.WallAhead(conf.SimObstacleCM), p.Servo().Initial)
	robot, err := buggy.New(p, config.Version, buggy.Hardware{
		Register: bench.Register,
		Enable:   bench.Enable,
		Servo:    bench.Servo,
		Echo:     bench.Sonar,
	})
	if err != nil {
		log.Fatalln(err)
	}

	loop := fx.NewLoop()
	loop.Interval = p.LoopInterval
	loop.Overrun = 4 * p.LoopInterval
	loop.Add(robot).AddController(fx.PrLvIdle, bench.Chassis)

	if conf.Port != "" {
		link, err := comm.OpenPort(conf.Port, conf.PortOptions())
		if err != nil {
			log.Fatalln(err)
		}
		robot.Attach(loop, link)
		loop.AddRunnable(link)
	}
	if conf.Listen != "" {
		loop.AddRunnable(&websocket.Server{
			Addr: conf.Listen,
			Accept: func(link *comm.Link) func() {
				return robot.Attach(loop, link)
			},
		})
	}
	if conf.MQTTURL != "" {
		q, err := telemetry.NewQueueFromURL(conf.MQTTURL)
		if err != nil {
			log.Fatalln(err)
		}
		pub := telemetry.NewPublisher(q, conf.ID())
		robot.Status.AddSink(pub)
		pub.SubscribeCommands(func(line string) {
			buggy.InputLine(loop, line)
		})
		loop.AddRunnable(q)
	}
	if conf.Port == "" && conf.Listen == "" && conf.MQTTURL == "" {
		log.Fatalln("no link: one of -port, -listen, -mqtt is required")
	}

	err = fx.NewRunner().HandleSignals().Go(loop).Wait()
	stats := loop.Stats()
	log.Printf("loop: %d iterations, %d overruns, max %v", stats.Iterations, stats.Overruns, stats.MaxElapsed)
	if err != nil {
		log.Fatalln(err)
	}
}
