package main

import (
	"flag"
	"log"
	"os"
	"time"

	fx "github.com/robotalks/buggy.go/pkg/framework"
	"github.com/robotalks/buggy.go/pkg/telemetry"
)

var (
	mqttURL = "mqtt://localhost:1883/"
	robotID = "+"
)

func init() {
	if val := os.Getenv("BUGGY_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&robotID, "id", robotID, "Robot ID to monitor, + for all.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := telemetry.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}

	q.Sub(telemetry.Topic(robotID, "+"), func(topic string, payload []byte) {
		id, leaf, ok := telemetry.ParseTopic(topic)
		if !ok || leaf == telemetry.CommandLeaf {
			return
		}
		frame, err := telemetry.DecodeFrame(payload)
		if err != nil {
			log.Printf("%s: bad frame: %v", topic, err)
			return
		}
		at := time.Unix(0, frame.TimeMs*int64(time.Millisecond))
		log.Printf("%s #%d [%s] %s: %s", id, frame.Seq, at.Format("15:04:05.000"), frame.Kind, frame.Line)
	})
	if err := fx.NewRunner().HandleSignals().Go(q).Wait(); err != nil {
		log.Fatalln(err)
	}
}
