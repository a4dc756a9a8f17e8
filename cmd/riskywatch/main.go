package main

import (
	"flag"
	"log"
	"os"

	"github.com/risky-soc/riskymon/pkg/events"
	"github.com/risky-soc/riskymon/pkg/link/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/risky/"
)

func init() {
	if val := os.Getenv("RISKY_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if err := q.ConnectWait(0); err != nil {
		log.Fatalln(err)
	}

	events.Subscribe(q, func(topic string, ev *events.Event) {
		log.Printf("%s: %s", topic, ev.Summary())
	})
	<-(chan struct{})(nil)
}
