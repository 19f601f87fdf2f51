package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/Comcast/baton/sio"
)

func main() {

	var (
		configFile  = flag.String("c", "batond.yaml", "config filename")
		journalFile = flag.String("d", "", "optional journal filename")
		source      = flag.String("source", "stdio", "couplings: stdio, mqtt, or ws")

		mqttBroker     = flag.String("mqtt-broker", "tcp://localhost:1883", "MQTT broker URL")
		mqttClientID   = flag.String("mqtt-id", "batond", "MQTT client id")
		mqttDirectives = flag.String("mqtt-directives", "directives", "MQTT directives topic")
		mqttResults    = flag.String("mqtt-results", "results", "MQTT results topic")
		mqttQoS        = flag.Int("mqtt-qos", 0, "MQTT QoS")

		wsURL = flag.String("ws", "ws://localhost:8080/directives", "WebSocket downchannel URL")

		postURL = flag.String("post", "", "optional URL to POST results to")

		scriptTimeout = flag.Duration("script-timeout", 10*time.Second, "scripted handler stage timeout")

		tracing = flag.Bool("v", false, "log lots of wonderful things")
	)

	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := ReadConfig(*configFile)
	if err != nil {
		log.Fatalf("batond config error %s", err)
	}

	s, err := NewService(ctx, cfg, *journalFile, *scriptTimeout)
	if err != nil {
		log.Fatalf("batond service error %s", err)
	}
	s.Tracing = *tracing

	if *postURL != "" {
		poster, err := sio.NewEventPoster(*postURL)
		if err != nil {
			log.Fatalf("batond poster error %s", err)
		}
		s.poster = poster
	}

	var c sio.Couplings
	switch *source {
	case "stdio":
		stdio := sio.NewStdio()
		go func() {
			<-stdio.InputEOF
			cancel()
		}()
		c = stdio
	case "mqtt":
		c = &sio.MQTT{
			BrokerURL:       *mqttBroker,
			ClientID:        *mqttClientID,
			DirectivesTopic: *mqttDirectives,
			ResultsTopic:    *mqttResults,
			QoS:             byte(*mqttQoS),
		}
	case "ws":
		c = &sio.WebSocket{
			URL: *wsURL,
		}
	default:
		log.Fatal(fmt.Errorf("unknown source %q", *source))
	}

	if err := s.Run(ctx, c); err != nil {
		log.Fatalf("batond error %s", err)
	}
}
