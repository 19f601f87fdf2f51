/* Copyright 2019-2020 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sio

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTT is a Couplings backed by an MQTT broker: directives arrive on
// one topic, results go out on another.
type MQTT struct {
	// BrokerURL is, say, "tcp://localhost:1883".
	BrokerURL string

	ClientID string

	// DirectivesTopic is subscribed for Inputs.
	DirectivesTopic string

	// ResultsTopic receives Results.  Empty means results are
	// discarded.
	ResultsTopic string

	QoS byte

	// KeepAlive in seconds.  Zero means 10.
	KeepAlive int

	// Quiesce is the disconnection quiescence in milliseconds.
	// Zero means 100.
	Quiesce uint

	client mqtt.Client
}

// Start connects to the broker.
func (s *MQTT) Start(ctx context.Context) error {
	keepAlive := s.KeepAlive
	if keepAlive == 0 {
		keepAlive = 10
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.BrokerURL)
	opts.SetClientID(s.ClientID)
	opts.SetKeepAlive(time.Second * time.Duration(keepAlive))
	opts.SetPingTimeout(10 * time.Second)

	s.client = mqtt.NewClient(opts)
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect error: %s", token.Error())
	}
	return nil
}

// Stop disconnects from the broker.
func (s *MQTT) Stop(ctx context.Context) error {
	quiesce := s.Quiesce
	if quiesce == 0 {
		quiesce = 100
	}
	s.client.Disconnect(quiesce)
	return nil
}

// IO subscribes to the directives topic and starts a result
// publisher.
func (s *MQTT) IO(ctx context.Context) (chan *Input, chan *Result, error) {
	in := make(chan *Input)
	out := make(chan *Result)

	handler := func(client mqtt.Client, msg mqtt.Message) {
		parsed, err := ParseInput(msg.Payload())
		if err != nil {
			log.Printf("MQTT input error %s on %s", err, msg.Payload())
			return
		}
		select {
		case <-ctx.Done():
		case in <- parsed:
		}
	}
	if token := s.client.Subscribe(s.DirectivesTopic, s.QoS, handler); token.Wait() && token.Error() != nil {
		return nil, nil, fmt.Errorf("MQTT subscribe error: %s", token.Error())
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case r := <-out:
				if r == nil {
					return
				}
				if s.ResultsTopic == "" {
					continue
				}
				js, err := json.Marshal(r)
				if err != nil {
					log.Printf("MQTT result Marshal error %s on %#v", err, r)
					continue
				}
				if token := s.client.Publish(s.ResultsTopic, s.QoS, false, js); token.Wait() && token.Error() != nil {
					log.Printf("MQTT publish error %s", token.Error())
				}
			}
		}
	}()

	return in, out, nil
}
